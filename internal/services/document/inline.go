package document

import (
	"context"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bobmcallan/hkexdocs/internal/interfaces"
	"github.com/bobmcallan/hkexdocs/internal/models"
)

// ReadToolName is the tool callers use to fetch spilled content
const ReadToolName = "read_cached_file"

var printer = message.NewPrinter(language.English)

// Inline extracts path and decides what is returned inline.
//
// Text longer than MaxTextChars (in characters) or tables with more than
// MaxTableRows rows in total cause the full content to be written next to
// the PDF and only a preview to be returned. Hitting a threshold exactly
// is not truncation. TextLength and NumTables always describe the full content.
func (s *Service) Inline(ctx context.Context, path string, opts interfaces.InlineOptions) (*models.ContentPackage, error) {
	start := time.Now()
	limits := s.effectiveLimits(opts)

	content, err := s.extractor.Extract(ctx, path, opts.IncludeTables)
	if err != nil {
		return nil, err
	}

	tables := content.Tables
	if tables == nil {
		tables = []models.Table{}
	}

	textLength := utf8.RuneCountInString(content.Text)
	totalRows := content.TotalTableRows()
	textTruncated := textLength > limits.MaxTextChars
	tablesTruncated := totalRows > limits.MaxTableRows

	pkg := &models.ContentPackage{
		Success:    true,
		Text:       content.Text,
		Tables:     tables,
		TextLength: textLength,
		NumTables:  len(tables),
		Truncated:  textTruncated || tablesTruncated,
	}

	if !pkg.Truncated {
		s.logger.Debug().Str("path", path).Int("chars", textLength).Int("tables", len(tables)).Msg("Content returned inline")
		return pkg, nil
	}

	paths, err := s.cache.SaveDerived(path, content.Text, tables, opts.Force)
	if err != nil {
		return nil, err
	}
	pkg.TextPath = paths.TextPath
	pkg.TablesPath = paths.TablesPath
	pkg.PreviewInfo = &models.PreviewInfo{}

	if textTruncated {
		pkg.Text = firstRunes(content.Text, limits.TextPreviewChars) + textNotice(textLength, paths.TextPath)
		pkg.PreviewInfo.Text = "Text truncated, full text at text_path"
	}
	if tablesTruncated {
		n := limits.TablePreviewCount
		if n > len(tables) {
			n = len(tables)
		}
		pkg.Tables = tables[:n]
		pkg.PreviewInfo.Tables = tablesNotice(n, len(tables), totalRows, paths.TablesPath)
	}

	s.logger.Info().
		Str("path", path).
		Int("chars", textLength).
		Int("tables", len(tables)).
		Int("table_rows", totalRows).
		Bool("text_truncated", textTruncated).
		Bool("tables_truncated", tablesTruncated).
		Dur("elapsed", time.Since(start)).
		Msg("Content truncated to preview")

	return pkg, nil
}

func (s *Service) effectiveLimits(opts interfaces.InlineOptions) Limits {
	l := s.limits
	if opts.MaxTextChars > 0 {
		l.MaxTextChars = opts.MaxTextChars
	}
	if opts.MaxTableRows > 0 {
		l.MaxTableRows = opts.MaxTableRows
	}
	return l
}

func textNotice(total int, path string) string {
	return printer.Sprintf("\n\n... (truncated, full text is %d characters)\n", total) +
		"Full text saved to: " + path + "\n" +
		"Use " + ReadToolName + "('" + path + "') to read the full text"
}

func tablesNotice(shown, total, rows int, path string) string {
	return printer.Sprintf("Showing the first %d of %d tables (%d rows in total)\n", shown, total, rows) +
		"Full tables saved to: " + path + "\n" +
		"Use " + ReadToolName + "('" + path + "') to read the full table data"
}

// firstRunes returns at most n characters of s
func firstRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
