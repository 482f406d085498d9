// Package extract pulls text and tables out of announcement PDFs
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/bobmcallan/hkexdocs/internal/common"
	"github.com/bobmcallan/hkexdocs/internal/interfaces"
	"github.com/bobmcallan/hkexdocs/internal/models"
)

// DefaultHeadingFontSize is the glyph size above which a page is assumed to open a section
const DefaultHeadingFontSize = 12.0

// Extractor implements interfaces.ContentExtractor with ledongthuc/pdf
type Extractor struct {
	logger          *common.Logger
	headingFontSize float64
	timeout         time.Duration
}

// Option configures the extractor
type Option func(*Extractor)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithHeadingFontSize sets the heading threshold used by Analyze
func WithHeadingFontSize(size float64) Option {
	return func(e *Extractor) {
		if size > 0 {
			e.headingFontSize = size
		}
	}
}

// WithTimeout bounds every extraction in addition to the caller's context
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		e.timeout = d
	}
}

// NewExtractor creates a new extractor
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		logger:          common.NewSilentLogger(),
		headingFontSize: DefaultHeadingFontSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// page is one parsed page
type page struct {
	number int
	rows   []row
	text   string
	maxPt  float64
}

// Extract returns the full text, pages joined by a blank line, and every
// detected table tagged with its 1-based page. Any failure is an
// *models.ExtractionError and no partial content is returned.
func (e *Extractor) Extract(ctx context.Context, path string, includeTables bool) (*models.ExtractedContent, error) {
	start := time.Now()

	pages, numPages, err := e.parse(ctx, path)
	if err != nil {
		e.logger.Warn().Err(err).Str("path", path).Msg("PDF extraction failed")
		return nil, err
	}

	content := &models.ExtractedContent{NumPages: numPages, Tables: []models.Table{}}
	var texts []string
	for _, p := range pages {
		if t := strings.TrimSpace(p.text); t != "" {
			texts = append(texts, t)
		}
		if !includeTables {
			continue
		}
		for _, rows := range detectTables(p.rows) {
			content.Tables = append(content.Tables, models.Table{Page: p.number, Rows: rows})
		}
	}
	content.Text = strings.Join(texts, "\n\n")

	e.logger.Debug().
		Str("path", path).
		Int("pages", numPages).
		Int("chars", utf8.RuneCountInString(content.Text)).
		Int("tables", len(content.Tables)).
		Dur("elapsed", time.Since(start)).
		Msg("PDF extracted")

	return content, nil
}

// parse runs the parser off the caller's goroutine so the caller's deadline
// bounds it. Parser panics become extraction errors.
func (e *Extractor) parse(ctx context.Context, path string) ([]page, int, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, &models.ExtractionError{Path: path, Err: err}
	}

	type result struct {
		pages []page
		n     int
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: &models.ExtractionError{Path: path, Err: fmt.Errorf("parser panic: %v", r)}}
			}
		}()
		pages, n, err := readPages(path)
		done <- result{pages: pages, n: n, err: err}
	}()

	select {
	case r := <-done:
		return r.pages, r.n, r.err
	case <-ctx.Done():
		return nil, 0, &models.ExtractionError{Path: path, Err: ctx.Err()}
	}
}

func readPages(path string) ([]page, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, 0, &models.ExtractionError{Path: path, Err: fmt.Errorf("failed to open PDF: %w", err)}
	}
	defer f.Close()

	total := r.NumPage()
	if total == 0 {
		return nil, 0, &models.ExtractionError{Path: path, Err: errors.New("document has no pages")}
	}

	pages := make([]page, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		glyphs := p.Content().Text
		rows := layoutRows(glyphs)
		text := renderText(rows)
		if len(glyphs) == 0 {
			// pages drawn without positioned text still carry plain text
			plain, err := p.GetPlainText(nil)
			if err != nil {
				return nil, 0, &models.ExtractionError{Path: path, Err: fmt.Errorf("page %d: %w", i, err)}
			}
			text = plain
		}

		pages = append(pages, page{number: i, rows: rows, text: text, maxPt: maxFontSize(glyphs)})
	}
	return pages, total, nil
}

var _ interfaces.ContentExtractor = (*Extractor)(nil)
