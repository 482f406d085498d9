package extract

import (
	"context"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/bobmcallan/hkexdocs/internal/models"
)

var disablePDFCPUConfig sync.Once

// pdfcpuConfig returns a relaxed configuration that never touches the user config dir
func pdfcpuConfig() *model.Configuration {
	disablePDFCPUConfig.Do(func() {
		model.ConfigPath = "disable"
	})
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// Analyze reports page count, whether any table was detected and how many
// pages carry a glyph larger than the heading threshold. The section count
// is a cheap heuristic, not a parse of the document outline.
func (e *Extractor) Analyze(ctx context.Context, path string) (*models.DocumentStructure, error) {
	start := time.Now()

	pages, numPages, err := e.parse(ctx, path)
	if err != nil {
		return nil, err
	}

	// pdfcpu reads the page tree directly; fall back to the text parser's count
	if n, err := PageCount(path); err == nil && n > 0 {
		numPages = n
	} else if err != nil {
		e.logger.Debug().Err(err).Str("path", path).Msg("pdfcpu page count unavailable")
	}

	structure := &models.DocumentStructure{
		Success:           true,
		NumPages:          numPages,
		Approximate:       true,
		EstimatedSections: []models.SectionMarker{},
	}
	for _, p := range pages {
		if !structure.HasTables && len(detectTables(p.rows)) > 0 {
			structure.HasTables = true
		}
		if p.maxPt > e.headingFontSize {
			structure.EstimatedSections = append(structure.EstimatedSections, models.SectionMarker{Page: p.number, MaxFontSize: p.maxPt})
		}
	}

	e.logger.Debug().
		Str("path", path).
		Int("pages", structure.NumPages).
		Bool("has_tables", structure.HasTables).
		Int("sections", len(structure.EstimatedSections)).
		Dur("elapsed", time.Since(start)).
		Msg("PDF structure analysed")

	return structure, nil
}

// Validate runs pdfcpu's relaxed structural validation over a file
func Validate(path string) error {
	return api.ValidateFile(path, pdfcpuConfig())
}

// PageCount returns the page count using pdfcpu
func PageCount(path string) (int, error) {
	pdfcpuConfig()
	return api.PageCountFile(path)
}
