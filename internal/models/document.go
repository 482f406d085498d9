// Package models defines the data shapes shared across the document cache
package models

import "time"

// CacheKey identifies one announcement document.
// Date is YYYY-MM-DD; an empty Date never matches anything in the cache.
type CacheKey struct {
	StockCode string `json:"stock_code"`
	Date      string `json:"date"`
	Title     string `json:"title"`
}

// Table is one detected table: rows of cell strings tagged with the
// 1-based page it came from. The JSON shape matches the derived
// tables file: {"page": n, "table": [[...], ...]}.
type Table struct {
	Page int        `json:"page"`
	Rows [][]string `json:"table"`
}

// NumRows returns the row count of the table
func (t Table) NumRows() int {
	return len(t.Rows)
}

// ExtractedContent is the raw output of the extractor
type ExtractedContent struct {
	Text     string  `json:"text"`
	Tables   []Table `json:"tables"`
	NumPages int     `json:"num_pages"`
}

// TotalTableRows sums the rows of every table
func (e *ExtractedContent) TotalTableRows() int {
	n := 0
	for _, t := range e.Tables {
		n += t.NumRows()
	}
	return n
}

// ContentPackage is the caller-facing result of the inlining policy.
// TextPath and TablesPath are set only when the package is truncated.
type ContentPackage struct {
	Success     bool         `json:"success"`
	Text        string       `json:"text"`
	Tables      []Table      `json:"tables"`
	TextLength  int          `json:"text_length"`
	NumTables   int          `json:"num_tables"`
	Truncated   bool         `json:"truncated"`
	TextPath    string       `json:"text_path,omitempty"`
	TablesPath  string       `json:"tables_path,omitempty"`
	PreviewInfo *PreviewInfo `json:"preview_info,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// PreviewInfo explains which parts of a truncated package are previews
type PreviewInfo struct {
	Text   string `json:"text,omitempty"`
	Tables string `json:"tables,omitempty"`
}

// DocumentStructure is an approximate layout summary. Font-size based
// section counts are a heuristic and flagged as such.
type DocumentStructure struct {
	Success           bool            `json:"success"`
	NumPages          int             `json:"num_pages"`
	HasTables         bool            `json:"has_tables"`
	EstimatedSections []SectionMarker `json:"estimated_sections"`
	Approximate       bool            `json:"approximate"`
	Error             string          `json:"error,omitempty"`
}

// SectionMarker is a page whose largest glyph exceeds the heading threshold
type SectionMarker struct {
	Page        int     `json:"page"`
	MaxFontSize float64 `json:"max_font_size"`
}

// FetchResult reports where a document landed and whether the network was used
type FetchResult struct {
	Path       string `json:"path"`
	Downloaded bool   `json:"downloaded"`
}

// DerivedPaths are the text and tables files written next to a primary document
type DerivedPaths struct {
	TextPath   string `json:"text_path"`
	TablesPath string `json:"tables_path"`
}

// SweepResult summarises one janitor pass
type SweepResult struct {
	Deleted    int           `json:"deleted"`
	StaleTemps int           `json:"stale_temps"`
	Failures   int           `json:"failures"`
	Duration   time.Duration `json:"duration"`
}
