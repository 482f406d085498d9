// Package interfaces defines the contracts between the document cache packages
package interfaces

import (
	"context"
	"io"
	"time"

	"github.com/bobmcallan/hkexdocs/internal/models"
)

// DocumentSource opens a remote document stream.
// Non-2xx responses must surface as *models.DownloadError.
type DocumentSource interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// DocumentCache is the on-disk announcement cache
type DocumentCache interface {
	// Resolve looks up a cached primary. A miss is ("", false, nil).
	Resolve(key models.CacheKey) (string, bool, error)
	// Fetch returns the cached path, downloading at most once across concurrent callers.
	Fetch(ctx context.Context, key models.CacheKey, url string) (*models.FetchResult, error)
	// SaveDerived writes the text and tables files next to a primary.
	SaveDerived(primary string, text string, tables []models.Table, force bool) (*models.DerivedPaths, error)
	// Sweep removes primaries older than maxAge and their derived files.
	Sweep(ctx context.Context, maxAge time.Duration) (*models.SweepResult, error)
	// Root returns the cache root directory.
	Root() string
}

// ContentExtractor pulls text and tables out of a local PDF
type ContentExtractor interface {
	Extract(ctx context.Context, path string, includeTables bool) (*models.ExtractedContent, error)
	Analyze(ctx context.Context, path string) (*models.DocumentStructure, error)
}

// DocumentService is the tool-facing surface: every method returns a
// result object and never an error, failures are carried in the result.
type DocumentService interface {
	CachedPath(stockCode, releaseTime, title string) *models.CachedPathResult
	Download(ctx context.Context, url, stockCode, releaseTime, title, newsID string) *models.DownloadResult
	ExtractContent(ctx context.Context, path string, opts InlineOptions) *models.ContentPackage
	AnalyzeStructure(ctx context.Context, path string) *models.DocumentStructure
	Cleanup(ctx context.Context, days int) *models.CleanupResult
	ReadCachedFile(path string, maxBytes int64) *models.FileReadResult
}

// InlineOptions tunes one extraction. Zero limits fall back to configured defaults.
type InlineOptions struct {
	IncludeTables bool
	Force         bool
	MaxTextChars  int
	MaxTableRows  int
}
