package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/hkexdocs/internal/common"
	"github.com/bobmcallan/hkexdocs/internal/interfaces"
	"github.com/bobmcallan/hkexdocs/internal/models"
)

// DefaultReadLimit caps ReadCachedFile when the caller does not
const DefaultReadLimit = 2 << 20

// CachedPath reports whether the announcement is already on disk.
// releaseTime may be "dd/mm/yyyy HH:MM" or an ISO date.
func (s *Service) CachedPath(stockCode, releaseTime, title string) *models.CachedPathResult {
	date := common.NormalizeDate(releaseTime)
	result := &models.CachedPathResult{StockCode: stockCode, Date: date}

	path, ok, err := s.cache.Resolve(models.CacheKey{StockCode: stockCode, Date: date, Title: title})
	if err != nil {
		s.logger.Warn().Err(err).Str("stock", stockCode).Str("date", date).Msg("Cache lookup failed")
		result.Error = err.Error()
		return result
	}
	result.Success = true
	result.Cached = ok
	result.Path = path
	return result
}

// Download fetches the announcement into the cache unless it is already there
func (s *Service) Download(ctx context.Context, url, stockCode, releaseTime, title, newsID string) *models.DownloadResult {
	result := &models.DownloadResult{NewsID: newsID, StockCode: stockCode}

	date := common.NormalizeDate(releaseTime)
	if date == "" {
		result.Error = fmt.Sprintf("unrecognised release time %q, expected dd/mm/yyyy HH:MM or YYYY-MM-DD", releaseTime)
		return result
	}
	if strings.TrimSpace(url) == "" {
		result.Error = "pdf_url is required"
		return result
	}

	fetched, err := s.cache.Fetch(ctx, models.CacheKey{StockCode: stockCode, Date: date, Title: title}, url)
	if err != nil {
		s.logger.Error().Err(err).Str("stock", stockCode).Str("news_id", newsID).Msg("Announcement download failed")
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Path = fetched.Path
	result.Cached = !fetched.Downloaded
	return result
}

// ExtractContent runs the inlining policy and folds any error into the result.
// Only primaries inside the cache root are accepted so the derived files
// stay readable through ReadCachedFile and are swept with their primary.
func (s *Service) ExtractContent(ctx context.Context, path string, opts interfaces.InlineOptions) *models.ContentPackage {
	pkg, err := s.inlineCached(ctx, path, opts)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("Content extraction failed")
		return &models.ContentPackage{
			Success: false,
			Tables:  []models.Table{},
			Error:   err.Error(),
		}
	}
	return pkg
}

func (s *Service) inlineCached(ctx context.Context, path string, opts interfaces.InlineOptions) (*models.ContentPackage, error) {
	abs, err := s.withinRoot(path)
	if err != nil {
		return nil, err
	}
	return s.Inline(ctx, abs, opts)
}

// AnalyzeStructure returns the approximate document structure of a cached primary
func (s *Service) AnalyzeStructure(ctx context.Context, path string) *models.DocumentStructure {
	structure, err := s.analyzeCached(ctx, path)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("Structure analysis failed")
		return &models.DocumentStructure{
			Success:           false,
			EstimatedSections: []models.SectionMarker{},
			Error:             err.Error(),
		}
	}
	return structure
}

func (s *Service) analyzeCached(ctx context.Context, path string) (*models.DocumentStructure, error) {
	abs, err := s.withinRoot(path)
	if err != nil {
		return nil, err
	}
	return s.extractor.Analyze(ctx, abs)
}

// Cleanup sweeps files older than days; zero means the configured retention
func (s *Service) Cleanup(ctx context.Context, days int) *models.CleanupResult {
	if days < 0 {
		return &models.CleanupResult{Error: fmt.Sprintf("days must not be negative, got %d", days)}
	}
	if days == 0 {
		days = s.defaultRetention
	}

	res, err := s.cache.Sweep(ctx, common.Days(days))
	if err != nil {
		s.logger.Error().Err(err).Int("days", days).Msg("Cache cleanup failed")
		deleted := 0
		if res != nil {
			deleted = res.Deleted
		}
		return &models.CleanupResult{Deleted: deleted, Error: err.Error()}
	}
	return &models.CleanupResult{Success: true, Deleted: res.Deleted}
}

// ReadCachedFile returns the contents of a file inside the cache root,
// typically a derived text or tables file named by a truncated package.
func (s *Service) ReadCachedFile(path string, maxBytes int64) *models.FileReadResult {
	result := &models.FileReadResult{Path: path}
	if maxBytes <= 0 {
		maxBytes = DefaultReadLimit
	}

	abs, err := s.withinRoot(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Path = abs

	f, err := os.Open(abs)
	if err != nil {
		result.Error = fmt.Sprintf("failed to open %s: %v", abs, err)
		return result
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		result.Error = fmt.Sprintf("failed to stat %s: %v", abs, err)
		return result
	}
	if info.IsDir() {
		result.Error = fmt.Sprintf("%s is a directory", abs)
		return result
	}
	result.Size = info.Size()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes))
	if err != nil {
		result.Error = fmt.Sprintf("failed to read %s: %v", abs, err)
		return result
	}
	result.Success = true
	result.Content = string(data)
	return result
}

var errOutsideCache = errors.New("path is outside the cache directory")

// withinRoot resolves path, relative paths against the cache root, and
// rejects anything that escapes the root after symlink resolution.
func (s *Service) withinRoot(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path is required")
	}
	root := s.cache.Root()
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache root: %w", err)
	}

	rel, err := filepath.Rel(realRoot, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", errOutsideCache, path)
	}
	return resolved, nil
}
