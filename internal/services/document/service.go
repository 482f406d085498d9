// Package document applies the inlining policy and builds tool results
package document

import (
	"github.com/bobmcallan/hkexdocs/internal/common"
	"github.com/bobmcallan/hkexdocs/internal/interfaces"
)

// Limits are the inline thresholds and preview sizes
type Limits struct {
	MaxTextChars      int
	MaxTableRows      int
	TextPreviewChars  int
	TablePreviewCount int
}

// DefaultLimits returns the standard thresholds
func DefaultLimits() Limits {
	return Limits{
		MaxTextChars:      50_000,
		MaxTableRows:      200,
		TextPreviewChars:  5_000,
		TablePreviewCount: 5,
	}
}

// LimitsFromConfig maps the [inline] section onto Limits
func LimitsFromConfig(cfg common.InlineConfig) Limits {
	return Limits{
		MaxTextChars:      cfg.MaxTextChars,
		MaxTableRows:      cfg.MaxTableRows,
		TextPreviewChars:  cfg.TextPreviewChars,
		TablePreviewCount: cfg.TablePreviewCount,
	}
}

// Service implements interfaces.DocumentService
type Service struct {
	cache            interfaces.DocumentCache
	extractor        interfaces.ContentExtractor
	logger           *common.Logger
	limits           Limits
	defaultRetention int
}

// NewService creates a new document service
func NewService(cache interfaces.DocumentCache, extractor interfaces.ContentExtractor, logger *common.Logger, limits Limits) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		cache:            cache,
		extractor:        extractor,
		logger:           logger,
		limits:           limits,
		defaultRetention: 30,
	}
}

// WithDefaultRetention sets the days used by Cleanup when the caller passes zero
func (s *Service) WithDefaultRetention(days int) *Service {
	if days > 0 {
		s.defaultRetention = days
	}
	return s
}

var _ interfaces.DocumentService = (*Service)(nil)
