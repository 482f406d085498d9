package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/hkexdocs/internal/models"
)

// Prefetch downloads every item into the cache with at most
// Config.Prefetch.Concurrency downloads in flight. One failing item does not
// stop the others; results line up with items by index.
func (a *App) Prefetch(ctx context.Context, items []models.PrefetchItem) []*models.DownloadResult {
	start := time.Now()
	results := make([]*models.DownloadResult, len(items))

	limit := a.Config.Prefetch.Concurrency
	if limit <= 0 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = &models.DownloadResult{
					StockCode: item.Key.StockCode,
					NewsID:    item.NewsID,
					Error:     err.Error(),
				}
				return nil
			}
			results[i] = a.Documents.Download(ctx, item.URL, item.Key.StockCode, item.Key.Date, item.Key.Title, item.NewsID)
			return nil
		})
	}
	_ = g.Wait()

	downloaded, cached, failed := 0, 0, 0
	for _, r := range results {
		switch {
		case !r.Success:
			failed++
		case r.Cached:
			cached++
		default:
			downloaded++
		}
	}
	a.Logger.Info().
		Int("items", len(items)).
		Int("downloaded", downloaded).
		Int("cached", cached).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Prefetch complete")

	return results
}
