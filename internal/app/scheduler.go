package app

import (
	"context"
	"time"

	"github.com/bobmcallan/hkexdocs/internal/common"
	"github.com/bobmcallan/hkexdocs/internal/interfaces"
)

// StartJanitor launches the background cache sweep. It does nothing when
// the sweep interval or retention is zero, or when already running.
func (a *App) StartJanitor() {
	if a.janitorCancel != nil {
		return
	}
	interval := a.Config.Cache.GetSweepInterval()
	maxAge := a.Config.Cache.GetRetention()
	if interval <= 0 || maxAge <= 0 {
		a.Logger.Info().Msg("Janitor: disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.janitorCancel = cancel
	a.janitorDone = done
	go func() {
		defer close(done)
		startJanitor(ctx, a.Cache, a.Logger, interval, maxAge)
	}()
}

// StopJanitor cancels the sweep loop and waits for it to exit
func (a *App) StopJanitor() {
	if a.janitorCancel == nil {
		return
	}
	a.janitorCancel()
	<-a.janitorDone
	a.janitorCancel = nil
	a.janitorDone = nil
}

// startJanitor sweeps the cache once immediately and then on every tick
func startJanitor(ctx context.Context, cache interfaces.DocumentCache, logger *common.Logger, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweepOnce(ctx, cache, logger, maxAge)
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Janitor: stopped")
			return
		case <-ticker.C:
			sweepOnce(ctx, cache, logger, maxAge)
		}
	}
}

func sweepOnce(ctx context.Context, cache interfaces.DocumentCache, logger *common.Logger, maxAge time.Duration) {
	res, err := cache.Sweep(ctx, maxAge)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn().Err(err).Msg("Janitor: sweep failed")
		}
		return
	}
	if res.Failures > 0 {
		logger.Warn().Int("failures", res.Failures).Int("deleted", res.Deleted).Msg("Janitor: sweep finished with failures")
	}
}
