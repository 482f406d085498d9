package pdfcache

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/bobmcallan/hkexdocs/internal/models"
)

// Sweep deletes primaries last modified more than maxAge ago together with
// their derived files. Deleted counts every file actually removed. Derived
// files of a fresh primary are never touched. Abandoned temp handles past
// maxAge are removed too but reported separately in StaleTemps.
func (s *Store) Sweep(ctx context.Context, maxAge time.Duration) (*models.SweepResult, error) {
	start := time.Now()
	cutoff := s.now().Add(-maxAge)
	result := &models.SweepResult{}

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == s.root {
				return walkErr
			}
			// entries can vanish under a concurrent sweep
			s.logger.Debug().Err(walkErr).Str("path", path).Msg("Sweep skipped entry")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		isPrimary := strings.HasSuffix(name, primaryExt)
		isTemp := strings.HasSuffix(name, tmpExt)
		if !isPrimary && !isTemp {
			return nil
		}

		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		if isTemp {
			if ok, err := removeIfPresent(path); err != nil {
				result.Failures++
				s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove stale temp file")
			} else if ok {
				result.StaleTemps++
			}
			return nil
		}

		removed, err := removeIfPresent(path)
		if err != nil {
			result.Failures++
			s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove cached PDF")
			return nil
		}
		if removed {
			result.Deleted++
		}

		derived := DerivedPathsFor(path)
		for _, p := range []string{derived.TextPath, derived.TablesPath} {
			ok, err := removeIfPresent(p)
			if err != nil {
				result.Failures++
				s.logger.Warn().Err(err).Str("path", p).Msg("Failed to remove derived file")
				continue
			}
			if ok {
				result.Deleted++
			}
		}
		return nil
	})

	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}

	s.logger.Info().
		Int("deleted", result.Deleted).
		Int("stale_temps", result.StaleTemps).
		Int("failures", result.Failures).
		Dur("max_age", maxAge).
		Dur("elapsed", result.Duration).
		Msg("PDF cache sweep complete")

	return result, nil
}
