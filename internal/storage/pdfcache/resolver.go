package pdfcache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/hkexdocs/internal/models"
)

const primaryExt = ".pdf"

// FileName returns the sanitized primary filename for a key
func (s *Store) FileName(key models.CacheKey) string {
	return SanitizeFilename(key.Date+"-"+key.Title+primaryExt, s.maxNameBytes)
}

// TargetPath returns the exact path a freshly fetched primary is committed to
func (s *Store) TargetPath(key models.CacheKey) string {
	return filepath.Join(s.root, stockDirName(key.StockCode), s.FileName(key))
}

// Resolve finds the cached primary for key.
//
// The exact sanitized name is tried first. Failing that, any primary in the
// stock directory dated key.Date is accepted: a single candidate wins outright,
// several are ranked by title word overlap, and when nothing overlaps the
// first candidate is returned anyway. A near-miss hit is preferred over a
// redundant download. A miss is ("", false, nil); err is reserved for IO faults.
func (s *Store) Resolve(key models.CacheKey) (string, bool, error) {
	if key.Date == "" || stockDirName(key.StockCode) == "" {
		return "", false, nil
	}

	dir := filepath.Join(s.root, stockDirName(key.StockCode))

	exact := filepath.Join(dir, s.FileName(key))
	if info, err := os.Stat(exact); err == nil && info.Mode().IsRegular() {
		return exact, true, nil
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", false, err
	}

	candidates, err := dateCandidates(dir, key.Date)
	if err != nil {
		return "", false, err
	}

	switch len(candidates) {
	case 0:
		return "", false, nil
	case 1:
		s.logger.Debug().Str("stock", key.StockCode).Str("date", key.Date).Str("file", candidates[0]).Msg("Cache hit on sole date match")
		return filepath.Join(dir, candidates[0]), true, nil
	}

	prefix := key.Date + "-"
	query := wordSet(key.Title)

	best := candidates[0]
	bestScore := 0.0
	for _, name := range candidates {
		embedded := strings.TrimSuffix(strings.TrimPrefix(name, prefix), primaryExt)
		if score := jaccard(query, wordSet(embedded)); score > bestScore {
			best, bestScore = name, score
		}
	}

	s.logger.Debug().
		Str("stock", key.StockCode).
		Str("date", key.Date).
		Str("file", best).
		Float64("score", bestScore).
		Int("candidates", len(candidates)).
		Msg("Cache hit on fuzzy title match")

	return filepath.Join(dir, best), true, nil
}

// dateCandidates lists primaries in dir whose name starts with "{date}-", sorted by name
func dateCandidates(dir, date string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	prefix := date + "-"
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, primaryExt) {
			out = append(out, name)
		}
	}
	return out, nil
}

// stockDirName maps a stock code to its directory element, "" when unusable
func stockDirName(code string) string {
	name := SanitizeFilename(strings.TrimSpace(code), DefaultMaxFilenameBytes)
	if name == "" || name == "." || name == ".." {
		return ""
	}
	return name
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// jaccard is |a∩b| / |a∪b|, zero when either set is empty
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
