// Package pdfcache is the on-disk announcement document cache.
//
// Layout: {root}/{stock_code}/{date}-{sanitized_title}.pdf with the derived
// siblings {stem}.txt and {stem}_tables.json. The directory may be shared by
// several processes; correctness relies only on atomic link/rename and
// repeated existence checks, never on locks.
package pdfcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/hkexdocs/internal/common"
	"github.com/bobmcallan/hkexdocs/internal/interfaces"
	"github.com/bobmcallan/hkexdocs/internal/models"
)

const tmpExt = ".tmp"

// Validator inspects a fully written temp file before it is committed.
type Validator func(path string) error

// Store implements interfaces.DocumentCache on the local filesystem
type Store struct {
	root         string
	maxNameBytes int
	source       interfaces.DocumentSource
	validate     Validator
	logger       *common.Logger
	now          func() time.Time
}

// Option configures the store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMaxFilenameBytes sets the byte ceiling for primary filenames
func WithMaxFilenameBytes(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxNameBytes = n
		}
	}
}

// WithValidator runs v on every downloaded temp file; a failure aborts the commit
func WithValidator(v Validator) Option {
	return func(s *Store) {
		s.validate = v
	}
}

// WithClock overrides the janitor's notion of now
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore opens (creating if needed) the cache rooted at root.
// source may be nil for read-only use; Fetch then fails on a miss.
func NewStore(root string, source interfaces.DocumentSource, opts ...Option) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("cache root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, &models.WriteError{Path: abs, Op: "mkdir", Err: err}
	}

	s := &Store{
		root:         abs,
		maxNameBytes: DefaultMaxFilenameBytes,
		source:       source,
		logger:       common.NewSilentLogger(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.Debug().Str("root", abs).Int("max_filename_bytes", s.maxNameBytes).Msg("PDF cache opened")
	return s, nil
}

// Root returns the absolute cache root
func (s *Store) Root() string {
	return s.root
}

// Fetch returns the cached primary for key, downloading it from url on a miss.
// Concurrent callers for the same key, in this or other processes, all end
// up with the same complete file; no partial file is ever visible under its
// final name.
func (s *Store) Fetch(ctx context.Context, key models.CacheKey, url string) (*models.FetchResult, error) {
	if key.Date == "" || stockDirName(key.StockCode) == "" {
		return nil, fmt.Errorf("%w: stock code and date are required", models.ErrInvalidKey)
	}

	if path, ok, err := s.Resolve(key); err != nil {
		return nil, fmt.Errorf("failed to resolve cache key: %w", err)
	} else if ok {
		s.logger.Debug().Str("stock", key.StockCode).Str("path", path).Msg("Cache hit")
		return &models.FetchResult{Path: path}, nil
	}

	target := s.TargetPath(key)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &models.WriteError{Path: dir, Op: "mkdir", Err: err}
	}

	// a peer may have committed between the first check and the mkdir
	if path, ok, err := s.Resolve(key); err != nil {
		return nil, fmt.Errorf("failed to resolve cache key: %w", err)
	} else if ok {
		s.logger.Debug().Str("stock", key.StockCode).Str("path", path).Msg("Cache hit after mkdir")
		return &models.FetchResult{Path: path}, nil
	}

	if s.source == nil {
		return nil, &models.DownloadError{URL: url, Err: errors.New("no document source configured")}
	}

	start := time.Now()
	path, downloaded, err := s.download(ctx, url, target)
	if err != nil {
		s.logger.Warn().Err(err).Str("stock", key.StockCode).Str("url", url).Dur("elapsed", time.Since(start)).Msg("PDF download failed")
		return nil, err
	}

	if downloaded {
		s.logger.Info().Str("stock", key.StockCode).Str("path", path).Dur("elapsed", time.Since(start)).Msg("PDF cached")
	}
	return &models.FetchResult{Path: path, Downloaded: downloaded}, nil
}

// download streams url into a private temp handle and commits it to target.
// downloaded is false when a peer's artifact was returned instead.
func (s *Store) download(ctx context.Context, url, target string) (path string, downloaded bool, err error) {
	tmp := tempName(target)

	err = s.writeTemp(ctx, url, tmp)
	if err == nil && s.validate != nil {
		if verr := s.validate(tmp); verr != nil {
			err = &models.DownloadError{URL: url, Err: fmt.Errorf("invalid document: %w", verr)}
		}
	}

	if err == nil {
		if fileExists(target) {
			s.logger.Debug().Str("path", target).Msg("Peer committed first, discarding download")
			removeQuiet(tmp)
			return target, false, nil
		}
		var won bool
		won, err = commitNoReplace(tmp, target)
		if err == nil {
			if !won {
				s.logger.Debug().Str("path", target).Msg("Peer committed first, discarding download")
			}
			return target, won, nil
		}
		err = &models.WriteError{Path: target, Op: "commit", Err: err}
	}

	removeQuiet(tmp)
	if fileExists(target) {
		s.logger.Debug().Err(err).Str("path", target).Msg("Download failed but peer committed")
		return target, false, nil
	}
	return "", false, err
}

func (s *Store) writeTemp(ctx context.Context, url, tmp string) error {
	body, err := s.source.Open(ctx, url)
	if err != nil {
		var de *models.DownloadError
		if errors.As(err, &de) {
			return err
		}
		return &models.DownloadError{URL: url, Err: err}
	}
	defer body.Close()

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return &models.WriteError{Path: tmp, Op: "create", Err: err}
	}

	n, err := io.Copy(f, body)
	if err != nil {
		f.Close()
		var de *models.DownloadError
		if errors.As(err, &de) {
			return err
		}
		return &models.DownloadError{URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return &models.WriteError{Path: tmp, Op: "sync", Err: err}
	}
	if err := f.Close(); err != nil {
		return &models.WriteError{Path: tmp, Op: "close", Err: err}
	}
	if n == 0 {
		return &models.DownloadError{URL: url, Err: errors.New("empty response body")}
	}
	// a complete body is committed even if the caller has since gone away
	return nil
}

// tempName gives every writer its own handle so concurrent downloads never share a file
func tempName(target string) string {
	return target + "." + uuid.NewString() + tmpExt
}

// commitNoReplace publishes tmp as target without ever replacing an existing file.
// won is false when target already existed; tmp is consumed either way on success.
func commitNoReplace(tmp, target string) (won bool, err error) {
	err = os.Link(tmp, target)
	switch {
	case err == nil:
		removeQuiet(tmp)
		return true, nil
	case errors.Is(err, fs.ErrExist):
		removeQuiet(tmp)
		return false, nil
	}

	// filesystems without hard links fall back to rename
	if fileExists(target) {
		removeQuiet(tmp)
		return false, nil
	}
	if err := os.Rename(tmp, target); err != nil {
		return false, err
	}
	return true, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func removeQuiet(path string) {
	_ = os.Remove(path)
}

var _ interfaces.DocumentCache = (*Store)(nil)
