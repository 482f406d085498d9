package pdfcache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/hkexdocs/internal/common"
	"github.com/bobmcallan/hkexdocs/internal/models"
)

var samplePDF = []byte("%PDF-1.4\n% sample body for cache tests\n%%EOF\n")

// stubSource serves a fixed body and counts Open calls
type stubSource struct {
	body  []byte
	err   error
	delay time.Duration
	calls atomic.Int32
	// onOpen runs before the body is returned, e.g. to simulate a peer commit
	onOpen func()
}

func (s *stubSource) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.onOpen != nil {
		s.onOpen()
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return io.NopCloser(bytes.NewReader(s.body)), nil
}

// failingReader returns some bytes then an error
type failingReader struct {
	sent bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.sent {
		f.sent = true
		return copy(p, "%PDF-1.4 partial"), nil
	}
	return 0, io.ErrUnexpectedEOF
}

type truncatingSource struct{}

// oversizedReader fails the way a size-capped body does
type oversizedReader struct {
	url string
}

func (o *oversizedReader) Read(p []byte) (int, error) {
	return 0, &models.DownloadError{URL: o.url, Err: errors.New("body exceeds size limit")}
}

type oversizedSource struct{}

func (oversizedSource) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	return io.NopCloser(&oversizedReader{url: url}), nil
}

func (truncatingSource) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	return io.NopCloser(&failingReader{}), nil
}

func newTestStore(t *testing.T, src *stubSource, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithLogger(common.NewSilentLogger())}, opts...)
	var s *Store
	var err error
	if src == nil {
		s, err = NewStore(t.TempDir(), nil, opts...)
	} else {
		s, err = NewStore(t.TempDir(), src, opts...)
	}
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func age(t *testing.T, path string, d time.Duration) {
	t.Helper()
	ts := time.Now().Add(-d)
	require.NoError(t, os.Chtimes(path, ts, ts))
}

// listFiles returns every regular file under root, relative and sorted
func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			out = append(out, rel)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func countTemps(t *testing.T, root string) int {
	n := 0
	for _, f := range listFiles(t, root) {
		if strings.HasSuffix(f, tmpExt) {
			n++
		}
	}
	return n
}

func key(stock, date, title string) models.CacheKey {
	return models.CacheKey{StockCode: stock, Date: date, Title: title}
}
