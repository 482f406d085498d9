package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/hkexdocs/internal/common"
	"github.com/bobmcallan/hkexdocs/internal/models"
	"github.com/bobmcallan/hkexdocs/internal/storage/pdfcache"
)

// stubExtractor returns canned content and counts calls
type stubExtractor struct {
	content   *models.ExtractedContent
	structure *models.DocumentStructure
	err       error
	calls     atomic.Int32
}

func (s *stubExtractor) Extract(ctx context.Context, path string, includeTables bool) (*models.ExtractedContent, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	c := *s.content
	if !includeTables {
		c.Tables = nil
	}
	return &c, nil
}

func (s *stubExtractor) Analyze(ctx context.Context, path string) (*models.DocumentStructure, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.structure, nil
}

type testEnv struct {
	svc     *Service
	cache   *pdfcache.Store
	ext     *stubExtractor
	primary string
}

func newTestEnv(t *testing.T, content *models.ExtractedContent) *testEnv {
	t.Helper()
	cache, err := pdfcache.NewStore(t.TempDir(), nil, pdfcache.WithLogger(common.NewSilentLogger()))
	require.NoError(t, err)

	primary := filepath.Join(cache.Root(), "00673", "2024-01-15-Annual Report.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(primary), 0o755))
	require.NoError(t, os.WriteFile(primary, []byte("%PDF-1.4 stub"), 0o644))

	ext := &stubExtractor{content: content}
	return &testEnv{
		svc:     NewService(cache, ext, common.NewSilentLogger(), DefaultLimits()),
		cache:   cache,
		ext:     ext,
		primary: primary,
	}
}

// tables builds n tables of rows rows each, pages 1..n
func tables(n, rows int) []models.Table {
	out := make([]models.Table, n)
	for i := range out {
		r := make([][]string, rows)
		for j := range r {
			r[j] = []string{fmt.Sprintf("t%d", i), fmt.Sprintf("r%d", j)}
		}
		out[i] = models.Table{Page: i + 1, Rows: r}
	}
	return out
}

func text(n int) string {
	return strings.Repeat("a", n)
}
