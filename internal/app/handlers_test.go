package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/hkexdocs/internal/models"
)

func downloadArgs() map[string]interface{} {
	return map[string]interface{}{
		"pdf_url":      "/listedco/listconews/sehk/2024/0115/2024011500123.pdf",
		"stock_code":   "00673",
		"release_time": "15/01/2024 18:30",
		"title":        "Annual Results",
		"news_id":      "11223344",
	}
}

func TestHandleGetVersion(t *testing.T) {
	result, err := handleGetVersion()(context.Background(), callArgs(nil))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "hkexdocs MCP Server")
	assert.Contains(t, text, "Status: OK")
}

func TestHandleDownload_ThenCachedLookup(t *testing.T) {
	srv := newAnnouncementServer(t)
	a := newTestApp(t, srv.URL)

	handler := handleDownloadAnnouncementPDF(a.Documents, a.Logger)
	result, err := handler(context.Background(), callArgs(downloadArgs()))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var first models.DownloadResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &first))
	assert.True(t, first.Success)
	assert.False(t, first.Cached)
	assert.Equal(t, "11223344", first.NewsID)
	assert.Equal(t, filepath.Join(a.Cache.Root(), "00673", "2024-01-15-Annual Results.pdf"), first.Path)

	// second call is served from disk
	result, err = handler(context.Background(), callArgs(downloadArgs()))
	require.NoError(t, err)
	var second models.DownloadResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &second))
	assert.True(t, second.Cached)
	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, int32(1), srv.hits.Load())

	lookup := handleGetCachedPDFPath(a.Documents, a.Logger)
	result, err = lookup(context.Background(), callArgs(map[string]interface{}{
		"stock_code":   "00673",
		"release_time": "2024-01-15",
		"title":        "Annual Results",
	}))
	require.NoError(t, err)
	var cached models.CachedPathResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &cached))
	assert.True(t, cached.Cached)
	assert.Equal(t, first.Path, cached.Path)
	assert.Equal(t, "2024-01-15", cached.Date)
}

func TestHandleDownload_NotFoundIsStructuredError(t *testing.T) {
	srv := newAnnouncementServer(t)
	a := newTestApp(t, srv.URL)

	args := downloadArgs()
	args["pdf_url"] = "/missing.pdf"
	result, err := handleDownloadAnnouncementPDF(a.Documents, a.Logger)(context.Background(), callArgs(args))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	var res models.DownloadResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &res))
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "404")

	entries, _ := os.ReadDir(filepath.Join(a.Cache.Root(), "00673"))
	assert.Empty(t, entries, "no partial or temp file left behind")
}

func TestHandlers_RequireParameters(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")

	tests := []struct {
		name    string
		handler server.ToolHandlerFunc
		args    map[string]interface{}
		message string
	}{
		{"cached path without stock", handleGetCachedPDFPath(a.Documents, a.Logger), map[string]interface{}{"release_time": "2024-01-15"}, "stock_code"},
		{"download without url", handleDownloadAnnouncementPDF(a.Documents, a.Logger), map[string]interface{}{"stock_code": "1"}, "pdf_url"},
		{"extract without path", handleExtractPDFContent(a.Documents, a.Logger), map[string]interface{}{}, "pdf_path"},
		{"structure without path", handleAnalyzePDFStructure(a.Documents, a.Logger), map[string]interface{}{}, "pdf_path"},
		{"read without path", handleReadCachedFile(a.Documents, a.Logger), map[string]interface{}{}, "path"},
		{"prefetch without items", handlePrefetchAnnouncements(a, a.Logger), map[string]interface{}{}, "items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.handler(context.Background(), callArgs(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.message)
		})
	}
}

func TestHandleExtract_InlineAndStructure(t *testing.T) {
	srv := newAnnouncementServer(t)
	a := newTestApp(t, srv.URL)

	fetched := a.Documents.Download(context.Background(), "/listedco/a.pdf", "00001", "2024-03-01", "Dividend", "")
	require.True(t, fetched.Success, fetched.Error)

	result, err := handleExtractPDFContent(a.Documents, a.Logger)(context.Background(), callArgs(map[string]interface{}{
		"pdf_path": fetched.Path,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var pkg models.ContentPackage
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &pkg))
	assert.True(t, pkg.Success)
	assert.False(t, pkg.Truncated)
	assert.Equal(t, "Announcement\nDividend declared.", pkg.Text)
	assert.Empty(t, pkg.TextPath)

	result, err = handleAnalyzePDFStructure(a.Documents, a.Logger)(context.Background(), callArgs(map[string]interface{}{
		"pdf_path": fetched.Path,
	}))
	require.NoError(t, err)
	var structure models.DocumentStructure
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &structure))
	assert.True(t, structure.Success)
	assert.Equal(t, 1, structure.NumPages)
	require.Len(t, structure.EstimatedSections, 1)
	assert.Equal(t, 1, structure.EstimatedSections[0].Page)
}

func TestHandleExtract_TruncatedThenReadFullText(t *testing.T) {
	srv := newAnnouncementServer(t)
	a := newTestApp(t, srv.URL)

	fetched := a.Documents.Download(context.Background(), "/listedco/a.pdf", "00001", "2024-03-01", "Dividend", "")
	require.True(t, fetched.Success, fetched.Error)

	result, err := handleExtractPDFContent(a.Documents, a.Logger)(context.Background(), callArgs(map[string]interface{}{
		"pdf_path":         fetched.Path,
		"max_inline_chars": float64(5),
	}))
	require.NoError(t, err)

	var pkg models.ContentPackage
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &pkg))
	require.True(t, pkg.Truncated)
	require.NotEmpty(t, pkg.TextPath)
	assert.True(t, strings.HasPrefix(pkg.Text, "Annou"))
	assert.Contains(t, pkg.Text, "read_cached_file")

	result, err = handleReadCachedFile(a.Documents, a.Logger)(context.Background(), callArgs(map[string]interface{}{
		"path": pkg.TextPath,
	}))
	require.NoError(t, err)
	var file models.FileReadResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &file))
	assert.True(t, file.Success)
	assert.Equal(t, "Announcement\nDividend declared.", file.Content)
}

func TestHandleExtract_MissingFile(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")

	result, err := handleExtractPDFContent(a.Documents, a.Logger)(context.Background(), callArgs(map[string]interface{}{
		"pdf_path": filepath.Join(a.Cache.Root(), "nope.pdf"),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), `"success": false`)
}

func TestHandleExtract_OutsideCacheRejected(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")
	outside := filepath.Join(t.TempDir(), "elsewhere.pdf")
	require.NoError(t, os.WriteFile(outside, []byte("%PDF-1.4 stub"), 0o644))

	result, err := handleExtractPDFContent(a.Documents, a.Logger)(context.Background(), callArgs(map[string]interface{}{
		"pdf_path": outside,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	var pkg models.ContentPackage
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &pkg))
	assert.False(t, pkg.Success)
	assert.Contains(t, pkg.Error, "outside the cache")
	assert.NoFileExists(t, strings.TrimSuffix(outside, ".pdf")+".txt")
}

func TestHandleCleanup(t *testing.T) {
	srv := newAnnouncementServer(t)
	a := newTestApp(t, srv.URL)

	fetched := a.Documents.Download(context.Background(), "/listedco/a.pdf", "00001", "2024-03-01", "Dividend", "")
	require.True(t, fetched.Success, fetched.Error)
	old := time.Now().Add(-45 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(fetched.Path, old, old))

	handler := handleCleanupPDFCache(a.Documents, a.Logger)

	result, err := handler(context.Background(), callArgs(map[string]interface{}{"days_old": float64(60)}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), `"deleted": 0`)

	result, err = handler(context.Background(), callArgs(map[string]interface{}{}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), `"deleted": 1`)
	assert.NoFileExists(t, fetched.Path)

	result, err = handler(context.Background(), callArgs(map[string]interface{}{"days_old": float64(-1)}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandlePrefetch(t *testing.T) {
	srv := newAnnouncementServer(t)
	a := newTestApp(t, srv.URL)

	result, err := handlePrefetchAnnouncements(a, a.Logger)(context.Background(), callArgs(map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"pdf_url": "/listedco/1.pdf", "stock_code": "00001", "release_time": "01/03/2024 08:00", "title": "One"},
			map[string]interface{}{"pdf_url": "/gone.pdf", "stock_code": "00002", "release_time": "2024-03-01", "title": "Two"},
			map[string]interface{}{"pdf_url": "/listedco/3.pdf", "stock_code": "00003", "release_time": "2024-03-01", "title": "Three", "news_id": "N3"},
		},
	}))
	require.NoError(t, err)

	var results []models.DownloadResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &results))
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.True(t, results[2].Success)
	assert.Equal(t, "N3", results[2].NewsID)
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestHandlePrefetch_RejectsMalformedItems(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1")

	result, err := handlePrefetchAnnouncements(a, a.Logger)(context.Background(), callArgs(map[string]interface{}{
		"items": "not an array",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
