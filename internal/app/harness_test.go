package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/hkexdocs/internal/common"
	"github.com/bobmcallan/hkexdocs/internal/testutil"
)

// announcementServer serves a small generated PDF under /listedco/ and 404s
// everything else. hits counts PDF responses.
type announcementServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newAnnouncementServer(t *testing.T) *announcementServer {
	t.Helper()
	body := testutil.BuildPDF(testutil.Page{
		{X: 72, Y: 720, Size: 18, S: "Announcement"},
		{X: 72, Y: 690, Size: 10, S: "Dividend declared."},
	})

	s := &announcementServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/listedco/") {
			http.NotFound(w, r)
			return
		}
		s.hits.Add(1)
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(body)
	}))
	t.Cleanup(s.Close)
	return s
}

// testConfig returns a config pointing the cache at a temp dir and the
// document host at baseURL
func testConfig(t *testing.T, baseURL string) *common.Config {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Cache.Root = filepath.Join(t.TempDir(), "pdf_cache")
	cfg.Cache.SweepInterval = ""
	cfg.HKEX.BaseURL = baseURL
	cfg.HKEX.RateLimit = 100
	cfg.Logging.Level = "disabled"
	cfg.Logging.Outputs = []string{"console"}
	return cfg
}

func newTestApp(t *testing.T, baseURL string) *App {
	t.Helper()
	a, err := NewAppFromConfig(testConfig(t, baseURL))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

// writeTestConfig writes a minimal TOML config and returns its path
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`environment = "test"

[cache]
root = %q
sweep_interval = ""

[hkex]
base_url = "http://127.0.0.1:1"

[logging]
level = "disabled"
outputs = ["console"]
`, filepath.Join(dir, "cache"))

	path := filepath.Join(dir, "hkexdocs.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newInProcessClient connects an initialized MCP client to the app's server
func newInProcessClient(t *testing.T, a *App) *client.Client {
	t.Helper()
	c, err := client.NewInProcessClient(a.MCPServer)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "hkexdocs-test",
		Version: "1.0.0",
	}
	_, err = c.Initialize(ctx, initReq)
	require.NoError(t, err)

	t.Cleanup(func() { c.Close() })
	return c
}

func callArgs(args map[string]interface{}) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}
