package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/hkexdocs/internal/clients/hkex"
	"github.com/bobmcallan/hkexdocs/internal/common"
	"github.com/bobmcallan/hkexdocs/internal/services/document"
	"github.com/bobmcallan/hkexdocs/internal/services/extract"
	"github.com/bobmcallan/hkexdocs/internal/storage/pdfcache"
)

// App holds the initialized cache, extractor, document service and MCP server.
// It is the shared core used by cmd/hkexdocs and cmd/hkexdocs-mcp.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Source      *hkex.Client
	Cache       *pdfcache.Store
	Extractor   *extract.Extractor
	Documents   *document.Service
	MCPServer   *server.MCPServer
	StartupTime time.Time

	janitorCancel context.CancelFunc
	janitorDone   chan struct{}
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration and initializes everything.
// configPath may be empty, in which case HKEX_CONFIG, then hkexdocs.toml next
// to the binary, then config/hkexdocs.toml are tried.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("HKEX_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "hkexdocs.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/hkexdocs.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Relative cache and log paths are anchored to the binary
	config.ResolvePaths(binDir)

	return NewAppFromConfig(config)
}

// NewAppFromConfig initializes everything from an already loaded config.
func NewAppFromConfig(config *common.Config) (*App, error) {
	startupStart := time.Now()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	userAgent := config.HKEX.UserAgent
	if userAgent == "" {
		userAgent = common.DefaultUserAgent
	}

	source := hkex.NewClient(
		hkex.WithBaseURL(config.HKEX.BaseURL),
		hkex.WithLogger(logger),
		hkex.WithRateLimit(config.HKEX.RateLimit),
		hkex.WithTimeout(config.HKEX.GetTimeout()),
		hkex.WithUserAgent(userAgent),
		hkex.WithMaxBytes(config.HKEX.MaxDownloadBytes),
		hkex.WithInsecureSkipVerify(config.HKEX.InsecureSkipVerify),
	)
	if config.HKEX.InsecureSkipVerify {
		logger.Warn().Str("base_url", config.HKEX.BaseURL).Msg("TLS certificate verification disabled for document host")
	}

	storeOpts := []pdfcache.Option{
		pdfcache.WithLogger(logger),
		pdfcache.WithMaxFilenameBytes(config.Cache.MaxFilenameBytes),
	}
	if config.HKEX.VerifyDownloads {
		storeOpts = append(storeOpts, pdfcache.WithValidator(extract.Validate))
	}

	cache, err := pdfcache.NewStore(config.Cache.Root, source, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	extractor := extract.NewExtractor(
		extract.WithLogger(logger),
		extract.WithHeadingFontSize(config.Extract.HeadingFontSize),
		extract.WithTimeout(config.Extract.GetTimeout()),
	)

	documents := document.NewService(cache, extractor, logger, document.LimitsFromConfig(config.Inline)).
		WithDefaultRetention(config.Cache.RetentionDays)

	mcpServer := server.NewMCPServer(
		"hkexdocs",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:      config,
		Logger:      logger,
		Source:      source,
		Cache:       cache,
		Extractor:   extractor,
		Documents:   documents,
		MCPServer:   mcpServer,
		StartupTime: startupStart,
	}

	a.registerTools()

	logger.Info().
		Str("cache_root", cache.Root()).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// Close stops background work. It is safe to call more than once.
func (a *App) Close() {
	a.StopJanitor()
}

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	docs := a.Documents
	logger := a.Logger

	s.AddTool(createGetVersionTool(), handleGetVersion())
	s.AddTool(createGetCachedPDFPathTool(), handleGetCachedPDFPath(docs, logger))
	s.AddTool(createDownloadAnnouncementPDFTool(), handleDownloadAnnouncementPDF(docs, logger))
	s.AddTool(createExtractPDFContentTool(), handleExtractPDFContent(docs, logger))
	s.AddTool(createAnalyzePDFStructureTool(), handleAnalyzePDFStructure(docs, logger))
	s.AddTool(createCleanupPDFCacheTool(), handleCleanupPDFCache(docs, logger))
	s.AddTool(createReadCachedFileTool(), handleReadCachedFile(docs, logger))
	s.AddTool(createPrefetchAnnouncementsTool(), handlePrefetchAnnouncements(a, logger))
}
