package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/hkexdocs/internal/common"
	"github.com/bobmcallan/hkexdocs/internal/interfaces"
	"github.com/bobmcallan/hkexdocs/internal/models"
)

// handleGetVersion implements the get_version tool
func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("hkexdocs MCP Server\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return textResult(result), nil
	}
}

// handleGetCachedPDFPath implements the get_cached_pdf_path tool
func handleGetCachedPDFPath(docs interfaces.DocumentService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stockCode, err := request.RequireString("stock_code")
		if err != nil || stockCode == "" {
			return errorResult("Error: stock_code parameter is required"), nil
		}
		releaseTime, err := request.RequireString("release_time")
		if err != nil || releaseTime == "" {
			return errorResult("Error: release_time parameter is required"), nil
		}
		title := request.GetString("title", "")

		res := docs.CachedPath(stockCode, releaseTime, title)
		return jsonResult(res, !res.Success), nil
	}
}

// handleDownloadAnnouncementPDF implements the download_announcement_pdf tool
func handleDownloadAnnouncementPDF(docs interfaces.DocumentService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pdfURL, err := request.RequireString("pdf_url")
		if err != nil || pdfURL == "" {
			return errorResult("Error: pdf_url parameter is required"), nil
		}
		stockCode, err := request.RequireString("stock_code")
		if err != nil || stockCode == "" {
			return errorResult("Error: stock_code parameter is required"), nil
		}
		releaseTime, err := request.RequireString("release_time")
		if err != nil || releaseTime == "" {
			return errorResult("Error: release_time parameter is required"), nil
		}
		title := request.GetString("title", "")
		newsID := request.GetString("news_id", "")

		result := docs.Download(ctx, pdfURL, stockCode, releaseTime, title, newsID)
		return jsonResult(result, !result.Success), nil
	}
}

// handleExtractPDFContent implements the extract_pdf_content tool
func handleExtractPDFContent(docs interfaces.DocumentService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pdfPath, err := request.RequireString("pdf_path")
		if err != nil || pdfPath == "" {
			return errorResult("Error: pdf_path parameter is required"), nil
		}

		pkg := docs.ExtractContent(ctx, pdfPath, interfaces.InlineOptions{
			IncludeTables: request.GetBool("include_tables", true),
			Force:         request.GetBool("force", false),
			MaxTextChars:  request.GetInt("max_inline_chars", 0),
			MaxTableRows:  request.GetInt("max_table_rows", 0),
		})
		return jsonResult(pkg, !pkg.Success), nil
	}
}

// handleAnalyzePDFStructure implements the analyze_pdf_structure tool
func handleAnalyzePDFStructure(docs interfaces.DocumentService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pdfPath, err := request.RequireString("pdf_path")
		if err != nil || pdfPath == "" {
			return errorResult("Error: pdf_path parameter is required"), nil
		}

		structure := docs.AnalyzeStructure(ctx, pdfPath)
		return jsonResult(structure, !structure.Success), nil
	}
}

// handleCleanupPDFCache implements the cleanup_pdf_cache tool
func handleCleanupPDFCache(docs interfaces.DocumentService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		days := request.GetInt("days_old", 0)

		result := docs.Cleanup(ctx, days)
		if result.Success {
			logger.Info().Int("days", days).Int("deleted", result.Deleted).Msg("Cache cleanup via tool")
		}
		return jsonResult(result, !result.Success), nil
	}
}

// handleReadCachedFile implements the read_cached_file tool
func handleReadCachedFile(docs interfaces.DocumentService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil || path == "" {
			return errorResult("Error: path parameter is required"), nil
		}
		maxBytes := int64(request.GetInt("max_bytes", 0))

		result := docs.ReadCachedFile(path, maxBytes)
		if !result.Success {
			logger.Warn().Str("path", path).Str("error", result.Error).Msg("Cached file read rejected")
		}
		return jsonResult(result, !result.Success), nil
	}
}

// prefetchArg is one element of the prefetch_announcements items array
type prefetchArg struct {
	PDFURL      string `json:"pdf_url"`
	StockCode   string `json:"stock_code"`
	ReleaseTime string `json:"release_time"`
	Title       string `json:"title"`
	NewsID      string `json:"news_id"`
}

// handlePrefetchAnnouncements implements the prefetch_announcements tool
func handlePrefetchAnnouncements(a *App, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := request.GetArguments()["items"]
		if !ok {
			return errorResult("Error: items parameter is required"), nil
		}

		// arguments arrive as generic JSON values
		encoded, err := json.Marshal(raw)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: invalid items: %v", err)), nil
		}
		var args []prefetchArg
		if err := json.Unmarshal(encoded, &args); err != nil {
			return errorResult(fmt.Sprintf("Error: items must be an array of objects: %v", err)), nil
		}
		if len(args) == 0 {
			return errorResult("Error: items must not be empty"), nil
		}

		items := make([]models.PrefetchItem, len(args))
		for i, arg := range args {
			items[i] = models.PrefetchItem{
				Key: models.CacheKey{
					StockCode: arg.StockCode,
					Date:      arg.ReleaseTime,
					Title:     arg.Title,
				},
				URL:    arg.PDFURL,
				NewsID: arg.NewsID,
			}
		}

		return jsonResult(a.Prefetch(ctx, items), false), nil
	}
}

// Helper functions

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// jsonResult renders v as indented JSON; isError flags a structured failure
func jsonResult(v interface{}, isError bool) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Error: failed to encode result: %v", err))
	}
	result := textResult(string(data))
	result.IsError = isError
	return result
}
