package app

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createGetVersionTool returns the get_version tool definition
func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the hkexdocs server version and status. Use this to verify connectivity."),
	)
}

// createGetCachedPDFPathTool returns the get_cached_pdf_path tool definition
func createGetCachedPDFPathTool() mcp.Tool {
	return mcp.NewTool("get_cached_pdf_path",
		mcp.WithDescription("Check whether an HKEX announcement PDF is already cached locally. Returns {success, cached, path, stock_code, date} without touching the network."),
		mcp.WithString("stock_code",
			mcp.Required(),
			mcp.Description("HKEX stock code (e.g., '00673')"),
		),
		mcp.WithString("release_time",
			mcp.Required(),
			mcp.Description("Announcement release time, 'dd/mm/yyyy HH:MM' as listed by HKEX or 'YYYY-MM-DD'"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Announcement title"),
		),
	)
}

// createDownloadAnnouncementPDFTool returns the download_announcement_pdf tool definition
func createDownloadAnnouncementPDFTool() mcp.Tool {
	return mcp.NewTool("download_announcement_pdf",
		mcp.WithDescription("Download an HKEX announcement PDF into the local cache. Returns the cached copy if one already exists. Safe to call concurrently for the same announcement."),
		mcp.WithString("pdf_url",
			mcp.Required(),
			mcp.Description("PDF link, absolute or root-relative to https://www1.hkexnews.hk (e.g., '/listedco/listconews/sehk/2024/0115/2024011500123.pdf')"),
		),
		mcp.WithString("stock_code",
			mcp.Required(),
			mcp.Description("HKEX stock code (e.g., '00673')"),
		),
		mcp.WithString("release_time",
			mcp.Required(),
			mcp.Description("Announcement release time, 'dd/mm/yyyy HH:MM' or 'YYYY-MM-DD'"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Announcement title"),
		),
		mcp.WithString("news_id",
			mcp.Description("HKEX news id, echoed back in the result"),
		),
	)
}

// createExtractPDFContentTool returns the extract_pdf_content tool definition
func createExtractPDFContentTool() mcp.Tool {
	return mcp.NewTool("extract_pdf_content",
		mcp.WithDescription("Extract text and tables from a cached PDF. Large documents return a preview and the paths of the full text and tables files; read those with read_cached_file."),
		mcp.WithString("pdf_path",
			mcp.Required(),
			mcp.Description("Path returned by download_announcement_pdf or get_cached_pdf_path; must be inside the PDF cache"),
		),
		mcp.WithBoolean("include_tables",
			mcp.Description("Extract tables as well as text (default: true)"),
		),
		mcp.WithNumber("max_inline_chars",
			mcp.Description("Text longer than this many characters is truncated to a preview (default: 50000)"),
		),
		mcp.WithNumber("max_table_rows",
			mcp.Description("More table rows than this in total truncates the tables (default: 200)"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Overwrite previously saved full text and tables files (default: false)"),
		),
	)
}

// createAnalyzePDFStructureTool returns the analyze_pdf_structure tool definition
func createAnalyzePDFStructureTool() mcp.Tool {
	return mcp.NewTool("analyze_pdf_structure",
		mcp.WithDescription("Summarise a cached PDF: page count, whether it has tables, and pages that look like section starts. Section detection is a font size heuristic."),
		mcp.WithString("pdf_path",
			mcp.Required(),
			mcp.Description("Path of a cached PDF"),
		),
	)
}

// createCleanupPDFCacheTool returns the cleanup_pdf_cache tool definition
func createCleanupPDFCacheTool() mcp.Tool {
	return mcp.NewTool("cleanup_pdf_cache",
		mcp.WithDescription("Delete cached PDFs, with their text and tables files, older than the given number of days."),
		mcp.WithNumber("days_old",
			mcp.Description("Age threshold in days (default: configured retention, 30)"),
		),
	)
}

// createReadCachedFileTool returns the read_cached_file tool definition
func createReadCachedFileTool() mcp.Tool {
	return mcp.NewTool("read_cached_file",
		mcp.WithDescription("Read a file from the PDF cache, typically the full text or tables file named in a truncated extract_pdf_content result."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path inside the cache, or a path relative to the cache root"),
		),
		mcp.WithNumber("max_bytes",
			mcp.Description("Maximum bytes to return (default: 2 MiB)"),
		),
	)
}

// createPrefetchAnnouncementsTool returns the prefetch_announcements tool definition
func createPrefetchAnnouncementsTool() mcp.Tool {
	return mcp.NewTool("prefetch_announcements",
		mcp.WithDescription("Download several announcement PDFs at once with bounded concurrency. Each item reports its own result; one failure does not stop the rest."),
		mcp.WithArray("items",
			mcp.Required(),
			mcp.Description("Announcements to fetch: objects with pdf_url, stock_code, release_time, title and optional news_id"),
		),
	)
}
