package models

// CachedPathResult is returned by the cache lookup tool
type CachedPathResult struct {
	Success   bool   `json:"success"`
	Cached    bool   `json:"cached"`
	Path      string `json:"path,omitempty"`
	StockCode string `json:"stock_code"`
	Date      string `json:"date"`
	Error     string `json:"error,omitempty"`
}

// DownloadResult is returned by the download tool
type DownloadResult struct {
	Success   bool   `json:"success"`
	Path      string `json:"path,omitempty"`
	Cached    bool   `json:"cached"`
	NewsID    string `json:"news_id,omitempty"`
	StockCode string `json:"stock_code"`
	Error     string `json:"error,omitempty"`
}

// CleanupResult is returned by the janitor tool
type CleanupResult struct {
	Success bool   `json:"success"`
	Deleted int    `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// FileReadResult is returned by the cached file reader
type FileReadResult struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
	Size    int64  `json:"size"`
	Error   string `json:"error,omitempty"`
}

// PrefetchItem is one entry of a batch download request
type PrefetchItem struct {
	Key    CacheKey `json:"key"`
	URL    string   `json:"url"`
	NewsID string   `json:"news_id,omitempty"`
}
