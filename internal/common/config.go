package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the document cache
type Config struct {
	Environment string         `toml:"environment"`
	Cache       CacheConfig    `toml:"cache"`
	Inline      InlineConfig   `toml:"inline"`
	Extract     ExtractConfig  `toml:"extract"`
	HKEX        HKEXConfig     `toml:"hkex"`
	Prefetch    PrefetchConfig `toml:"prefetch"`
	Logging     LoggingConfig  `toml:"logging"`
}

// CacheConfig holds the on-disk cache layout and retention
type CacheConfig struct {
	Root             string `toml:"root"`
	MaxFilenameBytes int    `toml:"max_filename_bytes"`
	RetentionDays    int    `toml:"retention_days"`
	SweepInterval    string `toml:"sweep_interval"` // duration string, empty disables the background janitor
}

// GetRetention returns the janitor max age
func (c *CacheConfig) GetRetention() time.Duration {
	if c.RetentionDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// GetSweepInterval parses the background sweep interval. Zero means disabled.
func (c *CacheConfig) GetSweepInterval() time.Duration {
	if strings.TrimSpace(c.SweepInterval) == "" {
		return 0
	}
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil || d < 0 {
		return 24 * time.Hour
	}
	return d
}

// InlineConfig holds the thresholds that decide inline versus spill-to-disk
type InlineConfig struct {
	MaxTextChars      int `toml:"max_text_chars"`
	MaxTableRows      int `toml:"max_table_rows"`
	TextPreviewChars  int `toml:"text_preview_chars"`
	TablePreviewCount int `toml:"table_preview_count"`
}

// ExtractConfig holds PDF extraction settings
type ExtractConfig struct {
	HeadingFontSize float64 `toml:"heading_font_size"`
	Timeout         string  `toml:"timeout"` // empty means bounded only by the caller
}

// GetTimeout parses and returns the extraction timeout, zero when unset
func (c *ExtractConfig) GetTimeout() time.Duration {
	if strings.TrimSpace(c.Timeout) == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// HKEXConfig holds the document host configuration
type HKEXConfig struct {
	BaseURL            string `toml:"base_url"`
	Timeout            string `toml:"timeout"`
	RateLimit          int    `toml:"rate_limit"`
	UserAgent          string `toml:"user_agent"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
	MaxDownloadBytes   int64  `toml:"max_download_bytes"`
	VerifyDownloads    bool   `toml:"verify_downloads"` // structural pdfcpu check before commit
}

// GetTimeout parses and returns the timeout duration
func (c *HKEXConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// PrefetchConfig holds batch download settings
type PrefetchConfig struct {
	Concurrency int `toml:"concurrency"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// DefaultUserAgent mimics a desktop browser; the host rejects bare clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Cache: CacheConfig{
			Root:             "data/pdf_cache",
			MaxFilenameBytes: 200,
			RetentionDays:    30,
			SweepInterval:    "24h",
		},
		Inline: InlineConfig{
			MaxTextChars:      50_000,
			MaxTableRows:      200,
			TextPreviewChars:  5_000,
			TablePreviewCount: 5,
		},
		Extract: ExtractConfig{
			HeadingFontSize: 12,
		},
		HKEX: HKEXConfig{
			BaseURL:          "https://www1.hkexnews.hk",
			Timeout:          "60s",
			RateLimit:        5,
			UserAgent:        DefaultUserAgent,
			MaxDownloadBytes: 100 << 20,
		},
		Prefetch: PrefetchConfig{
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			Outputs:  []string{"console"},
			FilePath: "./logs/hkexdocs.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory is read before overrides are applied.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Missing .env is normal outside development
	_ = godotenv.Load()

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("HKEX_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("HKEX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if dir := os.Getenv("HKEX_CACHE_DIR"); dir != "" {
		config.Cache.Root = dir
	}

	if base := os.Getenv("HKEX_BASE_URL"); base != "" {
		config.HKEX.BaseURL = strings.TrimRight(base, "/")
	}

	if days := os.Getenv("HKEX_RETENTION_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			config.Cache.RetentionDays = d
		}
	}

	if v := os.Getenv("HKEX_INSECURE_SKIP_VERIFY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.HKEX.InsecureSkipVerify = b
		}
	}
}

// MaxFilenameBytesLimit leaves room under the 255 byte NAME_MAX for the
// temp suffix and the longest derived extension.
const MaxFilenameBytesLimit = 206

// Validate rejects values the cache cannot operate with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Cache.Root) == "" {
		return fmt.Errorf("cache.root must not be empty")
	}
	if c.Cache.MaxFilenameBytes < 8 || c.Cache.MaxFilenameBytes > MaxFilenameBytesLimit {
		return fmt.Errorf("cache.max_filename_bytes must be between 8 and %d, got %d", MaxFilenameBytesLimit, c.Cache.MaxFilenameBytes)
	}
	if c.Inline.MaxTextChars <= 0 || c.Inline.MaxTableRows < 0 {
		return fmt.Errorf("inline thresholds must be positive")
	}
	if c.Inline.TextPreviewChars < 0 || c.Inline.TablePreviewCount < 0 {
		return fmt.Errorf("inline preview sizes must not be negative")
	}
	if c.IsProduction() && c.HKEX.InsecureSkipVerify {
		return fmt.Errorf("hkex.insecure_skip_verify is not allowed in production")
	}
	return nil
}

// ResolvePaths makes the cache root and log file absolute relative to baseDir
func (c *Config) ResolvePaths(baseDir string) {
	if baseDir == "" {
		return
	}
	if c.Cache.Root != "" && !filepath.IsAbs(c.Cache.Root) {
		c.Cache.Root = filepath.Join(baseDir, c.Cache.Root)
	}
	if c.Logging.FilePath != "" && !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = filepath.Join(baseDir, c.Logging.FilePath)
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
