package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the startup banner to stderr.
func PrintBanner(config *Config, logger *Logger, mode string) {
	printBanner(os.Stderr, config, mode)

	logger.Info().
		Str("version", GetVersion()).
		Str("build", GetBuild()).
		Str("commit", GetGitCommit()).
		Str("environment", config.Environment).
		Str("mode", mode).
		Str("cache_root", config.Cache.Root).
		Msg("Application started")
}

func printBanner(w io.Writer, config *Config, mode string) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 60
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	art := []string{
		` _   _ _  _______  __  ____   ___   ____ ____`,
		`| | | | |/ / ____| \ \/ /  _ \ / _ \ / ___/ ___|`,
		`| |_| | ' /|  _|    \  /| | | | | | | |   \___ \`,
		`|  _  | . \| |___   /  \| |_| | |_| | |___ ___) |`,
		`|_| |_|_|\_\_____| /_/\_\____/ \___/ \____|____/`,
	}

	fmt.Fprintf(w, "\n%s\n\n", hr)
	for _, line := range art {
		fmt.Fprintf(w, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s  Announcement PDF Cache & Content Inlining%s\n\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n\n", hr)

	kvPad := 14
	kvLines := [][2]string{
		{"Version", GetVersion()},
		{"Build", GetBuild()},
		{"Commit", GetGitCommit()},
		{"Environment", config.Environment},
		{"Mode", mode},
		{"Cache Root", config.Cache.Root},
		{"Source", config.HKEX.BaseURL},
		{"Retention", fmt.Sprintf("%d days", config.Cache.RetentionDays)},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}

	fmt.Fprintf(w, "\n%s\n\n", hr)
}

// PrintShutdownBanner displays the shutdown banner to stderr.
func PrintShutdownBanner(logger *Logger) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 42) + banner.ColorReset

	fmt.Fprintf(os.Stderr, "\n%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  HKEXDOCS SHUTTING DOWN%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n\n", hr)

	logger.Info().Msg("Application shutting down")
}
