package pdfcache

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxFilenameBytes keeps names well under the common 255-byte NAME_MAX
// while leaving room for temp and derived suffixes.
const DefaultMaxFilenameBytes = 200

// ellipsis marks truncation. A single glyph, never "..", so truncated
// names cannot trip path traversal checks.
const ellipsis = "…"

var (
	unsafeChars = regexp.MustCompile(`[/\\:*?"<>|]`)
	dashRuns    = regexp.MustCompile(`-{2,}`)
)

// SanitizeFilename makes raw safe to use as a single path element and bounds
// its UTF-8 length to maxBytes. The result is deterministic and always valid UTF-8.
func SanitizeFilename(raw string, maxBytes int) string {
	name := strings.ToValidUTF8(raw, "")
	name = unsafeChars.ReplaceAllString(name, "-")
	name = dashRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	if len(name) <= maxBytes {
		return name
	}
	if maxBytes < len(ellipsis) {
		return truncateBytes(name, maxBytes)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	budget := maxBytes - len(ext) - len(ellipsis)
	if budget <= 0 {
		// extension alone does not fit
		ext = ""
		budget = maxBytes - len(ellipsis)
	}

	return truncateBytes(stem, budget) + ellipsis + ext
}

// truncateBytes cuts s to at most n bytes without splitting a rune
func truncateBytes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
