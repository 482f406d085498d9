package pdfcache

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename_ReplacesUnsafeCharacters(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"slashes", "2024-01-15-Results a/b\\c.pdf", "2024-01-15-Results a-b-c.pdf"},
		{"all unsafe", `x:*?"<>|y.pdf`, "x-y.pdf"},
		{"collapses dashes", "2024-01-15--//--Notice.pdf", "2024-01-15-Notice.pdf"},
		{"trims dashes", "//Notice//", "Notice"},
		{"leaves unicode", "2024-01-15-供股公告.pdf", "2024-01-15-供股公告.pdf"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in, 200))
		})
	}
}

func TestSanitizeFilename_ByteBoundMultibyte(t *testing.T) {
	title := "2024-01-15-" + strings.Repeat("須予披露交易", 40) + ".pdf"
	for _, max := range []int{200, 100, 64, 17, 10, 8, 4, 3, 2, 1} {
		got := SanitizeFilename(title, max)
		assert.LessOrEqual(t, len(got), max, "max=%d", max)
		assert.True(t, utf8.ValidString(got), "max=%d produced invalid utf-8 %q", max, got)
	}
}

func TestSanitizeFilename_TruncationKeepsExtensionAndMarker(t *testing.T) {
	raw := "2024-01-15-" + strings.Repeat("公告", 100) + ".pdf"
	got := SanitizeFilename(raw, 200)

	assert.True(t, strings.HasSuffix(got, "….pdf"), got)
	assert.True(t, strings.HasPrefix(got, "2024-01-15-"))
	assert.NotContains(t, got, "..")
	assert.LessOrEqual(t, len(got), 200)
	// the stem is cut at a rune boundary, so bytes may fall a little short
	assert.GreaterOrEqual(t, len(got), 200-2)
}

func TestSanitizeFilename_ExactFitIsUntouched(t *testing.T) {
	raw := strings.Repeat("a", 196) + ".pdf"
	assert.Equal(t, raw, SanitizeFilename(raw, 200))
}

func TestSanitizeFilename_OversizedExtensionDropped(t *testing.T) {
	raw := "a." + strings.Repeat("x", 50)
	got := SanitizeFilename(raw, 10)
	assert.LessOrEqual(t, len(got), 10)
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestSanitizeFilename_Deterministic(t *testing.T) {
	raw := "2024-03-01-季度報告 / Quarterly: Report?" + strings.Repeat("長", 90) + ".pdf"
	first := SanitizeFilename(raw, 120)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, SanitizeFilename(raw, 120))
	}
}

func TestSanitizeFilename_InvalidInputBytes(t *testing.T) {
	got := SanitizeFilename("bad\xffname.pdf", 200)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "badname.pdf", got)
}
