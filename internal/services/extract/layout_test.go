package extract

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
)

// glyphs spreads s one character at a time from x, each w points wide
func glyphs(s string, x, y, size, w float64) []pdf.Text {
	var out []pdf.Text
	for _, r := range s {
		out = append(out, pdf.Text{Font: "Helvetica", FontSize: size, X: x, Y: y, W: w, S: string(r)})
		x += w
	}
	return out
}

func TestLayoutRows_GroupsByBaselineAndSplitsCells(t *testing.T) {
	var in []pdf.Text
	// shuffled input order: lower row first
	in = append(in, glyphs("Revenue", 72, 585, 10, 5)...)
	in = append(in, glyphs("1,000", 200, 585.5, 10, 5)...)
	in = append(in, glyphs("Item", 72, 600, 10, 5)...)
	in = append(in, glyphs("FY2024", 200, 600, 10, 5)...)

	rows := layoutRows(in)
	assert.Len(t, rows, 2)
	assert.Equal(t, "Item FY2024\nRevenue 1,000", renderText(rows))
	assert.Equal(t, [][][]string{{{"Item", "FY2024"}, {"Revenue", "1,000"}}}, detectTables(rows))
}

func TestSplitCells_WordGapInsertsSpace(t *testing.T) {
	// a 3pt gap at 10pt is a word gap, not a column gap
	line := append(glyphs("Net", 72, 500, 10, 5), glyphs("profit", 90, 500, 10, 5)...)
	r := splitCells(line)
	assert.Len(t, r.cells, 1)
	assert.Equal(t, "Net profit", r.cells[0].text)
}

func TestDetectTables_SingleRowIsNotATable(t *testing.T) {
	rows := []row{
		{cells: []cell{{text: "a"}, {text: "b"}}},
		{cells: []cell{{text: "paragraph"}}},
		{cells: []cell{{text: "c"}, {text: "d"}}},
	}
	assert.Empty(t, detectTables(rows))
}

func TestMaxFontSize_IgnoresWhitespace(t *testing.T) {
	in := []pdf.Text{{FontSize: 30, S: " "}, {FontSize: 11, S: "x"}}
	assert.Equal(t, 11.0, maxFontSize(in))
}
