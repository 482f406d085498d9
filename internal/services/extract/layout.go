package extract

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// rowTolerance is how far apart two baselines may be and still share a row
const rowTolerance = 2.0

type cell struct {
	text string
	x    float64
}

type row struct {
	y     float64
	cells []cell
}

// layoutRows groups positioned glyphs into visual rows, top of page first,
// and splits each row into cells on wide horizontal gaps.
func layoutRows(glyphs []pdf.Text) []row {
	if len(glyphs) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			sorted = append(sorted, g)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var rows []row
	var line []pdf.Text
	flush := func() {
		if len(line) == 0 {
			return
		}
		sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })
		if r := splitCells(line); len(r.cells) > 0 {
			rows = append(rows, r)
		}
		line = nil
	}
	for _, g := range sorted {
		if len(line) > 0 && math.Abs(line[0].Y-g.Y) > rowTolerance {
			flush()
		}
		line = append(line, g)
	}
	flush()
	return rows
}

func splitCells(line []pdf.Text) row {
	r := row{y: line[0].Y}
	var sb strings.Builder
	startX := line[0].X

	emit := func() {
		if text := strings.Join(strings.Fields(sb.String()), " "); text != "" {
			r.cells = append(r.cells, cell{text: text, x: startX})
		}
		sb.Reset()
	}

	for i, g := range line {
		if i > 0 {
			prev := line[i-1]
			gap := g.X - (prev.X + prev.W)
			size := math.Max(prev.FontSize, g.FontSize)
			switch {
			case gap > math.Max(size, 6):
				emit()
				startX = g.X
			case gap > 0.15*size:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.S)
	}
	emit()
	return r
}

// renderText prints rows as lines, cells separated by a single space
func renderText(rows []row) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		parts := make([]string, len(r.cells))
		for i, c := range r.cells {
			parts[i] = c.text
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

// detectTables returns runs of at least two consecutive multi-cell rows
func detectTables(rows []row) [][][]string {
	var tables [][][]string
	var current [][]string

	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, current)
		}
		current = nil
	}

	for _, r := range rows {
		if len(r.cells) < 2 {
			flush()
			continue
		}
		cells := make([]string, len(r.cells))
		for i, c := range r.cells {
			cells[i] = c.text
		}
		current = append(current, cells)
	}
	flush()
	return tables
}

// maxFontSize is the largest glyph size on the page
func maxFontSize(glyphs []pdf.Text) float64 {
	max := 0.0
	for _, g := range glyphs {
		if strings.TrimSpace(g.S) != "" && g.FontSize > max {
			max = g.FontSize
		}
	}
	return max
}
