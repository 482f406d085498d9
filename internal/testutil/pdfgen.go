// Package testutil builds small but real PDF documents for tests
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Text is one run of text placed at (X, Y) in points, origin bottom-left
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// Page is an ordered list of text runs. A page with no runs gets a
// single stroked line so it has content but no text.
type Page []Text

// TableRows lays out rows of cells starting at (x0, y0), one row every
// lineHeight points down, cells at the given column offsets.
func TableRows(x0, y0, lineHeight, size float64, columns []float64, rows [][]string) Page {
	var p Page
	for r, cells := range rows {
		for c, s := range cells {
			p = append(p, Text{X: x0 + columns[c], Y: y0 - float64(r)*lineHeight, Size: size, S: s})
		}
	}
	return p
}

// BuildPDF renders pages into a PDF 1.4 file using Helvetica with explicit widths.
func BuildPDF(pages ...Page) []byte {
	var objects []string

	// 1 catalog, 2 page tree, 3 font, then page/content pairs
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		fontObject(),
	)

	for i, p := range pages {
		content := contentStream(p)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// WritePDF builds a PDF and writes it to dir/name, returning the path
func WritePDF(t testing.TB, dir, name string, pages ...Page) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, BuildPDF(pages...), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func fontObject() string {
	widths := make([]string, 95)
	for i := range widths {
		widths[i] = "556"
	}
	return fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>", strings.Join(widths, " "))
}

func contentStream(p Page) string {
	if len(p) == 0 {
		return "0.5 w 72 72 m 540 72 l S"
	}
	var sb strings.Builder
	for _, t := range p {
		fmt.Fprintf(&sb, "BT /F1 %g Tf %g %g Td (%s) Tj ET\n", t.Size, t.X, t.Y, escape(t.S))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
