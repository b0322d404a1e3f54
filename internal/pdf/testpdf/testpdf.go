// Package testpdf builds small, well-formed PDF files for tests. Offsets in
// the cross-reference table are computed from the written bytes so both
// ledongthuc/pdf and pdfcpu accept the output.
package testpdf

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Font resource names available to every page
const (
	FontRegular = "F1" // Helvetica
	FontBold    = "F2" // Helvetica-Bold
	FontMono    = "F3" // Courier
)

// Glyph advance widths in 1/1000 text space units
const (
	helveticaWidth = 500
	courierWidth   = 600
)

var fonts = []struct {
	res      string
	baseFont string
	width    int
}{
	{FontRegular, "Helvetica", helveticaWidth},
	{FontBold, "Helvetica-Bold", helveticaWidth},
	{FontMono, "Courier", courierWidth},
}

// Text is a single text show operation at an absolute position
type Text struct {
	Font string // resource name, defaults to FontRegular
	Size float64
	X, Y float64
	S    string
}

// Rect is a filled rectangle; thin rectangles act as ruling lines
type Rect struct {
	X, Y, W, H float64
}

// Page describes one page of the generated document
type Page struct {
	MediaBox []float64 // defaults to US Letter unless the document sets one
	CropBox  []float64
	Rotate   int
	Texts    []Text
	Rects    []Rect
	// RectCTM, when it has six entries, is applied with cm to the rectangles
	RectCTM []float64
	// Raw is appended verbatim to the content stream
	Raw string
}

// Document describes the whole generated file
type Document struct {
	// Info entries such as Title or Author; empty means no Info dictionary
	Info map[string]string
	// MediaBox set on the page tree root and inherited by pages without one
	MediaBox []float64
	Pages    []Page
}

// WidthOf returns the advance width of s in points for the given font and size
func WidthOf(font string, size float64, s string) float64 {
	w := helveticaWidth
	if font == FontMono {
		w = courierWidth
	}
	return float64(len(s)*w) / 1000 * size
}

// Bytes renders the document as a PDF file
func (d Document) Bytes() []byte {
	var objects []string

	// 1: catalog, 2: page tree, 3..5: fonts, then page/content pairs, then info
	fontBase := 3
	pageBase := fontBase + len(fonts)
	infoNum := pageBase + 2*len(d.Pages)

	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(d.Pages))
	for i := range d.Pages {
		kids[i] = fmt.Sprintf("%d 0 R", pageBase+2*i)
	}
	pages := fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d", strings.Join(kids, " "), len(d.Pages))
	if len(d.MediaBox) == 4 {
		pages += " /MediaBox " + box(d.MediaBox)
	}
	objects = append(objects, pages+" >>")

	for _, f := range fonts {
		widths := make([]string, 0, 95)
		for c := 32; c <= 126; c++ {
			widths = append(widths, fmt.Sprint(f.width))
		}
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>",
			f.baseFont, strings.Join(widths, " ")))
	}

	fontDict := make([]string, len(fonts))
	for i, f := range fonts {
		fontDict[i] = fmt.Sprintf("/%s %d 0 R", f.res, fontBase+i)
	}

	for i, p := range d.Pages {
		page := fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << /Font << %s >> >> /Contents %d 0 R",
			strings.Join(fontDict, " "), pageBase+2*i+1)
		switch {
		case len(p.MediaBox) == 4:
			page += " /MediaBox " + box(p.MediaBox)
		case len(d.MediaBox) != 4:
			page += " /MediaBox [0 0 612 792]"
		}
		if len(p.CropBox) == 4 {
			page += " /CropBox " + box(p.CropBox)
		}
		if p.Rotate != 0 {
			page += fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		objects = append(objects, page+" >>")

		content := p.content()
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	if len(d.Info) > 0 {
		keys := make([]string, 0, len(d.Info))
		for k := range d.Info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]string, len(keys))
		for i, k := range keys {
			entries[i] = fmt.Sprintf("/%s (%s)", k, escape(d.Info[k]))
		}
		objects = append(objects, "<< "+strings.Join(entries, " ")+" >>")
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
	trailer := fmt.Sprintf("<< /Size %d /Root 1 0 R", len(objects)+1)
	if len(d.Info) > 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", infoNum)
	}
	fmt.Fprintf(&buf, "trailer\n%s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)

	return buf.Bytes()
}

// WriteFile renders the document into path
func (d Document) WriteFile(path string) error {
	return os.WriteFile(path, d.Bytes(), 0o600)
}

// WriteRaw writes arbitrary bytes, for malformed-input tests
func WriteRaw(path string, b []byte) error {
	return os.WriteFile(path, b, 0o600)
}

func (p Page) content() string {
	var b strings.Builder
	transformed := len(p.RectCTM) == 6
	if transformed {
		fmt.Fprintf(&b, "q %s cm\n", strings.Trim(box(p.RectCTM), "[]"))
	}
	for _, r := range p.Rects {
		fmt.Fprintf(&b, "%s %s %s %s re f\n", num(r.X), num(r.Y), num(r.W), num(r.H))
	}
	if transformed {
		b.WriteString("Q\n")
	}
	for _, t := range p.Texts {
		font := t.Font
		if font == "" {
			font = FontRegular
		}
		size := t.Size
		if size == 0 {
			size = 12
		}
		fmt.Fprintf(&b, "BT /%s %s Tf 1 0 0 1 %s %s Tm (%s) Tj ET\n", font, num(size), num(t.X), num(t.Y), escape(t.S))
	}
	b.WriteString(p.Raw)
	return b.String()
}

// Grid returns the ruling rectangles of a table with the given row and column
// boundaries; xs and ys must be sorted ascending.
func Grid(xs, ys []float64, thickness float64) []Rect {
	var rects []Rect
	left, right := xs[0], xs[len(xs)-1]
	bottom, top := ys[0], ys[len(ys)-1]
	for _, y := range ys {
		rects = append(rects, Rect{X: left, Y: y, W: right - left, H: thickness})
	}
	for _, x := range xs {
		rects = append(rects, Rect{X: x, Y: bottom, W: thickness, H: top - bottom})
	}
	return rects
}

func box(b []float64) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = num(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func num(v float64) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
	if s == "" || s == "-" || s == "-0" {
		return "0"
	}
	return s
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
