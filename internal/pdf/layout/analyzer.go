package layout

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/a3tai/pdf2json/internal/pdf/wrapper"
)

// Config holds the grouping thresholds. Unless noted otherwise values are
// multiples of the glyph size.
type Config struct {
	// SizeTolerance is the largest size difference, in points, within one span
	SizeTolerance float64

	// BaselineTolerance is the baseline drift allowed within one span
	BaselineTolerance float64

	// MinGap and MaxGap bound the horizontal gap between consecutive glyphs of a span
	MinGap float64
	MaxGap float64

	// SpaceGap is the gap above which a space is inserted between glyphs
	SpaceGap float64

	// LineTolerance is the baseline difference allowed between spans of a line,
	// relative to the smaller span size
	LineTolerance float64

	// BlockGap is the largest baseline distance between lines of a block,
	// relative to the height of the previous line
	BlockGap float64

	// BlockIndent is how far a line may start from the block's left edge when
	// it does not overlap the block horizontally
	BlockIndent float64

	// Ascent and Descent place the glyph box around the baseline
	Ascent  float64
	Descent float64

	// CharWidth is the box width used for glyphs the font reports no width for
	CharWidth float64
}

// DefaultConfig returns the thresholds used by the converter
func DefaultConfig() Config {
	return Config{
		SizeTolerance:     0.01,
		BaselineTolerance: 0.2,
		MinGap:            -0.5,
		MaxGap:            3.0,
		SpaceGap:          0.15,
		LineTolerance:     0.5,
		BlockGap:          2.0,
		BlockIndent:       1.0,
		Ascent:            0.8,
		Descent:           0.2,
		CharWidth:         0.5,
	}
}

// Char is a glyph in text space
type Char struct {
	Text     string
	Font     string
	Size     float64
	X        float64 // origin of the glyph on the baseline
	Baseline float64
	Width    float64 // advance width, zero when the font does not report one
}

// Span is a run of glyphs sharing font and size on one baseline
type Span struct {
	Text     string
	Font     string
	Size     float64
	BBox     BBox
	Baseline float64

	// end is where the advance of the last glyph stops
	end float64
}

// Line is a left-to-right sequence of spans on one baseline
type Line struct {
	Spans    []Span
	BBox     BBox
	Baseline float64
	// Size is the largest span size on the line
	Size float64
}

// Block is a run of vertically adjacent lines
type Block struct {
	Lines []Line
	BBox  BBox
}

// Page is the analyzed layout of a single page
type Page struct {
	Frame  Frame
	Chars  []Char
	Blocks []Block
}

// Spans returns all spans in block, line and span order
func (p *Page) Spans() []Span {
	var spans []Span
	for _, b := range p.Blocks {
		for _, l := range b.Lines {
			spans = append(spans, l.Spans...)
		}
	}
	return spans
}

// Analyzer groups glyphs into spans, lines and blocks
type Analyzer struct {
	config Config
}

// NewAnalyzer creates an analyzer with default configuration
func NewAnalyzer() *Analyzer {
	return &Analyzer{config: DefaultConfig()}
}

// NewAnalyzerWithConfig creates an analyzer with custom configuration
func NewAnalyzerWithConfig(config Config) *Analyzer {
	return &Analyzer{config: config}
}

// Config returns the analyzer configuration
func (a *Analyzer) Config() Config {
	return a.config
}

// Analyze runs the full grouping for one page. Glyphs are expected in
// content-stream order.
func (a *Analyzer) Analyze(glyphs []wrapper.Glyph, frame Frame) *Page {
	chars := a.Chars(glyphs, frame)
	return &Page{
		Frame:  frame,
		Chars:  chars,
		Blocks: a.Blocks(a.Lines(a.Spans(chars))),
	}
}

// Chars converts glyphs to text space, dropping control characters and
// glyphs without a usable size or with non-finite geometry
func (a *Analyzer) Chars(glyphs []wrapper.Glyph, frame Frame) []Char {
	chars := make([]Char, 0, len(glyphs))
	for _, g := range glyphs {
		text := strings.Map(func(r rune) rune {
			if unicode.IsControl(r) {
				return -1
			}
			return r
		}, g.Text)
		size := math.Abs(g.Size)
		if text == "" || size == 0 || !finite(size, g.X, g.Y, g.Width) {
			continue
		}
		x, y := frame.Point(g.X, g.Y)
		chars = append(chars, Char{
			Text:     text,
			Font:     g.Font,
			Size:     size,
			X:        x,
			Baseline: y,
			Width:    math.Abs(g.Width),
		})
	}
	return chars
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CharBox returns the box of a glyph in text space
func (a *Analyzer) CharBox(c Char) BBox {
	w := c.Width
	if w == 0 {
		w = a.config.CharWidth * c.Size
	}
	return BBox{
		X0: c.X,
		Y0: c.Baseline - a.config.Ascent*c.Size,
		X1: c.X + w,
		Y1: c.Baseline + a.config.Descent*c.Size,
	}
}

// Spans merges consecutive chars with the same style into spans
func (a *Analyzer) Spans(chars []Char) []Span {
	var spans []Span
	for _, c := range chars {
		if n := len(spans); n > 0 && a.continuesSpan(&spans[n-1], c) {
			cur := &spans[n-1]
			if c.X-cur.end > a.config.SpaceGap*c.Size && !endsWithSpace(cur.Text) && strings.TrimSpace(c.Text) != "" {
				cur.Text += " "
			}
			cur.Text += c.Text
			cur.end = c.X + c.Width
			cur.BBox = cur.BBox.Union(a.CharBox(c))
			continue
		}
		spans = append(spans, Span{
			Text:     c.Text,
			Font:     c.Font,
			Size:     c.Size,
			BBox:     a.CharBox(c),
			Baseline: c.Baseline,
			end:      c.X + c.Width,
		})
	}
	return spans
}

func (a *Analyzer) continuesSpan(s *Span, c Char) bool {
	if c.Font != s.Font || math.Abs(c.Size-s.Size) > a.config.SizeTolerance {
		return false
	}
	if math.Abs(c.Baseline-s.Baseline) > a.config.BaselineTolerance*c.Size {
		return false
	}
	gap := c.X - s.end
	return gap >= a.config.MinGap*c.Size && gap <= a.config.MaxGap*c.Size
}

// Lines joins consecutive spans that share a baseline and move rightwards
func (a *Analyzer) Lines(spans []Span) []Line {
	var lines []Line
	for _, s := range spans {
		if n := len(lines); n > 0 && a.continuesLine(&lines[n-1], s) {
			cur := &lines[n-1]
			cur.Spans = append(cur.Spans, s)
			cur.BBox = cur.BBox.Union(s.BBox)
			cur.Size = math.Max(cur.Size, s.Size)
			continue
		}
		lines = append(lines, Line{
			Spans:    []Span{s},
			BBox:     s.BBox,
			Baseline: s.Baseline,
			Size:     s.Size,
		})
	}
	return lines
}

func (a *Analyzer) continuesLine(l *Line, s Span) bool {
	last := l.Spans[len(l.Spans)-1]
	minSize := math.Min(last.Size, s.Size)
	if math.Abs(s.Baseline-l.Baseline) > a.config.LineTolerance*minSize {
		return false
	}
	return s.BBox.X0 >= last.end+a.config.MinGap*s.Size
}

// Blocks stacks consecutive lines into blocks
func (a *Analyzer) Blocks(lines []Line) []Block {
	var blocks []Block
	for _, l := range lines {
		if n := len(blocks); n > 0 && a.continuesBlock(&blocks[n-1], l) {
			cur := &blocks[n-1]
			cur.Lines = append(cur.Lines, l)
			cur.BBox = cur.BBox.Union(l.BBox)
			continue
		}
		blocks = append(blocks, Block{Lines: []Line{l}, BBox: l.BBox})
	}
	return blocks
}

func (a *Analyzer) continuesBlock(b *Block, l Line) bool {
	prev := b.Lines[len(b.Lines)-1]
	dy := l.Baseline - prev.Baseline
	if dy <= 0 || dy > a.config.BlockGap*prev.BBox.Height() {
		return false
	}
	return l.BBox.OverlapsX(b.BBox) || math.Abs(l.BBox.X0-b.BBox.X0) <= a.config.BlockIndent*l.Size
}

// Text assembles chars into plain text: spans of a line are joined with a
// space when they are visibly apart, lines with a newline
func (a *Analyzer) Text(chars []Char) string {
	lines := a.Lines(a.Spans(chars))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		var b strings.Builder
		for i, s := range l.Spans {
			if i > 0 {
				prev := l.Spans[i-1]
				if s.BBox.X0-prev.end > a.config.SpaceGap*s.Size && !endsWithSpace(prev.Text) {
					b.WriteByte(' ')
				}
			}
			b.WriteString(s.Text)
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			out = append(out, text)
		}
	}
	return strings.Join(out, "\n")
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}
