package tables

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/a3tai/pdf2json/internal/pdf/layout"
)

// textCell is a run of glyphs on one row separated from its neighbours by a column gap
type textCell struct {
	X0, X1 float64
}

// textRow is a group of glyphs sharing a baseline
type textRow struct {
	Baseline float64
	Top      float64
	Bottom   float64
	Cells    []textCell
}

// TextDetector infers tables from glyph alignment on pages without rulings
type TextDetector struct {
	config Config
}

// NewTextDetector creates a text alignment detector
func NewTextDetector(config Config) *TextDetector {
	return &TextDetector{config: config}
}

// Name returns the detector name
func (d *TextDetector) Name() string {
	return StrategyText
}

// Find splits the page into rows by baseline and reports every run of
// consecutive multi-column rows that agrees on its column count
func (d *TextDetector) Find(page *PageContent) []*Table {
	analyzer := page.layoutAnalyzer()
	rows := d.rows(page.Chars, analyzer)

	var tables []*Table
	start := -1
	flush := func(end int) {
		if start >= 0 {
			if t := d.table(rows[start:end], page); t != nil {
				tables = append(tables, t)
			}
		}
		start = -1
	}
	for i, r := range rows {
		if len(r.Cells) >= d.config.MinCols {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(rows))

	return sortTables(tables)
}

// rows groups chars by baseline, top to bottom, and splits each row into cells
func (d *TextDetector) rows(chars []layout.Char, analyzer *layout.Analyzer) []textRow {
	if len(chars) == 0 {
		return nil
	}
	sorted := append([]layout.Char(nil), chars...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Baseline < sorted[j].Baseline
	})

	lineTol := analyzer.Config().LineTolerance
	var groups [][]layout.Char
	for _, c := range sorted {
		if n := len(groups); n > 0 {
			first := groups[n-1][0]
			if math.Abs(c.Baseline-first.Baseline) <= lineTol*math.Min(c.Size, first.Size) {
				groups[n-1] = append(groups[n-1], c)
				continue
			}
		}
		groups = append(groups, []layout.Char{c})
	}

	rows := make([]textRow, 0, len(groups))
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].X < g[j].X })

		row := textRow{Baseline: g[0].Baseline, Top: math.Inf(1), Bottom: math.Inf(-1)}
		var cur *textCell
		for _, c := range g {
			box := analyzer.CharBox(c)
			row.Top = math.Min(row.Top, box.Y0)
			row.Bottom = math.Max(row.Bottom, box.Y1)
			if isBlank(c.Text) {
				continue
			}
			if cur != nil && box.X0-cur.X1 < d.config.ColumnGap*c.Size {
				cur.X1 = math.Max(cur.X1, box.X1)
				continue
			}
			row.Cells = append(row.Cells, textCell{X0: box.X0, X1: box.X1})
			cur = &row.Cells[len(row.Cells)-1]
		}
		rows = append(rows, row)
	}
	return rows
}

// table builds a grid from a run of rows, or returns nil when the rows do
// not agree on a column count
func (d *TextDetector) table(rows []textRow, page *PageContent) *Table {
	if len(rows) < d.config.MinRows {
		return nil
	}

	counts := make(map[int]int)
	mode := 0
	for _, r := range rows {
		counts[len(r.Cells)]++
		if c := counts[len(r.Cells)]; c > counts[mode] || (c == counts[mode] && len(r.Cells) > mode) {
			mode = len(r.Cells)
		}
	}
	if counts[mode] < d.config.MinRows || float64(counts[mode]) < d.config.RowConsistency*float64(len(rows)) {
		return nil
	}

	// column extents from the rows that have the agreed number of cells
	starts := make([]float64, mode)
	ends := make([]float64, mode)
	for i := range starts {
		starts[i], ends[i] = math.Inf(1), math.Inf(-1)
	}
	for _, r := range rows {
		if len(r.Cells) != mode {
			continue
		}
		for i, c := range r.Cells {
			starts[i] = math.Min(starts[i], c.X0)
			ends[i] = math.Max(ends[i], c.X1)
		}
	}
	for i := 1; i < mode; i++ {
		if starts[i] <= ends[i-1] {
			// columns overlap between rows, this is not a grid
			return nil
		}
	}

	cols := []float64{starts[0]}
	for i := 1; i < mode; i++ {
		cols = append(cols, (ends[i-1]+starts[i])/2)
	}
	cols = append(cols, ends[mode-1])

	bounds := []float64{rows[0].Top}
	for i := 1; i < len(rows); i++ {
		bounds = append(bounds, (rows[i-1].Bottom+rows[i].Top)/2)
	}
	bounds = append(bounds, rows[len(rows)-1].Bottom)

	bbox := layout.BBox{X0: cols[0], Y0: bounds[0], X1: cols[len(cols)-1], Y1: bounds[len(bounds)-1]}
	return &Table{
		BBox:     bbox,
		Rows:     bounds,
		Cols:     cols,
		chars:    charsWithin(page, bbox),
		analyzer: page.layoutAnalyzer(),
	}
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}
