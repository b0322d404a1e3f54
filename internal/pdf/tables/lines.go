package tables

import (
	"math"
	"sort"

	"github.com/a3tai/pdf2json/internal/pdf/layout"
)

// segment is a horizontal or vertical ruling. For horizontal segments Pos is
// the y coordinate and Start/End the x range; for vertical ones the reverse.
type segment struct {
	Horizontal bool
	Pos        float64
	Start      float64
	End        float64
}

func (s segment) length() float64 { return s.End - s.Start }

// LinesDetector builds tables from grids of ruling lines
type LinesDetector struct {
	config Config
}

// NewLinesDetector creates a ruling line detector
func NewLinesDetector(config Config) *LinesDetector {
	return &LinesDetector{config: config}
}

// Name returns the detector name
func (d *LinesDetector) Name() string {
	return StrategyLines
}

// Find groups connected rulings into grids and returns one table per grid
// with at least one row, one column and MinCells cells
func (d *LinesDetector) Find(page *PageContent) []*Table {
	segments := d.segments(page.Rulings)
	if len(segments) == 0 {
		return nil
	}

	var tables []*Table
	for _, group := range d.connect(segments) {
		var xs, ys []float64
		for _, s := range group {
			if s.Horizontal {
				ys = append(ys, s.Pos)
			} else {
				xs = append(xs, s.Pos)
			}
		}
		cols := snap(xs, d.config.SnapTolerance)
		rows := snap(ys, d.config.SnapTolerance)
		if len(rows) < 2 || len(cols) < 2 {
			continue
		}
		if (len(rows)-1)*(len(cols)-1) < d.config.MinCells {
			continue
		}

		bbox := layout.BBox{X0: cols[0], Y0: rows[0], X1: cols[len(cols)-1], Y1: rows[len(rows)-1]}
		tables = append(tables, &Table{
			BBox:     bbox,
			Rows:     rows,
			Cols:     cols,
			chars:    charsWithin(page, bbox),
			analyzer: page.layoutAnalyzer(),
		})
	}

	return sortTables(tables)
}

// segments turns ruling rectangles into line segments. Thin rectangles are
// one line; wider rectangles contribute their four edges.
func (d *LinesDetector) segments(rulings []layout.BBox) []segment {
	thick := d.config.MaxRulingThickness
	var out []segment
	add := func(s segment) {
		if s.length() >= d.config.MinRulingLength {
			out = append(out, s)
		}
	}

	for _, r := range rulings {
		w, h := r.Width(), r.Height()
		switch {
		case w <= thick && h <= thick:
			// dot
		case h <= thick:
			add(segment{Horizontal: true, Pos: (r.Y0 + r.Y1) / 2, Start: r.X0, End: r.X1})
		case w <= thick:
			add(segment{Horizontal: false, Pos: (r.X0 + r.X1) / 2, Start: r.Y0, End: r.Y1})
		default:
			add(segment{Horizontal: true, Pos: r.Y0, Start: r.X0, End: r.X1})
			add(segment{Horizontal: true, Pos: r.Y1, Start: r.X0, End: r.X1})
			add(segment{Horizontal: false, Pos: r.X0, Start: r.Y0, End: r.Y1})
			add(segment{Horizontal: false, Pos: r.X1, Start: r.Y0, End: r.Y1})
		}
	}
	return out
}

// connect clusters segments that touch within the snap tolerance
func (d *LinesDetector) connect(segments []segment) [][]segment {
	parent := make([]int, len(segments))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	tol := d.config.SnapTolerance
	for i := range segments {
		for j := i + 1; j < len(segments); j++ {
			if touches(segments[i], segments[j], tol) {
				parent[find(i)] = find(j)
			}
		}
	}

	groups := make(map[int][]segment)
	var roots []int
	for i, s := range segments {
		root := find(i)
		if _, ok := groups[root]; !ok {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], s)
	}

	out := make([][]segment, 0, len(roots))
	for _, root := range roots {
		out = append(out, groups[root])
	}
	return out
}

func touches(a, b segment, tol float64) bool {
	if a.Horizontal == b.Horizontal {
		return math.Abs(a.Pos-b.Pos) <= tol && a.Start <= b.End+tol && b.Start <= a.End+tol
	}
	// perpendicular: a's position must fall on b's range and the reverse
	return a.Pos >= b.Start-tol && a.Pos <= b.End+tol && b.Pos >= a.Start-tol && b.Pos <= a.End+tol
}

// snap sorts values and merges runs closer than tol into their mean
func snap(values []float64, tol float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var out []float64
	sum, n := sorted[0], 1
	for _, v := range sorted[1:] {
		if v-sum/float64(n) <= tol {
			sum += v
			n++
			continue
		}
		out = append(out, sum/float64(n))
		sum, n = v, 1
	}
	return append(out, sum/float64(n))
}

func charsWithin(page *PageContent, bbox layout.BBox) []layout.Char {
	analyzer := page.layoutAnalyzer()
	var chars []layout.Char
	for _, c := range page.Chars {
		if x, y := analyzer.CharBox(c).Center(); bbox.Contains(x, y) {
			chars = append(chars, c)
		}
	}
	return chars
}
