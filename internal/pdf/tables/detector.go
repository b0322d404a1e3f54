// Package tables finds tables on an analyzed page and extracts their cells.
//
// Two detectors are available. "lines" builds grids from ruling lines drawn
// on the page and is the default. "text" infers columns from whitespace
// between aligned glyph runs on unruled pages. Both produce a Table with row
// and column boundaries in text space; Extract assigns glyphs to cells.
package tables

import (
	"fmt"
	"sort"

	"github.com/a3tai/pdf2json/internal/pdf/layout"
	"github.com/a3tai/pdf2json/internal/pdf/wrapper"
)

// Detector is the interface for table detection algorithms
type Detector interface {
	// Name returns the detector name
	Name() string

	// Find returns the tables of a page, top to bottom
	Find(page *PageContent) []*Table
}

// Config holds detector configuration
type Config struct {
	// SnapTolerance merges ruling coordinates closer than this (points)
	SnapTolerance float64

	// MaxRulingThickness is the largest extent of a rectangle treated as a single line (points)
	MaxRulingThickness float64

	// MinRulingLength drops shorter ruling segments (points)
	MinRulingLength float64

	// MinCells is the smallest number of cells a ruled grid needs
	MinCells int

	// MinRows and MinCols bound tables found from text alignment
	MinRows int
	MinCols int

	// RowConsistency is the share of rows that must agree on the column count
	RowConsistency float64

	// ColumnGap is the smallest gap between columns, relative to the glyph size
	ColumnGap float64
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		SnapTolerance:      3.0,
		MaxRulingThickness: 2.0,
		MinRulingLength:    3.0,
		MinCells:           2,
		MinRows:            2,
		MinCols:            2,
		RowConsistency:     0.6,
		ColumnGap:          1.5,
	}
}

// PageContent is what detectors look at, in text space
type PageContent struct {
	Chars   []layout.Char
	Rulings []layout.BBox

	analyzer *layout.Analyzer
}

// NewPageContent collects the glyphs of an analyzed page and converts the
// ruling rectangles into text space
func NewPageContent(page *layout.Page, rulings []wrapper.Rectangle, analyzer *layout.Analyzer) *PageContent {
	pc := &PageContent{
		Chars:    page.Chars,
		Rulings:  make([]layout.BBox, 0, len(rulings)),
		analyzer: analyzer,
	}
	for _, r := range rulings {
		pc.Rulings = append(pc.Rulings, page.Frame.Rect(r))
	}
	return pc
}

func (pc *PageContent) layoutAnalyzer() *layout.Analyzer {
	if pc.analyzer == nil {
		pc.analyzer = layout.NewAnalyzer()
	}
	return pc.analyzer
}

// Table is a detected grid. Rows and Cols hold the cell boundaries in text
// space, ascending; a table with n rows has n+1 row boundaries.
type Table struct {
	Index int
	BBox  layout.BBox
	Rows  []float64
	Cols  []float64

	chars    []layout.Char
	analyzer *layout.Analyzer
}

// RowCount returns the number of rows of the grid
func (t *Table) RowCount() int {
	return max(len(t.Rows)-1, 0)
}

// ColCount returns the number of columns of the grid
func (t *Table) ColCount() int {
	return max(len(t.Cols)-1, 0)
}

// Extract returns the cell texts row by row, top to bottom. Glyphs are
// assigned to the cell containing their center; lines inside a cell are
// joined with a newline.
func (t *Table) Extract() ([][]string, error) {
	rows, cols := t.RowCount(), t.ColCount()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("degenerate table grid: %d rows, %d columns", rows, cols)
	}
	analyzer := t.analyzer
	if analyzer == nil {
		analyzer = layout.NewAnalyzer()
	}

	cells := make([][]layout.Char, rows*cols)
	for _, c := range t.chars {
		x, y := analyzer.CharBox(c).Center()
		r := locate(t.Rows, y)
		col := locate(t.Cols, x)
		if r < 0 || col < 0 {
			continue
		}
		cells[r*cols+col] = append(cells[r*cols+col], c)
	}

	out := make([][]string, rows)
	for r := 0; r < rows; r++ {
		out[r] = make([]string, cols)
		for col := 0; col < cols; col++ {
			out[r][col] = analyzer.Text(cells[r*cols+col])
		}
	}
	return out, nil
}

// locate returns the interval of bounds containing v, or -1
func locate(bounds []float64, v float64) int {
	if len(bounds) < 2 || v < bounds[0] || v > bounds[len(bounds)-1] {
		return -1
	}
	i := sort.SearchFloat64s(bounds, v)
	switch {
	case i == 0:
		return 0
	case i >= len(bounds):
		return len(bounds) - 2
	default:
		return i - 1
	}
}

// sortTables orders tables top to bottom, then left to right, and numbers them
func sortTables(tables []*Table) []*Table {
	sort.SliceStable(tables, func(i, j int) bool {
		if tables[i].BBox.Y0 != tables[j].BBox.Y0 {
			return tables[i].BBox.Y0 < tables[j].BBox.Y0
		}
		return tables[i].BBox.X0 < tables[j].BBox.X0
	})
	for i, t := range tables {
		t.Index = i
	}
	return tables
}

// DetectorRegistry holds registered detectors
type DetectorRegistry struct {
	detectors map[string]Detector
}

// NewRegistry creates a new detector registry
func NewRegistry() *DetectorRegistry {
	return &DetectorRegistry{
		detectors: make(map[string]Detector),
	}
}

// Register registers a detector
func (r *DetectorRegistry) Register(detector Detector) {
	r.detectors[detector.Name()] = detector
}

// Get retrieves a detector by name
func (r *DetectorRegistry) Get(name string) (Detector, error) {
	d, ok := r.detectors[name]
	if !ok {
		return nil, fmt.Errorf("unknown table strategy %q (available: %v)", name, r.List())
	}
	return d, nil
}

// List returns all registered detector names, sorted
func (r *DetectorRegistry) List() []string {
	names := make([]string, 0, len(r.detectors))
	for name := range r.detectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultStrategy is the detector used when none is configured
const DefaultStrategy = StrategyLines

// Detector names
const (
	StrategyLines = "lines"
	StrategyText  = "text"
)

// NewDefaultRegistry returns a registry holding both detectors with the given configuration
func NewDefaultRegistry(config Config) *DetectorRegistry {
	r := NewRegistry()
	r.Register(NewLinesDetector(config))
	r.Register(NewTextDetector(config))
	return r
}

// Strategies lists the names accepted by NewDefaultRegistry().Get
func Strategies() []string {
	return []string{StrategyLines, StrategyText}
}
