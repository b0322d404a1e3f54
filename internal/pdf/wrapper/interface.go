package wrapper

import (
	"fmt"
)

// PDFLibrary defines the interface the converter uses to open documents
type PDFLibrary interface {
	OpenFile(path string) (PDFDocument, error)
	Validate() error
	Close() error

	// Library identification
	GetLibraryType() LibraryType
	GetVersion() string
}

// PDFDocument represents an open PDF document
type PDFDocument interface {
	GetPageCount() (int, error)
	// GetPage returns the page with the given 1-based number
	GetPage(pageNum int) (PDFPage, error)
	GetMetadata() (*Metadata, error)
	Close() error
}

// PDFPage represents a single page in a PDF document
type PDFPage interface {
	GetSize() (*PageSize, error)
	GetPlainText() (string, error)
	GetGlyphs() ([]Glyph, error)
	GetRulings() ([]Rectangle, error)
}

// MetadataReader reads the document information dictionary of a file
type MetadataReader interface {
	ReadMetadata(path string) (*Metadata, error)
}

// LibraryType represents the underlying PDF library being used
type LibraryType string

const (
	LibraryPDFCPU     LibraryType = "pdfcpu"
	LibraryLedongthuc LibraryType = "ledongthuc"
)

// Metadata contains the document information dictionary entries. Dates are
// kept as the raw PDF date strings.
type Metadata struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Subject      string `json:"subject"`
	Creator      string `json:"creator"`
	Producer     string `json:"producer"`
	CreationDate string `json:"creation_date"`
	ModDate      string `json:"mod_date"`
}

// PageSize describes the visible area of a page. Box is the unrotated
// visible box in PDF user space; Width and Height already account for Rotate.
type PageSize struct {
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Unit   string    `json:"unit"`
	Box    Rectangle `json:"box"`
	Rotate int       `json:"rotate"`
}

// Point represents a coordinate point
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rectangle represents a rectangular area
type Rectangle struct {
	LowerLeft  Point   `json:"lower_left"`
	UpperRight Point   `json:"upper_right"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// NewRectangle builds a normalized rectangle from two corners
func NewRectangle(x0, y0, x1, y1 float64) Rectangle {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return Rectangle{
		LowerLeft:  Point{X: x0, Y: y0},
		UpperRight: Point{X: x1, Y: y1},
		Width:      x1 - x0,
		Height:     y1 - y0,
	}
}

// Glyph is one shown character in content-stream order. X and Y are the
// baseline origin in PDF user space.
type Glyph struct {
	Text  string  `json:"text"`
	Font  string  `json:"font"`
	Size  float64 `json:"size"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
}

// Error types for wrapper operations
type WrapperError struct {
	Library LibraryType `json:"library"`
	Op      string      `json:"operation"`
	Err     error       `json:"error"`
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("PDF %s library error in %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

// ErrDocumentClosed is reported by operations on a closed library or document
var ErrDocumentClosed = &WrapperError{Op: "document", Err: fmt.Errorf("document is closed")}
