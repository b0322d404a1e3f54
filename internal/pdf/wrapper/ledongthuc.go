package wrapper

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// US Letter, used when the page tree carries no usable box
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// maxTreeDepth bounds page tree walks so a cyclic /Parent chain terminates
const maxTreeDepth = 32

// LedongthucLibrary implements PDFLibrary using ledongthuc/pdf for page
// content and an optional MetadataReader for the information dictionary
type LedongthucLibrary struct {
	config   FactoryConfig
	metadata MetadataReader
	closed   bool
}

// NewLedongthucLibrary creates a new ledongthuc library wrapper
func NewLedongthucLibrary(config FactoryConfig, metadata MetadataReader) *LedongthucLibrary {
	return &LedongthucLibrary{
		config:   config,
		metadata: metadata,
	}
}

// OpenFile opens a PDF from a file path
func (l *LedongthucLibrary) OpenFile(path string) (doc PDFDocument, err error) {
	if l.closed {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "open_file", Err: ErrDocumentClosed.Err}
	}

	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &WrapperError{Library: LibraryLedongthuc, Op: "open_file", Err: fmt.Errorf("%v", r)}
		}
	}()

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "open_file",
			Err:     fmt.Errorf("failed to open PDF: %w", err),
		}
	}

	return &LedongthucDocument{
		reader:   pdfReader,
		metadata: l.metadata,
		filePath: path,
		file:     f,
	}, nil
}

// Validate checks that the library can parse a minimal document
func (l *LedongthucLibrary) Validate() (err error) {
	if l.closed {
		return &WrapperError{Library: LibraryLedongthuc, Op: "validate", Err: ErrDocumentClosed.Err}
	}

	defer func() {
		if r := recover(); r != nil {
			err = &WrapperError{Library: LibraryLedongthuc, Op: "validate", Err: fmt.Errorf("%v", r)}
		}
	}()

	probe := probeDocument()
	r, err := pdf.NewReader(bytes.NewReader(probe), int64(len(probe)))
	if err != nil {
		return &WrapperError{Library: LibraryLedongthuc, Op: "validate", Err: err}
	}
	if n := r.NumPage(); n != 1 {
		return &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "validate",
			Err:     fmt.Errorf("probe document reports %d pages, expected 1", n),
		}
	}
	return nil
}

// Close closes the library and releases resources
func (l *LedongthucLibrary) Close() error {
	l.closed = true
	return nil
}

// GetLibraryType returns the library type
func (l *LedongthucLibrary) GetLibraryType() LibraryType {
	return LibraryLedongthuc
}

// GetVersion returns the ledongthuc/pdf version
func (l *LedongthucLibrary) GetVersion() string {
	return "ledongthuc/pdf-v0.0.0-20250511090121"
}

// LedongthucDocument implements PDFDocument using ledongthuc/pdf
type LedongthucDocument struct {
	reader   *pdf.Reader
	metadata MetadataReader
	closed   bool
	filePath string
	file     *os.File
}

// GetPageCount returns the number of pages in the document
func (d *LedongthucDocument) GetPageCount() (n int, err error) {
	if d.closed {
		return 0, &WrapperError{Library: LibraryLedongthuc, Op: "get_page_count", Err: ErrDocumentClosed.Err}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &WrapperError{Library: LibraryLedongthuc, Op: "get_page_count", Err: fmt.Errorf("%v", r)}
		}
	}()
	return d.reader.NumPage(), nil
}

// GetPage returns a specific page
func (d *LedongthucDocument) GetPage(pageNum int) (page PDFPage, err error) {
	if d.closed {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "get_page", Err: ErrDocumentClosed.Err}
	}
	defer func() {
		if r := recover(); r != nil {
			page = nil
			err = &WrapperError{Library: LibraryLedongthuc, Op: "get_page", Err: fmt.Errorf("%v", r)}
		}
	}()

	total := d.reader.NumPage()
	if pageNum < 1 || pageNum > total {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "get_page",
			Err:     fmt.Errorf("invalid page number %d (document has %d pages)", pageNum, total),
		}
	}

	p := d.reader.Page(pageNum)
	if p.V.IsNull() {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "get_page",
			Err:     fmt.Errorf("page %d not found in page tree", pageNum),
		}
	}

	return &LedongthucPage{page: p}, nil
}

// GetMetadata reads the information dictionary. ledongthuc/pdf exposes no
// string decoding for it, so the work is delegated to the metadata reader.
func (d *LedongthucDocument) GetMetadata() (*Metadata, error) {
	if d.closed {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "get_metadata", Err: ErrDocumentClosed.Err}
	}
	if d.metadata == nil {
		return &Metadata{}, nil
	}
	return d.metadata.ReadMetadata(d.filePath)
}

// Close closes the document
func (d *LedongthucDocument) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

// LedongthucPage implements PDFPage using ledongthuc/pdf
type LedongthucPage struct {
	page    pdf.Page
	content *pdf.Content
}

// GetSize returns the visible box of the page: CropBox clipped to MediaBox,
// both inherited through the page tree, with Rotate applied to the dimensions
func (p *LedongthucPage) GetSize() (size *PageSize, err error) {
	defer func() {
		if r := recover(); r != nil {
			size = nil
			err = &WrapperError{Library: LibraryLedongthuc, Op: "get_size", Err: fmt.Errorf("%v", r)}
		}
	}()

	box := NewRectangle(0, 0, defaultPageWidth, defaultPageHeight)
	if mediaBox, err := parseBoxValue(p.inherited("MediaBox")); err == nil {
		box = mediaBox
	}
	if cropBox, err := parseBoxValue(p.inherited("CropBox")); err == nil {
		if clipped, ok := intersect(cropBox, box); ok {
			box = clipped
		}
	}

	rotate := normalizeRotation(p.inherited("Rotate").Int64())
	width, height := box.Width, box.Height
	if rotate == 90 || rotate == 270 {
		width, height = height, width
	}

	return &PageSize{
		Width:  width,
		Height: height,
		Unit:   "pt",
		Box:    box,
		Rotate: rotate,
	}, nil
}

// GetPlainText returns the text of the page in content-stream order
func (p *LedongthucPage) GetPlainText() (string, error) {
	text, err := p.page.GetPlainText(nil)
	if err != nil {
		return "", &WrapperError{Library: LibraryLedongthuc, Op: "get_plain_text", Err: err}
	}
	return text, nil
}

// GetGlyphs returns every shown character with its font, size and position
func (p *LedongthucPage) GetGlyphs() ([]Glyph, error) {
	content, err := p.loadContent()
	if err != nil {
		return nil, err
	}

	glyphs := make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, Glyph{
			Text:  t.S,
			Font:  t.Font,
			Size:  t.FontSize,
			X:     t.X,
			Y:     t.Y,
			Width: t.W,
		})
	}
	return glyphs, nil
}

// GetRulings returns the rectangles appended to paths with the re operator,
// mapped through the current transformation matrix into the space glyph
// positions are reported in. Thin rectangles are how most producers draw
// table rules.
func (p *LedongthucPage) GetRulings() (rulings []Rectangle, err error) {
	defer func() {
		if r := recover(); r != nil {
			rulings = nil
			err = &WrapperError{Library: LibraryLedongthuc, Op: "get_rulings", Err: fmt.Errorf("%v", r)}
		}
	}()

	rulings = []Rectangle{}
	contents := p.page.V.Key("Contents")
	if contents.IsNull() {
		return rulings, nil
	}

	ctm := identity
	var saved []matrix
	pdf.Interpret(contents, func(stk *pdf.Stack, op string) {
		args := make([]pdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "q":
			saved = append(saved, ctm)
		case "Q":
			if n := len(saved); n > 0 {
				ctm = saved[n-1]
				saved = saved[:n-1]
			}
		case "cm":
			if len(args) != 6 {
				return
			}
			var m matrix
			for i := range m {
				m[i] = args[i].Float64()
			}
			ctm = m.concat(ctm)
		case "re":
			if len(args) != 4 {
				return
			}
			x, y := args[0].Float64(), args[1].Float64()
			w, h := args[2].Float64(), args[3].Float64()
			rulings = append(rulings, ctm.rect(x, y, x+w, y+h))
		}
	})
	return rulings, nil
}

// loadContent interprets the content stream once per page
func (p *LedongthucPage) loadContent() (content *pdf.Content, err error) {
	if p.content != nil {
		return p.content, nil
	}
	defer func() {
		if r := recover(); r != nil {
			content = nil
			err = &WrapperError{Library: LibraryLedongthuc, Op: "get_content", Err: fmt.Errorf("%v", r)}
		}
	}()

	c := p.page.Content()
	p.content = &c
	return p.content, nil
}

// inherited looks key up on the page and then on its ancestors
func (p *LedongthucPage) inherited(key string) pdf.Value {
	current := p.page.V
	for i := 0; i < maxTreeDepth && !current.IsNull(); i++ {
		if v := current.Key(key); !v.IsNull() {
			return v
		}
		current = current.Key("Parent")
	}
	return pdf.Value{}
}

// parseBoxValue parses a PDF rectangle array into a normalized Rectangle
func parseBoxValue(v pdf.Value) (Rectangle, error) {
	if v.IsNull() {
		return Rectangle{}, fmt.Errorf("box value is null")
	}
	if v.Kind() != pdf.Array {
		return Rectangle{}, fmt.Errorf("box is not an array: %v", v.Kind())
	}
	if v.Len() != 4 {
		return Rectangle{}, fmt.Errorf("invalid box array length: %d, expected 4", v.Len())
	}

	var coords [4]float64
	for i := 0; i < 4; i++ {
		val := v.Index(i)
		switch val.Kind() {
		case pdf.Integer, pdf.Real:
			coords[i] = val.Float64()
		case pdf.String:
			f, err := parseFloatValue(val.RawString())
			if err != nil {
				return Rectangle{}, fmt.Errorf("invalid coordinate at index %d: %w", i, err)
			}
			coords[i] = f
		default:
			return Rectangle{}, fmt.Errorf("invalid coordinate type at index %d: %v", i, val.Kind())
		}
	}

	box := NewRectangle(coords[0], coords[1], coords[2], coords[3])
	if box.Width <= 0 || box.Height <= 0 {
		return Rectangle{}, fmt.Errorf("invalid box dimensions: [%.2f %.2f %.2f %.2f]",
			coords[0], coords[1], coords[2], coords[3])
	}
	return box, nil
}

// parseFloatValue parses numbers some producers write as strings
func parseFloatValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	if strings.HasSuffix(s, "f") || strings.HasSuffix(s, "F") {
		if f, err := strconv.ParseFloat(s[:len(s)-1], 64); err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unable to parse '%s' as float", s)
}

func intersect(a, b Rectangle) (Rectangle, bool) {
	x0 := max(a.LowerLeft.X, b.LowerLeft.X)
	y0 := max(a.LowerLeft.Y, b.LowerLeft.Y)
	x1 := min(a.UpperRight.X, b.UpperRight.X)
	y1 := min(a.UpperRight.Y, b.UpperRight.Y)
	if x1 <= x0 || y1 <= y0 {
		return Rectangle{}, false
	}
	return NewRectangle(x0, y0, x1, y1), true
}

// normalizeRotation maps /Rotate onto 0, 90, 180 or 270
func normalizeRotation(r int64) int {
	r %= 360
	if r < 0 {
		r += 360
	}
	switch r {
	case 90, 180, 270:
		return int(r)
	default:
		return 0
	}
}
