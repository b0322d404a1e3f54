// Package pdf turns a PDF file into a ConversionResult: pages with their
// text spans, optional document metadata and optional tables.
package pdf

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	pdferrors "github.com/a3tai/pdf2json/internal/pdf/errors"
	"github.com/a3tai/pdf2json/internal/pdf/layout"
	"github.com/a3tai/pdf2json/internal/pdf/tables"
	"github.com/a3tai/pdf2json/internal/pdf/wrapper"
)

// ConverterConfig configures a Converter
type ConverterConfig struct {
	// MaxFileSize rejects larger files (bytes). Zero uses wrapper.DefaultMaxFileSize.
	MaxFileSize int64

	// Logger receives debug diagnostics. Nil discards them.
	Logger *log.Logger

	// Zero values select the package defaults
	Layout layout.Config
	Tables tables.Config
}

// DefaultConverterConfig returns the default converter configuration
func DefaultConverterConfig() ConverterConfig {
	return ConverterConfig{
		MaxFileSize: wrapper.DefaultMaxFileSize,
		Layout:      layout.DefaultConfig(),
		Tables:      tables.DefaultConfig(),
	}
}

// Converter converts PDF files. It holds no per-document state and can be
// reused for several files.
type Converter struct {
	logger    *log.Logger
	factory   *wrapper.PDFLibraryFactory
	analyzer  *layout.Analyzer
	detectors *tables.DetectorRegistry
}

// NewConverter creates a converter from config
func NewConverter(config ConverterConfig) *Converter {
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	maxSize := config.MaxFileSize
	if maxSize == 0 {
		maxSize = wrapper.DefaultMaxFileSize
	}
	if config.Layout == (layout.Config{}) {
		config.Layout = layout.DefaultConfig()
	}
	if config.Tables == (tables.Config{}) {
		config.Tables = tables.DefaultConfig()
	}

	return &Converter{
		logger: logger,
		factory: wrapper.NewPDFLibraryFactoryWithConfig(wrapper.FactoryConfig{
			PreferredLibrary: wrapper.LibraryLedongthuc,
			MaxFileSize:      maxSize,
		}),
		analyzer:  layout.NewAnalyzerWithConfig(config.Layout),
		detectors: tables.NewDefaultRegistry(config.Tables),
	}
}

// SelfCheck verifies that the PDF libraries can parse a minimal document
func (c *Converter) SelfCheck() error {
	if err := c.factory.Validate(); err != nil {
		return pdferrors.NewDependencyError(err)
	}
	c.logger.Printf("PDF libraries: %s", c.factory.Describe())
	return nil
}

// Convert converts the PDF at path. Failures never escape as Go errors or
// panics; they are reported through a result with Success false.
func (c *Converter) Convert(path string, opts Options) *ConversionResult {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Failed(pdferrors.NewNotFound(path))
	}

	var detector tables.Detector
	if opts.ExtractTables {
		strategy := opts.TableStrategy
		if strategy == "" {
			strategy = tables.DefaultStrategy
		}
		d, err := c.detectors.Get(strategy)
		if err != nil {
			return Failed(&pdferrors.ConversionError{Type: pdferrors.ErrorTypeInvalidInput, Err: err, FilePath: path})
		}
		detector = d
	}

	var result *ConversionResult
	err := pdferrors.Guard(pdferrors.ErrorTypeExtraction, c.logger, func() error {
		var err error
		result, err = c.convert(path, opts, detector)
		return err
	})
	if err != nil {
		c.logger.Printf("Conversion of %s failed: %v", path, err)
		return Failed(err)
	}
	return result
}

func (c *Converter) convert(path string, opts Options, detector tables.Detector) (*ConversionResult, error) {
	lib, err := c.factory.CreateForFile(path)
	if err != nil {
		var tooLarge *wrapper.ErrFileTooLarge
		if errors.As(err, &tooLarge) {
			return nil, &pdferrors.ConversionError{Type: pdferrors.ErrorTypeInvalidInput, Err: err, FilePath: path}
		}
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeExtraction, err).WithFile(path)
	}
	defer lib.Close()

	doc, err := lib.OpenFile(path)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeExtraction, err).WithFile(path)
	}
	defer doc.Close()

	count, err := doc.GetPageCount()
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeExtraction, err).WithFile(path)
	}

	result := &ConversionResult{
		Success:    true,
		Source:     filepath.Base(path),
		TotalPages: count,
		Pages:      make([]PageRecord, 0, count),
	}

	if opts.IncludeMetadata {
		meta, err := doc.GetMetadata()
		if err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeExtraction, err).WithFile(path)
		}
		result.Metadata = newMetadataRecord(meta)
	}

	warnings := pdferrors.NewErrorCollection(path)
	for n := 1; n <= count; n++ {
		page, err := c.page(doc, n, opts, detector, warnings)
		if err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeExtraction, err).WithFile(path).WithPage(n)
		}
		result.Pages = append(result.Pages, page)
	}

	if warnings.Count() > 0 {
		c.logger.Print(warnings.Summary())
	}
	c.logger.Printf("Converted %s: %d pages", path, count)
	return result, nil
}

func (c *Converter) page(doc wrapper.PDFDocument, n int, opts Options, detector tables.Detector, warnings *pdferrors.ErrorCollection) (PageRecord, error) {
	page, err := doc.GetPage(n)
	if err != nil {
		return PageRecord{}, err
	}
	size, err := page.GetSize()
	if err != nil {
		return PageRecord{}, err
	}
	text, err := page.GetPlainText()
	if err != nil {
		return PageRecord{}, err
	}
	glyphs, err := page.GetGlyphs()
	if err != nil {
		return PageRecord{}, err
	}

	frame := layout.NewFrame(size)
	analyzed := c.analyzer.Analyze(glyphs, frame)

	spans := analyzed.Spans()
	rec := PageRecord{
		PageNumber: n,
		Width:      size.Width,
		Height:     size.Height,
		Text:       normalize(text, opts),
		Blocks:     make([]SpanRecord, 0, len(spans)),
	}
	for _, s := range spans {
		rec.Blocks = append(rec.Blocks, SpanRecord{
			Text: normalize(s.Text, opts),
			BBox: frame.ToPage(s.BBox).Array(),
			Font: s.Font,
			Size: s.Size,
		})
	}

	if detector != nil {
		rulings, err := page.GetRulings()
		if err != nil {
			return PageRecord{}, err
		}
		rec.Tables = c.extractTables(detector.Find(tables.NewPageContent(analyzed, rulings, c.analyzer)), n, opts, warnings)
	}
	return rec, nil
}

// extractTables extracts the rows of every detected table. The result is nil when
// nothing was detected and non-nil, possibly empty, otherwise. Tables that
// fail or have no rows are skipped.
func (c *Converter) extractTables(found []*tables.Table, pageNum int, opts Options, warnings *pdferrors.ErrorCollection) []TableRecord {
	if len(found) == 0 {
		return nil
	}

	records := make([]TableRecord, 0, len(found))
	for _, t := range found {
		rows, err := extractRows(t)
		if err != nil {
			warnings.Add(pdferrors.WrapError(pdferrors.ErrorTypeTable, err).WithPage(pageNum).WithTable(t.Index))
			c.logger.Printf("Skipping table %d on page %d: %v", t.Index, pageNum, err)
			continue
		}
		if len(rows) == 0 {
			continue
		}
		for _, row := range rows {
			for i := range row {
				row[i] = normalize(row[i], opts)
			}
		}
		records = append(records, NewTableRecord(t.Index, rows))
	}
	return records
}

func extractRows(t *tables.Table) (rows [][]string, err error) {
	defer pdferrors.Recover(&err, pdferrors.ErrorTypeTable, nil)
	return t.Extract()
}

func newMetadataRecord(m *wrapper.Metadata) *MetadataRecord {
	if m == nil {
		return &MetadataRecord{}
	}
	return &MetadataRecord{
		Title:        m.Title,
		Author:       m.Author,
		Subject:      m.Subject,
		Creator:      m.Creator,
		Producer:     m.Producer,
		CreationDate: m.CreationDate,
		ModDate:      m.ModDate,
	}
}

func normalize(s string, opts Options) string {
	if !opts.NormalizeText {
		return s
	}
	return norm.NFKC.String(s)
}
