package wrapper

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFCPULibrary reads document level structures with pdfcpu. It backs the
// metadata of documents opened through the ledongthuc wrapper.
type PDFCPULibrary struct {
	config FactoryConfig
	closed bool
}

// NewPDFCPULibrary creates a new pdfcpu library wrapper
func NewPDFCPULibrary(config FactoryConfig) *PDFCPULibrary {
	return &PDFCPULibrary{
		config: config,
	}
}

// ReadMetadata reads the information dictionary of the file at path.
// Missing entries are left empty.
func (p *PDFCPULibrary) ReadMetadata(path string) (*Metadata, error) {
	if p.closed {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "read_metadata", Err: ErrDocumentClosed.Err}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "read_metadata",
			Err:     fmt.Errorf("failed to open file: %w", err),
		}
	}
	defer file.Close()

	return p.readMetadata(file)
}

func (p *PDFCPULibrary) readMetadata(rs io.ReadSeeker) (md *Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			md = nil
			err = &WrapperError{Library: LibraryPDFCPU, Op: "read_metadata", Err: fmt.Errorf("%v", r)}
		}
	}()

	ctx, err := p.readContext(rs)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "read_metadata",
			Err:     fmt.Errorf("failed to read PDF context: %w", err),
		}
	}

	md = &Metadata{}
	if ctx.Info == nil {
		return md, nil
	}

	info, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil || info == nil {
		// A dangling /Info reference is treated like a missing one
		return md, nil
	}

	md.Title = infoString(ctx, info, "Title")
	md.Author = infoString(ctx, info, "Author")
	md.Subject = infoString(ctx, info, "Subject")
	md.Creator = infoString(ctx, info, "Creator")
	md.Producer = infoString(ctx, info, "Producer")
	md.CreationDate = infoString(ctx, info, "CreationDate")
	md.ModDate = infoString(ctx, info, "ModDate")

	return md, nil
}

func (p *PDFCPULibrary) readContext(rs io.ReadSeeker) (*model.Context, error) {
	configDirOnce.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, err
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx, nil
}

// infoString decodes a text string entry, falling back to a name value
func infoString(ctx *model.Context, info types.Dict, key string) string {
	obj, found := info.Find(key)
	if !found || obj == nil {
		return ""
	}
	if s, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
		return s
	}
	if name, err := ctx.DereferenceName(obj, model.V10, nil); err == nil {
		return string(name)
	}
	return ""
}

// Validate checks that pdfcpu can read a minimal document
func (p *PDFCPULibrary) Validate() (err error) {
	if p.closed {
		return &WrapperError{Library: LibraryPDFCPU, Op: "validate", Err: ErrDocumentClosed.Err}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &WrapperError{Library: LibraryPDFCPU, Op: "validate", Err: fmt.Errorf("%v", r)}
		}
	}()

	ctx, err := p.readContext(bytes.NewReader(probeDocument()))
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "validate", Err: err}
	}
	if ctx.PageCount != 1 {
		return &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "validate",
			Err:     fmt.Errorf("probe document reports %d pages, expected 1", ctx.PageCount),
		}
	}
	return nil
}

// Close closes the library and releases resources
func (p *PDFCPULibrary) Close() error {
	p.closed = true
	return nil
}

// GetLibraryType returns the library type
func (p *PDFCPULibrary) GetLibraryType() LibraryType {
	return LibraryPDFCPU
}

// GetVersion returns the pdfcpu version
func (p *PDFCPULibrary) GetVersion() string {
	return "pdfcpu-v0.11.0"
}
