package wrapper

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// PDFLibraryFactory creates PDF library instances with unified interface
type PDFLibraryFactory struct {
	defaultLibrary LibraryType
	config         FactoryConfig
}

// FactoryConfig contains configuration options for the factory
type FactoryConfig struct {
	// PreferredLibrary is the library used for page content
	PreferredLibrary LibraryType `json:"preferred_library"`

	// MaxFileSize rejects larger files before they are handed to a library (in bytes).
	// Zero disables the check.
	MaxFileSize int64 `json:"max_file_size"`
}

// DefaultMaxFileSize is the file size limit used when none is configured
const DefaultMaxFileSize int64 = 512 * 1024 * 1024

// NewPDFLibraryFactory creates a new factory with default configuration
func NewPDFLibraryFactory() *PDFLibraryFactory {
	return NewPDFLibraryFactoryWithConfig(FactoryConfig{
		PreferredLibrary: LibraryLedongthuc,
		MaxFileSize:      DefaultMaxFileSize,
	})
}

// NewPDFLibraryFactoryWithConfig creates a factory with custom configuration
func NewPDFLibraryFactoryWithConfig(config FactoryConfig) *PDFLibraryFactory {
	if config.PreferredLibrary == "" {
		config.PreferredLibrary = LibraryLedongthuc
	}
	return &PDFLibraryFactory{
		defaultLibrary: config.PreferredLibrary,
		config:         config,
	}
}

// Create instantiates a PDF library of the specified type. Page content always
// comes from ledongthuc/pdf; pdfcpu contributes the information dictionary.
func (f *PDFLibraryFactory) Create(libType LibraryType) (PDFLibrary, error) {
	switch libType {
	case LibraryLedongthuc:
		return NewLedongthucLibrary(f.config, NewPDFCPULibrary(f.config)), nil
	default:
		return nil, &WrapperError{
			Library: libType,
			Op:      "create",
			Err:     fmt.Errorf("unknown library type: %s", libType),
		}
	}
}

// CreateForFile checks the file against the factory limits and creates the
// default library for it
func (f *PDFLibraryFactory) CreateForFile(filePath string) (PDFLibrary, error) {
	if err := f.checkFile(filePath); err != nil {
		return nil, err
	}
	return f.Create(f.defaultLibrary)
}

// Validate runs the self-check of every library the factory hands out
func (f *PDFLibraryFactory) Validate() error {
	lib, err := f.Create(f.defaultLibrary)
	if err != nil {
		return err
	}
	defer lib.Close()

	return errors.Join(lib.Validate(), NewPDFCPULibrary(f.config).Validate())
}

// ErrFileTooLarge is returned by CreateForFile for files above MaxFileSize
type ErrFileTooLarge struct {
	Size  int64
	Limit int64
}

func (e *ErrFileTooLarge) Error() string {
	return fmt.Sprintf("file too large: %d bytes (max: %d bytes)", e.Size, e.Limit)
}

func (f *PDFLibraryFactory) checkFile(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return &WrapperError{
			Library: f.defaultLibrary,
			Op:      "analyze",
			Err:     fmt.Errorf("cannot access file: %w", err),
		}
	}
	if info.IsDir() {
		return &WrapperError{
			Library: f.defaultLibrary,
			Op:      "analyze",
			Err:     fmt.Errorf("%s is a directory", filePath),
		}
	}
	if f.config.MaxFileSize > 0 && info.Size() > f.config.MaxFileSize {
		return &ErrFileTooLarge{Size: info.Size(), Limit: f.config.MaxFileSize}
	}
	return nil
}

// Describe names the libraries behind the factory with their versions
func (f *PDFLibraryFactory) Describe() string {
	libs := []interface {
		GetLibraryType() LibraryType
		GetVersion() string
	}{
		NewLedongthucLibrary(f.config, nil),
		NewPDFCPULibrary(f.config),
	}

	parts := make([]string, len(libs))
	for i, lib := range libs {
		parts[i] = fmt.Sprintf("%s (%s)", lib.GetLibraryType(), lib.GetVersion())
	}
	return strings.Join(parts, ", ")
}
