package errors

import (
	"errors"
	"fmt"
)

// ConversionError is a typed failure raised while turning a PDF into a JSON record
type ConversionError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	FilePath   string    `json:"file_path,omitempty"`
	PageNumber int       `json:"page_number,omitempty"`
	TableIndex int       `json:"table_index,omitempty"`
	Err        error     `json:"-"`
}

// ErrorType represents the categories of conversion failures
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeDependency
	ErrorTypeNotFound
	ErrorTypeInvalidInput
	ErrorTypeExtraction
	ErrorTypeTable
	ErrorTypeOutput
)

// UnknownErrorMessage is the text of an error that carries no message
const UnknownErrorMessage = "unknown error"

// Error implements the error interface. Only the message and the cause are
// rendered because the text ends up verbatim in the JSON "error" field, which
// is never empty.
func (e *ConversionError) Error() string {
	var msg string
	switch {
	case e.Message != "" && e.Err != nil:
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		msg = e.Err.Error()
	default:
		msg = e.Message
	}
	if msg == "" {
		return UnknownErrorMessage
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeDependency:
		return "DEPENDENCY"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeInvalidInput:
		return "INVALID_INPUT"
	case ErrorTypeExtraction:
		return "EXTRACTION"
	case ErrorTypeTable:
		return "TABLE"
	case ErrorTypeOutput:
		return "OUTPUT"
	default:
		return "UNKNOWN"
	}
}

// IsRecoverable reports whether the failure only affects a single item and the
// surrounding document conversion can continue
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeTable, ErrorTypeOutput:
		return true
	default:
		return false
	}
}

// NewNotFound creates the error reported for a missing input file
func NewNotFound(path string) *ConversionError {
	return &ConversionError{
		Type:     ErrorTypeNotFound,
		Message:  "PDF file not found: " + path,
		FilePath: path,
	}
}

// NewDependencyError creates the error reported when a PDF library fails its self-check
func NewDependencyError(err error) *ConversionError {
	return &ConversionError{
		Type:    ErrorTypeDependency,
		Message: "PDF library unavailable",
		Err:     err,
	}
}

// WrapError wraps a standard error as a ConversionError of the given type.
// An error that already is a ConversionError is returned unchanged.
func WrapError(errorType ErrorType, err error) *ConversionError {
	if err == nil {
		return nil
	}
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce
	}
	return &ConversionError{
		Type: errorType,
		Err:  err,
	}
}

// WithFile adds file path information to an existing ConversionError
func (e *ConversionError) WithFile(filePath string) *ConversionError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing ConversionError
func (e *ConversionError) WithPage(pageNumber int) *ConversionError {
	e.PageNumber = pageNumber
	return e
}

// WithTable adds the table index to an existing ConversionError
func (e *ConversionError) WithTable(index int) *ConversionError {
	e.TableIndex = index
	return e
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ErrorTypeUnknown
}

// ErrorCollection gathers recoverable failures that were skipped during a conversion
type ErrorCollection struct {
	Warnings []*ConversionError `json:"warnings"`
	FilePath string             `json:"file_path,omitempty"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection(filePath string) *ErrorCollection {
	return &ErrorCollection{
		Warnings: make([]*ConversionError, 0),
		FilePath: filePath,
	}
}

// Add records a skipped failure
func (ec *ErrorCollection) Add(err *ConversionError) {
	if err == nil {
		return
	}
	if err.FilePath == "" && ec.FilePath != "" {
		err.FilePath = ec.FilePath
	}
	ec.Warnings = append(ec.Warnings, err)
}

// Count returns the number of recorded warnings
func (ec *ErrorCollection) Count() int {
	return len(ec.Warnings)
}

// Summary returns a text summary of the recorded warnings
func (ec *ErrorCollection) Summary() string {
	if len(ec.Warnings) == 0 {
		return "No warnings"
	}
	return fmt.Sprintf("Skipped %d item(s) with warnings", len(ec.Warnings))
}
