package pdf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	pdferrors "github.com/a3tai/pdf2json/internal/pdf/errors"
)

// WriteJSON writes result to w as a single line. Non-ASCII text and HTML
// characters are written as is. A result that cannot be encoded is replaced
// by a failed result carrying the encoding error, which is also returned.
func WriteJSON(w io.Writer, result *ConversionResult) error {
	line, encErr := encodeLine(result)
	if encErr != nil {
		encErr = &pdferrors.ConversionError{Type: pdferrors.ErrorTypeOutput, Message: "encode result", Err: encErr}
		var err error
		if line, err = encodeLine(Failed(encErr)); err != nil {
			return err
		}
	}
	if _, err := w.Write(line); err != nil {
		return err
	}
	return encErr
}

func encodeLine(result *ConversionResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalIndent renders result with a two space indent
func MarshalIndent(result *ConversionResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// WriteFile writes the indented result to path. Failed results are never
// written, so an existing file is left untouched.
func WriteFile(path string, result *ConversionResult) error {
	if result == nil || !result.Success {
		return &pdferrors.ConversionError{
			Type:     pdferrors.ErrorTypeOutput,
			Message:  "refusing to write failed conversion",
			FilePath: path,
		}
	}

	data, err := MarshalIndent(result)
	if err != nil {
		return &pdferrors.ConversionError{Type: pdferrors.ErrorTypeOutput, Message: "encode result", FilePath: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &pdferrors.ConversionError{
			Type:     pdferrors.ErrorTypeOutput,
			Message:  fmt.Sprintf("write %s", path),
			FilePath: path,
			Err:      err,
		}
	}
	return nil
}
