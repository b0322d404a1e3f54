package errors

import (
	"fmt"
	"log"
	"runtime/debug"
)

// FromPanic converts a recovered panic value into a ConversionError.
// ledongthuc/pdf reports malformed input by panicking, so every call into it
// runs under a deferred Recover.
func FromPanic(errorType ErrorType, r interface{}) *ConversionError {
	if err, ok := r.(error); ok {
		return &ConversionError{Type: errorType, Err: err}
	}
	return &ConversionError{Type: errorType, Message: fmt.Sprint(r)}
}

// Recover is meant to be deferred. It stores a recovered panic into errp
// unless errp already carries an error. The stack trace is written to logger
// when one is given.
func Recover(errp *error, errorType ErrorType, logger *log.Logger) {
	r := recover()
	if r == nil {
		return
	}
	if logger != nil {
		logger.Printf("PANIC recovered (%s): %v\n%s", errorType, r, debug.Stack())
	}
	if errp != nil && *errp == nil {
		*errp = FromPanic(errorType, r)
	}
}

// Guard runs fn and converts both returned errors and panics into a
// ConversionError of the given type.
func Guard(errorType ErrorType, logger *log.Logger, fn func() error) (err error) {
	defer Recover(&err, errorType, logger)
	if err := fn(); err != nil {
		return WrapError(errorType, err)
	}
	return nil
}
