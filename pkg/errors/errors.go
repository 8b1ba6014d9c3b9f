package errors

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFile       = errors.New("file missing or unreadable")
	ErrEmptyDocument     = errors.New("document has no tokens")
	ErrZeroNorm          = errors.New("zero-norm vector: angle undefined")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrInvalidInput      = errors.New("invalid input")
	ErrQueryFailed       = errors.New("query failed")
	ErrInternal          = errors.New("internal error")
)

// Process exit codes returned by ExitCode.
const (
	ExitOK          = 0
	ExitQueryFailed = 1
	ExitMissingFile = 2
	ExitBadInput    = 3
	ExitInternal    = 4
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// Is and As re-export the standard helpers so callers importing this package
// under the name "errors" keep access to them.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrMissingFile):
		return ExitMissingFile
	case errors.Is(err, ErrInvalidInput):
		return ExitBadInput
	case errors.Is(err, ErrQueryFailed),
		errors.Is(err, ErrEmptyDocument),
		errors.Is(err, ErrZeroNorm),
		errors.Is(err, ErrDimensionMismatch):
		return ExitQueryFailed
	default:
		return ExitInternal
	}
}
