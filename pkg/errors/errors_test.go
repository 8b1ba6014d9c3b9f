package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"missing file", fmt.Errorf("open: %w", ErrMissingFile), ExitMissingFile},
		{"bad input", ErrInvalidInput, ExitBadInput},
		{"zero norm", fmt.Errorf("rank: %w", ErrZeroNorm), ExitQueryFailed},
		{"empty document", ErrEmptyDocument, ExitQueryFailed},
		{"query failed", ErrQueryFailed, ExitQueryFailed},
		{"app error wins", New(ErrInternal, ExitMissingFile, "x"), ExitMissingFile},
		{"unknown", context.DeadlineExceeded, ExitInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestAppErrorWraps(t *testing.T) {
	err := Newf(ErrMissingFile, ExitMissingFile, "corpus %s", "docs.txt")
	assert.Equal(t, "file missing or unreadable: corpus docs.txt", err.Error())
	assert.True(t, errors.Is(err, ErrMissingFile))

	var appErr *AppError
	assert.True(t, As(fmt.Errorf("outer: %w", err), &appErr))
	assert.Equal(t, ExitMissingFile, appErr.ExitCode)
	assert.True(t, Is(err, ErrMissingFile))
}
