package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrDuplicateFile", ErrDuplicateFile},
		{"ErrCorruptIndex", ErrCorruptIndex},
		{"ErrCorruptChunkData", ErrCorruptChunkData},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrNotFound tests ErrNotFound error
func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrAlreadyExists))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("extension", "unsupported extension %q", ".exe")

	assert.Equal(t, `validation failed: extension: unsupported extension ".exe"`, err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, fmt.Errorf("upload: %w", err), ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrNotFound)

	var ve *ValidationError
	assert.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &ve)
	assert.Equal(t, "extension", ve.Field)
}

func TestValidationError_NoField(t *testing.T) {
	err := &ValidationError{Reason: "empty payload"}
	assert.Equal(t, "validation failed: empty payload", err.Error())
}

func TestProviderError(t *testing.T) {
	t.Run("message includes status", func(t *testing.T) {
		err := NewProviderError("openai", 503, errors.New("overloaded"))
		assert.Equal(t, "openai: status 503: overloaded", err.Error())
		assert.True(t, err.Temporary)
	})

	t.Run("message without status", func(t *testing.T) {
		err := &ProviderError{Provider: "ollama", Err: errors.New("dial failed")}
		assert.Equal(t, "ollama: dial failed", err.Error())
	})

	t.Run("unwraps cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := NewProviderError("openai", 500, cause)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("auth statuses", func(t *testing.T) {
		assert.True(t, NewProviderError("openai", 401, errors.New("x")).IsAuth())
		assert.True(t, NewProviderError("openai", 403, errors.New("x")).IsAuth())
		assert.False(t, NewProviderError("openai", 429, errors.New("x")).IsAuth())
	})
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"rate limit status", NewProviderError("openai", 429, errors.New("slow down")), true},
		{"server error status", NewProviderError("openai", 502, errors.New("bad gateway")), true},
		{"bad request status", NewProviderError("openai", 400, errors.New("too long")), false},
		{"unauthorised status", NewProviderError("openai", 401, errors.New("bad key")), false},
		{"not found status", NewProviderError("openai", 404, errors.New("no model")), false},
		{"validation error", NewValidationError("size", "too large"), false},
		{"rate limited sentinel", fmt.Errorf("wrap: %w", ErrRateLimited), true},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"network timeout", fmt.Errorf("post: %w", timeoutError{}), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"transport failure with reset", &ProviderError{Provider: "ollama", Err: syscall.ECONNRESET}, true},
		{"plain error", errors.New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTransient(tt.err))
		})
	}
}

func TestIsAuthFailure(t *testing.T) {
	assert.True(t, IsAuthFailure(fmt.Errorf("batch: %w", NewProviderError("openai", 401, errors.New("x")))))
	assert.False(t, IsAuthFailure(NewProviderError("openai", 500, errors.New("x"))))
	assert.False(t, IsAuthFailure(errors.New("x")))
}
