package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested file or stage does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown file type or normaliser.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDuplicateFile indicates an upload with the same content already exists.
	ErrDuplicateFile = errors.New("duplicate file")

	// ErrCorruptIndex indicates the persisted index could not be parsed.
	// Stores recover by serving an empty index.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrCorruptChunkData indicates a per-file chunk record could not be parsed.
	ErrCorruptChunkData = errors.New("corrupt chunk data")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or not reachable. Semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrDimensionMismatch indicates a vector of unexpected length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// ValidationError reports a rejected upload or request field.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidInput) match validation errors.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ProviderError is returned by embedding adapters for failed provider calls.
type ProviderError struct {
	// Provider names the embedding backend (e.g. "openai").
	Provider string

	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int

	// Err is the underlying error.
	Err error

	// Temporary marks failures worth retrying.
	Temporary bool
}

// NewProviderError classifies an HTTP status into a ProviderError.
func NewProviderError(provider string, status int, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		StatusCode: status,
		Err:        err,
		Temporary:  IsTransientStatus(status),
	}
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsAuth reports whether the provider rejected the credentials.
func (e *ProviderError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsTransientStatus reports whether an HTTP status is worth retrying:
// rate limiting and server errors.
func IsTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// IsTransient reports whether err is a retryable provider failure:
// rate limits, server errors, connection resets and timeouts.
// Validation, auth and not-found failures are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Temporary {
			return true
		}
		if pe.StatusCode > 0 {
			return false
		}
		// Transport failure: fall through and inspect the cause.
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return false
	}

	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// IsAuthFailure reports whether err is a provider credential rejection.
func IsAuthFailure(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.IsAuth()
}
