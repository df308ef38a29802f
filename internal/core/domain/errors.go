package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEncoderUnavailable indicates the encoder service is not configured
	// or not initialised. Semantic search is impossible without it.
	ErrEncoderUnavailable = errors.New("encoder service unavailable")

	// ErrIndexUnavailable indicates the vector index is not configured.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrModelMismatch indicates a vector or snapshot produced by a
	// different model id than the one configured.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrUnsupportedProvider indicates an unknown encoder provider.
	ErrUnsupportedProvider = errors.New("unsupported encoder provider")
)

// ModelLoadError indicates the encoder model could not be loaded or
// validated. It is fatal: there is no fallback and callers must not retry.
type ModelLoadError struct {
	// ModelID is the model that failed to load.
	ModelID string

	// Err is the underlying cause.
	Err error
}

// Error returns the error message.
func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("model %q failed to load: %v", e.ModelID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// DimensionMismatchError indicates a vector of the wrong dimensionality
// for the index or model it was used with.
type DimensionMismatchError struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message.
func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// IndexBuildError indicates an ANN index build failed. The index service
// retries once with reduced parameters before degrading to brute force.
type IndexBuildError struct {
	// ModelID is the model the build was for.
	ModelID string

	// Err is the underlying cause.
	Err error
}

// Error returns the error message.
func (e *IndexBuildError) Error() string {
	return fmt.Sprintf("index build for model %q failed: %v", e.ModelID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *IndexBuildError) Unwrap() error {
	return e.Err
}
