package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal")

	// ErrNoExtractor means no registered extractor can decode the file type.
	// User correctable, reported verbatim.
	ErrNoExtractor = errors.New("no extractor for file type")

	// ErrInvalidVector means a query or record vector does not match the
	// configured embedding dimensionality. This is a config/programming
	// error, never retried.
	ErrInvalidVector = errors.New("invalid embedding vector")

	// ErrEmbeddingFailed means the external embedding service failed or
	// timed out after its retry policy was exhausted.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrStoreWrite means a batch write to the embedding store was refused
	// atomically. Nothing was indexed, the file stays pending and the
	// ingestion can be retried.
	ErrStoreWrite = errors.New("embedding store write failed")
)

// ExtractionError wraps an unrecoverable decode failure from a delegated
// parser (corrupt PDF, broken zip structure, ...).
type ExtractionError struct {
	Filename string
	Cause    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Filename, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

func NewExtractionError(filename string, cause error) error {
	return &ExtractionError{Filename: filename, Cause: cause}
}

func IsExtractionError(err error) bool {
	var target *ExtractionError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
