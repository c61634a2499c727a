package domain

import "errors"

var (
	// ErrUnsupportedType marks a document the loaders cannot handle.
	// Raised before any chunking or embedding work happens.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrInvalidURL marks a malformed or non-HTTP URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrDimensionMismatch is returned when a vector does not match the
	// index dimension or the embedder's configured dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrModelMismatch is returned when a persisted index was built with a
	// different embedding model than the one configured now.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrMissingSourceID is returned when no source id was given and none
	// can be derived from the document.
	ErrMissingSourceID = errors.New("missing source id")
)

// CapabilityError wraps a failure of an external capability (document
// fetch, embedding service, generative model) with the stage that failed.
// The core never retries these; callers decide.
type CapabilityError struct {
	Stage string
	Err   error
}

func (e *CapabilityError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *CapabilityError) Unwrap() error { return e.Err }
