package ingest

import "errors"

var (
	// ErrInvalidRequest is returned when a request lacks a required field.
	ErrInvalidRequest = errors.New("invalid ingest request")

	// ErrCleanupFailed wraps index failures while removing chunks. Callers
	// treat it as non-fatal.
	ErrCleanupFailed = errors.New("document chunk cleanup failed")
)
