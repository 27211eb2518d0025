package rag

import "errors"

var (
	// ErrMissingOwner is returned when a retrieval has no owner to scope it.
	ErrMissingOwner = errors.New("owner id is required for retrieval")

	// ErrAnswering wraps any failure while producing an answer.
	ErrAnswering = errors.New("answering failed")

	// ErrEmptyAnswer is returned when the model replies with no text.
	ErrEmptyAnswer = errors.New("model returned an empty answer")
)
