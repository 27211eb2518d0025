package vector

import "errors"

var (
	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrEmptyFilter is returned by Delete when called without conditions.
	ErrEmptyFilter = errors.New("refusing to delete with an empty filter")

	// ErrDimensionMismatch is returned when an embedding does not match the
	// dimensionality of the collection.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
