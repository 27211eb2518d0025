// Package vector provides interfaces and implementations for vector storage
// of document chunks.
//
// Chunks from many owners share one collection. Tenancy is carried in chunk
// metadata and enforced with a Filter that drivers apply before ranking, so a
// query never sees chunks outside its filter even when they are nearer.
package vector

import (
	"context"
	"fmt"
	"math"
	"regexp"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "user_docs"

// Metadata keys attached to every stored chunk.
const (
	MetaDocumentID    = "document_id"
	MetaOwnerID       = "owner_id"
	MetaSource        = "source"
	MetaSequenceIndex = "sequence_index"
	MetaIngestID      = "ingest_id"
	MetaPage          = "page"
)

// Document represents a stored chunk with its embedding and metadata.
type Document struct {
	// ID is the unique identifier of the chunk within its collection.
	ID string

	// Text is the chunk content.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32

	// Metadata holds flat string attributes used for filtering.
	Metadata map[string]string
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// Driver handles storage and retrieval of chunk embeddings.
type Driver interface {
	// Upsert stores documents in collection, replacing any with the same ID.
	// The collection is created on first use.
	Upsert(ctx context.Context, collection string, docs []Document) error

	// Query returns up to topK documents matching filter, most similar first.
	// Querying a collection that does not exist returns no results.
	Query(ctx context.Context, collection string, embedding []float32, topK int, filter Filter) ([]QueryResult, error)

	// Delete removes every document matching filter. Deleting nothing is not
	// an error. An empty filter is rejected with ErrEmptyFilter.
	Delete(ctx context.Context, collection string, filter Filter) error

	// Close releases any resources held by the driver.
	Close() error
}

var metadataKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateDocuments checks the invariants every driver relies on: a non-empty
// ID, a non-empty embedding, metadata keys usable in filters, and a single
// dimensionality across the batch.
func ValidateDocuments(docs []Document) error {
	dims := -1
	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document has empty ID")
		}
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("%w: document %s has an empty embedding", ErrEmbedding, doc.ID)
		}
		if dims == -1 {
			dims = len(doc.Embedding)
		} else if len(doc.Embedding) != dims {
			return fmt.Errorf("%w: document %s has %d dimensions, expected %d",
				ErrDimensionMismatch, doc.ID, len(doc.Embedding), dims)
		}
		for k := range doc.Metadata {
			if !metadataKeyPattern.MatchString(k) {
				return fmt.Errorf("invalid metadata key %q", k)
			}
		}
	}
	return nil
}

// CosineSimilarity returns the cosine similarity of a and b, or 0 when either
// vector has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
