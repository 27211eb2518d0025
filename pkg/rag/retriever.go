// Package rag retrieves owner-scoped chunks and answers questions grounded in
// them. It is shared by the REST handlers, the MCP tools and the CLI.
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/studyrag/pkg/embeddings"
	"github.com/papercomputeco/studyrag/pkg/logger"
	"github.com/papercomputeco/studyrag/pkg/vector"
)

// DefaultK is the number of chunks retrieved for an answer.
const DefaultK = 4

// Query describes a retrieval. OwnerID is required.
type Query struct {
	Text       string
	OwnerID    string
	Collection string

	// K defaults to DefaultK.
	K int

	// DocumentID narrows the search to a single document when set.
	DocumentID string
}

// Retriever embeds queries and searches the vector index.
type Retriever struct {
	embedder   embeddings.Embedder
	driver     vector.Driver
	collection string
	logger     *slog.Logger
}

// NewRetriever returns a Retriever searching collection by default.
func NewRetriever(embedder embeddings.Embedder, driver vector.Driver, collection string, log *slog.Logger) *Retriever {
	if collection == "" {
		collection = vector.DefaultCollection
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Retriever{
		embedder:   embedder,
		driver:     driver,
		collection: collection,
		logger:     log,
	}
}

// Retrieve returns up to K chunks owned by q.OwnerID, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, q Query) ([]vector.QueryResult, error) {
	if q.OwnerID == "" {
		return nil, ErrMissingOwner
	}

	k := q.K
	if k <= 0 {
		k = DefaultK
	}
	collection := q.Collection
	if collection == "" {
		collection = r.collection
	}

	filter := vector.Where(vector.MetaOwnerID, q.OwnerID)
	if q.DocumentID != "" {
		filter = filter.And(vector.MetaDocumentID, q.DocumentID)
	}

	r.logger.Debug("retrieval request",
		"owner_id", q.OwnerID,
		"document_id", q.DocumentID,
		"collection", collection,
		"k", k,
	)

	emb, err := r.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", vector.ErrEmbedding, err)
	}

	results, err := r.driver.Query(ctx, collection, emb, k, filter)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}

	return results, nil
}
