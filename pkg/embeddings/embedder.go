// Package embeddings defines the text embedding capability shared by
// ingestion and retrieval.
//
// Embed is the query shape and EmbedMany the storage shape. Both must use the
// same model so vectors compare under cosine similarity.
package embeddings

import (
	"context"
	"log/slog"
)

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedMany converts texts into embeddings, index aligned with texts.
	// A text that fails to embed yields a nil vector at its index; the error
	// return is reserved for cancellation of ctx.
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}

// EmbedFunc embeds a single text.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// EmbedEach embeds texts one at a time. Failed items are logged and left nil
// so one bad chunk never aborts the batch.
func EmbedEach(ctx context.Context, texts []string, embed EmbedFunc, logger *slog.Logger) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vec, err := embed(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("embedding failed, leaving empty vector",
				"index", i,
				"error", err,
			)
			continue
		}
		out[i] = vec
	}
	return out, nil
}

// Failed counts the nil vectors in a batch returned by EmbedMany.
func Failed(vecs [][]float32) int {
	n := 0
	for _, v := range vecs {
		if len(v) == 0 {
			n++
		}
	}
	return n
}
