// Package inmemory provides a brute-force in-process vector driver.
package inmemory

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/papercomputeco/studyrag/pkg/vector"
)

type collection struct {
	dims  int
	docs  map[string]vector.Document
	order []string
}

// Driver implements vector.Driver with cosine similarity over all documents
// of a collection. It is intended for tests and small local corpora.
type Driver struct {
	mu          sync.RWMutex
	collections map[string]*collection
	logger      *slog.Logger
}

// NewDriver creates an empty in-memory driver.
func NewDriver(logger *slog.Logger) *Driver {
	return &Driver{
		collections: map[string]*collection{},
		logger:      logger,
	}
}

func (d *Driver) Upsert(ctx context.Context, name string, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := vector.ValidateDocuments(docs); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.collections[name]
	if !ok {
		c = &collection{dims: len(docs[0].Embedding), docs: map[string]vector.Document{}}
		d.collections[name] = c
		d.logger.Debug("created in-memory collection", "collection", name, "dimensions", c.dims)
	}

	if len(docs[0].Embedding) != c.dims {
		return fmt.Errorf("%w: collection %s has %d dimensions, got %d",
			vector.ErrDimensionMismatch, name, c.dims, len(docs[0].Embedding))
	}

	for _, doc := range docs {
		if _, exists := c.docs[doc.ID]; !exists {
			c.order = append(c.order, doc.ID)
		}
		c.docs[doc.ID] = vector.Document{
			ID:        doc.ID,
			Text:      doc.Text,
			Embedding: slices.Clone(doc.Embedding),
			Metadata:  maps.Clone(doc.Metadata),
		}
	}

	d.logger.Debug("upserted documents", "collection", name, "count", len(docs))
	return nil
}

func (d *Driver) Query(ctx context.Context, name string, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	c, ok := d.collections[name]
	if !ok {
		return nil, nil
	}
	if len(embedding) != c.dims {
		return nil, fmt.Errorf("%w: collection %s has %d dimensions, query has %d",
			vector.ErrDimensionMismatch, name, c.dims, len(embedding))
	}

	results := make([]vector.QueryResult, 0, len(c.docs))
	for _, id := range c.order {
		doc := c.docs[id]
		if !filter.Matches(doc.Metadata) {
			continue
		}
		results = append(results, vector.QueryResult{
			Document: vector.Document{
				ID:        doc.ID,
				Text:      doc.Text,
				Embedding: slices.Clone(doc.Embedding),
				Metadata:  maps.Clone(doc.Metadata),
			},
			Score: vector.CosineSimilarity(embedding, doc.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

func (d *Driver) Delete(ctx context.Context, name string, filter vector.Filter) error {
	if filter.IsEmpty() {
		return vector.ErrEmptyFilter
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.collections[name]
	if !ok {
		return nil
	}

	kept := c.order[:0]
	removed := 0
	for _, id := range c.order {
		if filter.Matches(c.docs[id].Metadata) {
			delete(c.docs, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept

	d.logger.Debug("deleted documents", "collection", name, "count", removed, "filter", filter.String())
	return nil
}

// Len returns the number of documents stored in a collection.
func (d *Driver) Len(name string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if c, ok := d.collections[name]; ok {
		return len(c.docs)
	}
	return 0
}

func (d *Driver) Close() error {
	return nil
}
