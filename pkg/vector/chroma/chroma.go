// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/studyrag/pkg/vector"
)

const (
	defaultMaxRetries    = 5
	defaultRetryDelay    = 500 * time.Millisecond
	defaultMaxRetryDelay = 5 * time.Second

	collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"
)

// errCollectionNotFound is returned by lookupCollection on a 404.
var errCollectionNotFound = errors.New("collection not found")

// Driver implements vector.Driver using Chroma's REST API.
type Driver struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu          sync.Mutex
	collections map[string]string
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// Collection is created (or looked up) when the driver starts, so that a
	// misconfigured server is reported early. Defaults to vector.DefaultCollection.
	Collection string

	// MaxRetries bounds the startup attempts while Chroma is still coming up.
	MaxRetries int

	// RetryDelay is the initial delay between startup attempts. It doubles
	// after each attempt up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	// Timeout bounds every HTTP request. Defaults to 60s.
	Timeout time.Duration
}

// NewDriver creates a new Chroma vector driver.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, errors.New("chroma URL is required")
	}
	if c.Collection == "" {
		c.Collection = vector.DefaultCollection
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = defaultMaxRetryDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}

	d := &Driver{
		baseURL:     strings.TrimRight(c.URL, "/"),
		httpClient:  &http.Client{Timeout: c.Timeout},
		logger:      logger,
		collections: map[string]string{},
	}

	var (
		id      string
		lastErr error
	)
	delay := c.RetryDelay
	for attempt := 1; attempt <= c.MaxRetries; attempt++ {
		id, lastErr = d.getOrCreateCollection(context.Background(), c.Collection)
		if lastErr == nil {
			break
		}

		logger.Warn("chroma not ready, retrying",
			"attempt", attempt,
			"max_retries", c.MaxRetries,
			"error", lastErr,
		)

		if attempt < c.MaxRetries {
			time.Sleep(delay)
			delay = min(delay*2, c.MaxRetryDelay)
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: getting or creating collection %q after %d attempts: %w",
			vector.ErrConnection, c.Collection, c.MaxRetries, lastErr)
	}

	logger.Info("connected to Chroma",
		"url", c.URL,
		"collection", c.Collection,
		"collection_id", id,
	)

	return d, nil
}

// collectionID resolves a collection name to its Chroma ID. When create is
// false and the collection does not exist, errCollectionNotFound is returned.
func (d *Driver) collectionID(ctx context.Context, name string, create bool) (string, error) {
	d.mu.Lock()
	id, ok := d.collections[name]
	d.mu.Unlock()
	if ok {
		return id, nil
	}

	if create {
		return d.getOrCreateCollection(ctx, name)
	}

	id, err := d.lookupCollection(ctx, name)
	if err != nil {
		return "", err
	}
	d.remember(name, id)
	return id, nil
}

func (d *Driver) remember(name, id string) {
	d.mu.Lock()
	d.collections[name] = id
	d.mu.Unlock()
}

// lookupCollection fetches an existing collection by name.
func (d *Driver) lookupCollection(ctx context.Context, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		d.baseURL+collectionsPath+"/"+url.PathEscape(name), nil)
	if err != nil {
		return "", fmt.Errorf("creating get request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var collection chromaCollection
		if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
			return "", fmt.Errorf("decoding collection response: %w", err)
		}
		return collection.ID, nil
	case http.StatusNotFound:
		return "", errCollectionNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to get collection: status %d: %s", resp.StatusCode, string(body))
	}
}

// getOrCreateCollection gets an existing collection or creates a new one
// configured for cosine distance.
func (d *Driver) getOrCreateCollection(ctx context.Context, name string) (string, error) {
	id, err := d.lookupCollection(ctx, name)
	if err == nil {
		d.remember(name, id)
		return id, nil
	}

	var collection chromaCollection
	err = d.post(ctx, collectionsPath, chromaCreateCollectionRequest{
		Name:     name,
		Metadata: map[string]any{"hnsw:space": "cosine"},
	}, &collection)
	if err != nil {
		return "", fmt.Errorf("creating collection: %w", err)
	}

	d.remember(name, collection.ID)
	d.logger.Debug("created chroma collection", "collection", name, "collection_id", collection.ID)

	return collection.ID, nil
}

// post sends a JSON body and decodes a JSON response into out when non-nil.
func (d *Driver) post(ctx context.Context, path string, body any, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Upsert stores documents with their embeddings, creating the collection on
// first use.
func (d *Driver) Upsert(ctx context.Context, collection string, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := vector.ValidateDocuments(docs); err != nil {
		return err
	}

	id, err := d.collectionID(ctx, collection, true)
	if err != nil {
		return err
	}

	reqBody := chromaUpsertRequest{
		IDs:        make([]string, len(docs)),
		Embeddings: make([][]float32, len(docs)),
		Metadatas:  make([]map[string]string, len(docs)),
		Documents:  make([]string, len(docs)),
	}
	for i, doc := range docs {
		reqBody.IDs[i] = doc.ID
		reqBody.Embeddings[i] = doc.Embedding
		reqBody.Metadatas[i] = doc.Metadata
		reqBody.Documents[i] = doc.Text
	}

	if err := d.post(ctx, collectionsPath+"/"+id+"/upsert", reqBody, nil); err != nil {
		return fmt.Errorf("failed to upsert documents: %w", err)
	}

	d.logger.Debug("upserted documents to chroma",
		"collection", collection,
		"count", len(docs),
	)

	return nil
}

// Query finds the topK most similar documents that match filter.
func (d *Driver) Query(ctx context.Context, collection string, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if topK <= 0 {
		return nil, nil
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	id, err := d.collectionID(ctx, collection, false)
	if errors.Is(err, errCollectionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var queryResp chromaQueryResponse
	err = d.post(ctx, collectionsPath+"/"+id+"/query", chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
		Where:           whereClause(filter),
		Include:         []string{"metadatas", "documents", "distances"},
	}, &queryResp)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	// Process first group (we only query with one embedding)
	if len(queryResp.IDs) == 0 || len(queryResp.IDs[0]) == 0 {
		return nil, nil
	}

	ids := queryResp.IDs[0]
	var distances []float32
	if len(queryResp.Distances) > 0 {
		distances = queryResp.Distances[0]
	}
	var metadatas []map[string]any
	if len(queryResp.Metadatas) > 0 {
		metadatas = queryResp.Metadatas[0]
	}
	var documents []*string
	if len(queryResp.Documents) > 0 {
		documents = queryResp.Documents[0]
	}

	results := make([]vector.QueryResult, 0, len(ids))
	for i, docID := range ids {
		result := vector.QueryResult{
			Document: vector.Document{
				ID:       docID,
				Metadata: map[string]string{},
			},
		}

		if i < len(metadatas) {
			for k, v := range metadatas[i] {
				result.Metadata[k] = fmt.Sprint(v)
			}
		}
		if i < len(documents) && documents[i] != nil {
			result.Text = *documents[i]
		}

		// Convert distance to similarity score
		// Lower distance = higher similarity
		if i < len(distances) {
			result.Score = 1.0 / (1.0 + distances[i])
		}

		results = append(results, result)
	}

	d.logger.Debug("queried chroma",
		"collection", collection,
		"results", len(results),
	)

	return results, nil
}

// Delete removes every record matching filter.
func (d *Driver) Delete(ctx context.Context, collection string, filter vector.Filter) error {
	if filter.IsEmpty() {
		return vector.ErrEmptyFilter
	}
	if err := filter.Validate(); err != nil {
		return err
	}

	id, err := d.collectionID(ctx, collection, false)
	if errors.Is(err, errCollectionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := d.post(ctx, collectionsPath+"/"+id+"/delete", chromaDeleteRequest{
		Where: whereClause(filter),
	}, nil); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	d.logger.Debug("deleted documents from chroma",
		"collection", collection,
		"filter", filter.String(),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// whereClause translates a filter into Chroma's where syntax. A single
// condition is sent bare; several are combined with $and.
func whereClause(f vector.Filter) map[string]any {
	conds := make([]map[string]any, 0, len(f.Equal)+len(f.NotEqual))
	for _, k := range f.EqualKeys() {
		conds = append(conds, map[string]any{k: map[string]any{"$eq": f.Equal[k]}})
	}
	for _, k := range f.NotEqualKeys() {
		conds = append(conds, map[string]any{k: map[string]any{"$ne": f.NotEqual[k]}})
	}

	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	default:
		and := make([]any, len(conds))
		for i, c := range conds {
			and[i] = c
		}
		return map[string]any{"$and": and}
	}
}
