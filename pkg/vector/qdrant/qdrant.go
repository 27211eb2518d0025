// Package qdrant provides a vector.Driver backed by Qdrant over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/studyrag/pkg/vector"
)

const (
	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	payloadText    = "page_content"
	payloadChunkID = "chunk_id"
)

// chunkNamespace seeds deterministic point IDs for chunk IDs that are not UUIDs.
var chunkNamespace = uuid.MustParse("6f1f1b4e-4b8e-4b7c-9a52-3d0f2f6d7a10")

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is host or host:port of the gRPC endpoint.
	Target string

	// APIKey is sent with every request when set.
	APIKey string

	UseTLS bool
}

// Driver implements vector.Driver using the Qdrant Go client.
type Driver struct {
	client *qdrant.Client
	logger *slog.Logger

	mu    sync.Mutex
	known map[string]bool
}

// NewDriver connects to Qdrant. Collections are created on first upsert once
// the embedding dimensionality is known.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.Target == "" {
		return nil, fmt.Errorf("qdrant target is required")
	}

	host, port, err := parseTarget(c.Target)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating qdrant client: %w", vector.ErrConnection, err)
	}

	logger.Info("qdrant vector driver initialized", "host", host, "port", port)

	return &Driver{
		client: client,
		logger: logger,
		known:  map[string]bool{},
	}, nil
}

// Upsert writes docs as points, creating the collection if needed.
func (d *Driver) Upsert(ctx context.Context, collection string, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := vector.ValidateDocuments(docs); err != nil {
		return err
	}

	if err := d.ensureCollection(ctx, collection, uint64(len(docs[0].Embedding))); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		payload, err := qdrant.TryValueMap(payloadFor(doc))
		if err != nil {
			return fmt.Errorf("encoding payload for chunk %s: %w", doc.ID, err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(doc.ID)),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: payload,
		})
	}

	if _, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	}); err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}

	d.logger.Debug("upserted chunks to qdrant", "collection", collection, "count", len(points))
	return nil
}

// Query returns the nearest points matching filter.
func (d *Driver) Query(ctx context.Context, collection string, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	exists, err := d.exists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(embedding...),
		Filter:         buildFilter(filter),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("querying qdrant: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		doc := documentFromPayload(p.GetPayload())
		if doc.ID == "" {
			doc.ID = p.GetId().GetUuid()
		}
		results = append(results, vector.QueryResult{Document: doc, Score: p.GetScore()})
	}

	d.logger.Debug("queried qdrant",
		"collection", collection,
		"filter", filter.String(),
		"results", len(results),
	)
	return results, nil
}

// Delete removes points matching filter.
func (d *Driver) Delete(ctx context.Context, collection string, filter vector.Filter) error {
	if filter.IsEmpty() {
		return vector.ErrEmptyFilter
	}
	if err := filter.Validate(); err != nil {
		return err
	}

	exists, err := d.exists(ctx, collection)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	if _, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(buildFilter(filter)),
	}); err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted chunks from qdrant", "collection", collection, "filter", filter.String())
	return nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

func (d *Driver) exists(ctx context.Context, collection string) (bool, error) {
	d.mu.Lock()
	known := d.known[collection]
	d.mu.Unlock()
	if known {
		return true, nil
	}

	ok, err := d.client.CollectionExists(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("%w: checking collection %q: %w", vector.ErrConnection, collection, err)
	}
	if ok {
		d.mu.Lock()
		d.known[collection] = true
		d.mu.Unlock()
	}
	return ok, nil
}

func (d *Driver) ensureCollection(ctx context.Context, collection string, dims uint64) error {
	ok, err := d.exists(ctx, collection)
	if err != nil || ok {
		return err
	}

	err = d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dims,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", collection, err)
	}

	d.logger.Info("created qdrant collection", "collection", collection, "dimensions", dims)

	d.mu.Lock()
	d.known[collection] = true
	d.mu.Unlock()
	return nil
}

// parseTarget splits host[:port], accepting an http(s):// prefix.
func parseTarget(target string) (string, int, error) {
	t := strings.TrimPrefix(strings.TrimPrefix(target, "http://"), "https://")
	t = strings.TrimSuffix(t, "/")

	host, portStr, err := net.SplitHostPort(t)
	if err != nil {
		// no port present
		return t, DefaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid qdrant port %q", portStr)
	}
	return host, port, nil
}

// pointID returns chunkID when it is already a UUID and a stable derived UUID otherwise.
func pointID(chunkID string) string {
	if id, err := uuid.Parse(chunkID); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(chunkNamespace, []byte(chunkID)).String()
}

func payloadFor(doc vector.Document) map[string]any {
	payload := make(map[string]any, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		payload[k] = v
	}
	payload[payloadText] = doc.Text
	payload[payloadChunkID] = doc.ID
	return payload
}

func documentFromPayload(payload map[string]*qdrant.Value) vector.Document {
	doc := vector.Document{Metadata: map[string]string{}}
	for k, v := range payload {
		switch k {
		case payloadText:
			doc.Text = v.GetStringValue()
		case payloadChunkID:
			doc.ID = v.GetStringValue()
		default:
			doc.Metadata[k] = v.GetStringValue()
		}
	}
	return doc
}

func buildFilter(f vector.Filter) *qdrant.Filter {
	if f.IsEmpty() {
		return nil
	}

	out := &qdrant.Filter{}
	for _, k := range f.EqualKeys() {
		out.Must = append(out.Must, qdrant.NewMatch(k, f.Equal[k]))
	}
	for _, k := range f.NotEqualKeys() {
		out.MustNot = append(out.MustNot, qdrant.NewMatch(k, f.NotEqual[k]))
	}
	return out
}
