// Package cache memoizes embeddings in Redis.
//
// Vectors are keyed by model and a SHA-256 of the text, so switching models
// never serves a vector from another embedding space. Redis failures are
// logged and the call falls through to the wrapped embedder.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/papercomputeco/studyrag/pkg/embeddings"
)

const (
	keyPrefix  = "studyrag:emb:"
	DefaultTTL = 7 * 24 * time.Hour
)

type Config struct {
	// Model namespaces keys.
	Model string
	TTL   time.Duration
}

// Embedder wraps another embeddings.Embedder with a Redis cache.
type Embedder struct {
	inner  embeddings.Embedder
	client *redis.Client
	model  string
	ttl    time.Duration
	logger *slog.Logger
}

// NewClient parses a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

func New(inner embeddings.Embedder, client *redis.Client, cfg Config, logger *slog.Logger) *Embedder {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Embedder{
		inner:  inner,
		client: client,
		model:  cfg.Model,
		ttl:    ttl,
		logger: logger,
	}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.key(text)

	data, err := e.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if vec, derr := decode(data); derr == nil {
			return vec, nil
		}
	case !errors.Is(err, redis.Nil):
		e.logger.Warn("embedding cache read failed", "error", err)
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.client.Set(ctx, key, encode(vec), e.ttl).Err(); err != nil {
		e.logger.Warn("embedding cache write failed", "error", err)
	}
	return vec, nil
}

// EmbedMany serves hits from Redis and embeds only the misses.
func (e *Embedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = e.key(t)
	}

	out := make([][]float32, len(texts))
	var missIdx []int

	vals, err := e.client.MGet(ctx, keys...).Result()
	if err != nil {
		e.logger.Warn("embedding cache read failed", "error", err)
		vals = make([]any, len(texts))
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			missIdx = append(missIdx, i)
			continue
		}
		vec, derr := decode([]byte(s))
		if derr != nil {
			missIdx = append(missIdx, i)
			continue
		}
		out[i] = vec
	}

	if len(missIdx) == 0 {
		return out, nil
	}

	missTexts := make([]string, len(missIdx))
	for j, i := range missIdx {
		missTexts[j] = texts[i]
	}

	vecs, err := e.inner.EmbedMany(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	pipe := e.client.Pipeline()
	for j, i := range missIdx {
		if j >= len(vecs) || len(vecs[j]) == 0 {
			continue
		}
		out[i] = vecs[j]
		pipe.Set(ctx, keys[i], encode(vecs[j]), e.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		e.logger.Warn("embedding cache write failed", "error", err)
	}

	e.logger.Debug("embedding cache", "hits", len(texts)-len(missIdx), "misses", len(missIdx))
	return out, nil
}

// Close closes the wrapped embedder and the Redis client.
func (e *Embedder) Close() error {
	return errors.Join(e.inner.Close(), e.client.Close())
}

func (e *Embedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + e.model + ":" + hex.EncodeToString(sum[:])
}

func encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decode(b []byte) ([]float32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid cached embedding length %d", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
