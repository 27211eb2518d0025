// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/studyrag/pkg/embeddings"
	"github.com/papercomputeco/studyrag/pkg/embeddings/cache"
	"github.com/papercomputeco/studyrag/pkg/embeddings/gemini"
	"github.com/papercomputeco/studyrag/pkg/embeddings/ollama"
	"github.com/papercomputeco/studyrag/pkg/embeddings/openai"
	"github.com/papercomputeco/studyrag/pkg/logger"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
	Dimensions   uint

	// RateLimit caps provider calls per second. Zero disables it.
	RateLimit uint

	// RedisURL enables the embedding cache when set.
	RedisURL string

	Logger *slog.Logger
}

// NewEmbedder builds the configured provider, pacing its requests with the
// rate limit and wrapping it with the cache when those are enabled.
func NewEmbedder(ctx context.Context, o *NewEmbedderOpts) (embeddings.Embedder, error) {
	log := o.Logger
	if log == nil {
		log = logger.Nop()
	}

	var (
		e   embeddings.Embedder
		err error
	)
	limiter := embeddings.NewLimiter(float64(o.RateLimit))

	switch o.ProviderType {
	case "ollama":
		e, err = ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
			Limiter: limiter,
			Logger:  log,
		})
	case "openai":
		e, err = openai.NewEmbedder(openai.Config{
			BaseURL:    o.TargetURL,
			APIKey:     o.APIKey,
			Model:      o.Model,
			Dimensions: o.Dimensions,
			Limiter:    limiter,
			Logger:     log,
		})
	case "gemini":
		e, err = gemini.NewEmbedder(ctx, gemini.Config{
			APIKey:  o.APIKey,
			Model:   o.Model,
			Limiter: limiter,
			Logger:  log,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
	if err != nil {
		return nil, err
	}

	if o.RedisURL != "" {
		client, err := cache.NewClient(ctx, o.RedisURL)
		if err != nil {
			e.Close()
			return nil, err
		}
		e = cache.New(e, client, cache.Config{Model: o.ProviderType + "/" + o.Model}, log)
		log.Info("embedding cache enabled")
	}

	return e, nil
}
