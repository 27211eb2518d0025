// Package gemini implements embeddings.Embedder with Google's generative AI SDK.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/papercomputeco/studyrag/pkg/embeddings"
	"github.com/papercomputeco/studyrag/pkg/logger"
	"github.com/papercomputeco/studyrag/pkg/vector"
)

const (
	DefaultModel   = "text-embedding-004"
	DefaultTimeout = 60 * time.Second

	// APIKeyEnv is read when no key is configured.
	APIKeyEnv = "GEMINI_API_KEY"

	// maxBatch is the most contents BatchEmbedContents accepts per call.
	maxBatch = 100
)

type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Limiter *embeddings.Limiter
	Logger  *slog.Logger
}

type Embedder struct {
	client  *genai.Client
	model   *genai.EmbeddingModel
	timeout time.Duration
	limiter *embeddings.Limiter
	logger  *slog.Logger
}

// ResolveAPIKey returns key, or GEMINI_API_KEY, or GOOGLE_API_KEY.
func ResolveAPIKey(key string) string {
	if key != "" {
		return key
	}
	if k := os.Getenv(APIKeyEnv); k != "" {
		return k
	}
	return os.Getenv("GOOGLE_API_KEY")
}

func NewEmbedder(ctx context.Context, cfg Config) (*Embedder, error) {
	apiKey := ResolveAPIKey(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key: set %s", APIKeyEnv)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Embedder{
		client:  client,
		model:   client.EmbeddingModel(model),
		timeout: timeout,
		limiter: cfg.Limiter,
		logger:  log,
	}, nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit: %w", vector.ErrEmbedding, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("%w: gemini embed: %v", vector.ErrEmbedding, err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", vector.ErrEmbedding)
	}
	return res.Embedding.Values, nil
}

// EmbedMany embeds texts in batches of up to 100. A batch that fails is
// retried item by item.
func (e *Embedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))
		part := texts[start:end]

		vecs, err := e.embedBatch(ctx, part)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn("batch embedding failed, retrying per item",
				"count", len(part),
				"error", err,
			)
			vecs, err = embeddings.EmbedEach(ctx, part, e.Embed, e.logger)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	batch := e.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := e.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(res.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for i, emb := range res.Embeddings {
		if emb != nil {
			vecs[i] = emb.Values
		}
	}
	return vecs, nil
}

func (e *Embedder) Close() error {
	return e.client.Close()
}

var _ embeddings.Embedder = (*Embedder)(nil)
