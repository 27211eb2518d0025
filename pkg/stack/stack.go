// Package stack assembles the study assistant from a resolved Config. Every
// command that ingests, answers or quizzes builds the same Stack.
package stack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/papercomputeco/studyrag/pkg/chunker"
	"github.com/papercomputeco/studyrag/pkg/config"
	"github.com/papercomputeco/studyrag/pkg/dotdir"
	"github.com/papercomputeco/studyrag/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/studyrag/pkg/embeddings/utils"
	"github.com/papercomputeco/studyrag/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/studyrag/pkg/eventstream/utils"
	"github.com/papercomputeco/studyrag/pkg/ingest"
	"github.com/papercomputeco/studyrag/pkg/llm"
	"github.com/papercomputeco/studyrag/pkg/logger"
	"github.com/papercomputeco/studyrag/pkg/quiz"
	"github.com/papercomputeco/studyrag/pkg/quizstore"
	quizstoreutils "github.com/papercomputeco/studyrag/pkg/quizstore/utils"
	"github.com/papercomputeco/studyrag/pkg/rag"
	"github.com/papercomputeco/studyrag/pkg/vector"
	vectorutils "github.com/papercomputeco/studyrag/pkg/vector/utils"
)

const (
	vectorDBFile = "studyrag.db"
	quizDBFile   = "quizzes.db"
)

// Options control how a Stack is built.
type Options struct {
	// ConfigDir overrides the .studyrag/ directory used for default database
	// paths.
	ConfigDir string

	// WithoutQuizStore skips opening the quiz store for commands that never
	// persist quizzes.
	WithoutQuizStore bool

	Logger *slog.Logger
}

// Stack holds the shared components. Close releases them in reverse order.
type Stack struct {
	Config    *config.Config
	Embedder  embeddings.Embedder
	Driver    vector.Driver
	Publisher eventstream.Publisher
	Pipeline  *ingest.Pipeline
	Retriever *rag.Retriever
	Answerer  *rag.Answerer
	Quizzes   *quiz.Generator
	QuizStore quizstore.Driver

	closers []func() error
	logger  *slog.Logger
}

// Build creates every component described by cfg.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Stack, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Stack{Config: cfg, logger: log}

	if err := s.build(ctx, opts); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Stack) build(ctx context.Context, opts Options) error {
	cfg := s.Config

	var err error
	s.Embedder, err = embeddingutils.NewEmbedder(ctx, &embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
		RateLimit:    cfg.Embedding.RateLimit,
		RedisURL:     cfg.Embedding.RedisCache,
		Logger:       s.logger,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	s.closers = append(s.closers, s.Embedder.Close)

	sqlitePath := cfg.VectorStore.SQLitePath
	if sqlitePath == "" && isSQLite(cfg.VectorStore.Provider) {
		sqlitePath, err = defaultPath(opts.ConfigDir, vectorDBFile)
		if err != nil {
			return err
		}
	}

	s.Driver, err = vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		TargetURL:    cfg.VectorStore.Target,
		APIKey:       cfg.VectorStore.APIKey,
		SQLitePath:   sqlitePath,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       s.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}
	s.closers = append(s.closers, s.Driver.Close)

	s.Publisher, err = eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      cfg.Events.Brokers,
		Topic:        cfg.Events.Topic,
		Logger:       s.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	s.closers = append(s.closers, s.Publisher.Close)

	s.Pipeline, err = ingest.NewPipeline(ingest.Config{
		Splitter: chunker.New(
			chunker.WithChunkSize(int(cfg.Ingest.ChunkSize)),
			chunker.WithOverlap(int(cfg.Ingest.ChunkOverlap)),
		),
		Embedder:   s.Embedder,
		Driver:     s.Driver,
		Publisher:  s.Publisher,
		Collection: cfg.VectorStore.Collection,
		Logger:     s.logger,
	})
	if err != nil {
		return err
	}

	answerCall, err := llm.NewCaller(ctx, llm.CallerConfig{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.Target,
		Logger:   s.logger,
	})
	if err != nil {
		return fmt.Errorf("creating answering model: %w", err)
	}

	quizModel := cfg.LLM.QuizModel
	if quizModel == "" {
		quizModel = cfg.LLM.Model
	}
	quizCall, err := llm.NewCaller(ctx, llm.CallerConfig{
		Provider:    cfg.LLM.Provider,
		Model:       quizModel,
		BaseURL:     cfg.LLM.Target,
		Temperature: quiz.Temperature,
		JSON:        true,
		Logger:      s.logger,
	})
	if err != nil {
		return fmt.Errorf("creating quiz model: %w", err)
	}

	s.Retriever = rag.NewRetriever(s.Embedder, s.Driver, cfg.VectorStore.Collection, s.logger)
	s.Answerer = rag.NewAnswerer(s.Retriever, answerCall, s.logger)
	s.Quizzes = quiz.NewGenerator(quizCall, s.Retriever, s.logger, quiz.WithObjectReply(true))

	if opts.WithoutQuizStore {
		return nil
	}

	dsn := cfg.QuizStore.DSN
	if dsn == "" && isSQLite(cfg.QuizStore.Provider) {
		dsn, err = defaultPath(opts.ConfigDir, quizDBFile)
		if err != nil {
			return err
		}
	}

	s.QuizStore, err = quizstoreutils.NewQuizStore(ctx, &quizstoreutils.NewQuizStoreOpts{
		ProviderType: cfg.QuizStore.Provider,
		DSN:          dsn,
	})
	if err != nil {
		return fmt.Errorf("creating quiz store: %w", err)
	}
	s.closers = append(s.closers, s.QuizStore.Close)

	return nil
}

// Close releases every component that was created.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func isSQLite(provider string) bool {
	return provider == "sqlite" || provider == "sqlitevec"
}

func defaultPath(configDir, name string) (string, error) {
	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return "", fmt.Errorf("resolving studyrag directory: %w", err)
	}
	return filepath.Join(target, name), nil
}
