package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent studyrag configuration stored as config.toml
// in the .studyrag/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	API         APIConfig         `toml:"api"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	LLM         LLMConfig         `toml:"llm"`
	Ingest      IngestConfig      `toml:"ingest"`
	QuizStore   QuizStoreConfig   `toml:"quiz_store"`
	Events      EventsConfig      `toml:"events"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`

	// RateLimit is the maximum number of provider requests per second.
	// Zero disables rate limiting.
	RateLimit uint `toml:"rate_limit,omitempty"`

	// RedisCache is a redis:// URL. When set, embeddings are cached in Redis.
	RedisCache string `toml:"redis_cache,omitempty"`
}

// LLMConfig holds the language model settings used for answering and quizzes.
type LLMConfig struct {
	Provider  string `toml:"provider,omitempty"`
	Target    string `toml:"target,omitempty"`
	Model     string `toml:"model,omitempty"`
	QuizModel string `toml:"quiz_model,omitempty"`
}

// IngestConfig holds chunking and ingestion worker settings.
type IngestConfig struct {
	ChunkSize    uint `toml:"chunk_size,omitempty"`
	ChunkOverlap uint `toml:"chunk_overlap,omitempty"`
	Workers      uint `toml:"workers,omitempty"`
	QueueSize    uint `toml:"queue_size,omitempty"`
}

// QuizStoreConfig holds settings for quiz persistence.
type QuizStoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	DSN      string `toml:"dsn,omitempty"`
}

// EventsConfig holds document event publishing settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),

	"vector_store.provider":    stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":      stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.collection":  stringKey(func(c *Config) *string { return &c.VectorStore.Collection }),
	"vector_store.sqlite_path": stringKey(func(c *Config) *string { return &c.VectorStore.SQLitePath }),
	"vector_store.api_key":     stringKey(func(c *Config) *string { return &c.VectorStore.APIKey }),

	"embedding.provider":    stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":      stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":       stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions":  uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	"embedding.rate_limit":  uintKey("embedding.rate_limit", func(c *Config) *uint { return &c.Embedding.RateLimit }),
	"embedding.redis_cache": stringKey(func(c *Config) *string { return &c.Embedding.RedisCache }),

	"llm.provider":   stringKey(func(c *Config) *string { return &c.LLM.Provider }),
	"llm.target":     stringKey(func(c *Config) *string { return &c.LLM.Target }),
	"llm.model":      stringKey(func(c *Config) *string { return &c.LLM.Model }),
	"llm.quiz_model": stringKey(func(c *Config) *string { return &c.LLM.QuizModel }),

	"ingest.chunk_size":    uintKey("ingest.chunk_size", func(c *Config) *uint { return &c.Ingest.ChunkSize }),
	"ingest.chunk_overlap": uintKey("ingest.chunk_overlap", func(c *Config) *uint { return &c.Ingest.ChunkOverlap }),
	"ingest.workers":       uintKey("ingest.workers", func(c *Config) *uint { return &c.Ingest.Workers }),
	"ingest.queue_size":    uintKey("ingest.queue_size", func(c *Config) *uint { return &c.Ingest.QueueSize }),

	"quiz_store.provider": stringKey(func(c *Config) *string { return &c.QuizStore.Provider }),
	"quiz_store.dsn":      stringKey(func(c *Config) *string { return &c.QuizStore.DSN }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
}
