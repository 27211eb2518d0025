package config

const (
	defaultOllamaTarget = "http://localhost:11434"
	defaultAPIListen    = ":8081"

	defaultVectorProvider  = "sqlite"
	defaultCollection      = "user_docs"
	defaultEmbeddingProv   = "ollama"
	defaultEmbeddingModel  = "embeddinggemma"
	defaultEmbeddingDims   = 768
	defaultLLMProvider     = "ollama"
	defaultLLMModel        = "llama3.2"
	defaultChunkSize       = 1000
	defaultChunkOverlap    = 200
	defaultIngestWorkers   = 3
	defaultIngestQueueSize = 64
	defaultQuizStore       = "sqlite"
	defaultEventsProvider  = "nop"
	defaultEventsTopic     = "studyrag.documents"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProv,
			Target:     defaultOllamaTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDims,
		},
		LLM: LLMConfig{
			Provider: defaultLLMProvider,
			Target:   defaultOllamaTarget,
			Model:    defaultLLMModel,
		},
		Ingest: IngestConfig{
			ChunkSize:    defaultChunkSize,
			ChunkOverlap: defaultChunkOverlap,
			Workers:      defaultIngestWorkers,
			QueueSize:    defaultIngestQueueSize,
		},
		QuizStore: QuizStoreConfig{
			Provider: defaultQuizStore,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
