// Package llm provides single-turn language model callers used for grounded
// answering and quiz generation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/papercomputeco/studyrag/pkg/logger"
)

const (
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"

	// DefaultTimeout bounds a single model call.
	DefaultTimeout = 60 * time.Second
)

// ErrEmptyResponse is returned when a provider replies without any text.
var ErrEmptyResponse = errors.New("model returned no content")

// CallFunc sends a prompt to a model and returns its raw text reply.
type CallFunc func(ctx context.Context, prompt string) (string, error)

// CallerConfig holds configuration for creating an LLM caller.
type CallerConfig struct {
	Provider string // "openai", "groq", "anthropic", "ollama" or "gemini"
	Model    string
	APIKey   string // explicit API key (highest priority)
	BaseURL  string // override base URL

	Temperature float64

	// JSON asks the provider for a JSON response where it supports it.
	JSON bool

	Timeout time.Duration
	Logger  *slog.Logger
}

// HasCredentials reports whether an API key can be resolved for cfg without
// creating a caller.
func HasCredentials(cfg CallerConfig) bool {
	provider := strings.ToLower(cfg.Provider)
	if cfg.APIKey != "" || provider == ProviderOllama {
		return true
	}
	return resolveAPIKeyFromEnv(provider) != ""
}

// NewCaller creates a CallFunc for cfg.
// Resolution order for API key:
//  1. Explicit APIKey in config
//  2. Environment variables (OPENAI_API_KEY, GROQ_API_KEY, ANTHROPIC_API_KEY,
//     GEMINI_API_KEY)
//  3. Fall back to Ollama at localhost:11434
func NewCaller(ctx context.Context, cfg CallerConfig) (CallFunc, error) {
	provider := strings.ToLower(cfg.Provider)
	model := cfg.Model

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = resolveAPIKeyFromEnv(provider)
	}

	// If no key found and provider is not explicitly ollama, fall back to ollama
	if apiKey == "" && provider != ProviderOllama {
		log.Warn("no API key found, falling back to ollama", "provider", provider)
		provider = ProviderOllama
		model = ""
		cfg.BaseURL = ""
	}

	switch provider {
	case ProviderOpenAI, "":
		if model == "" {
			model = "gpt-4o-mini"
		}
		return newOpenAICaller(client, ProviderOpenAI, apiKey, model, baseURLOr(cfg.BaseURL, "https://api.openai.com"), cfg), nil

	case ProviderGroq:
		if model == "" {
			model = "llama-3.1-8b-instant"
		}
		return newOpenAICaller(client, ProviderGroq, apiKey, model, baseURLOr(cfg.BaseURL, "https://api.groq.com/openai"), cfg), nil

	case ProviderAnthropic:
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		return newAnthropicCaller(client, apiKey, model, baseURLOr(cfg.BaseURL, "https://api.anthropic.com"), cfg), nil

	case ProviderOllama:
		if model == "" {
			model = "llama3.2"
		}
		return newOllamaCaller(client, model, baseURLOr(cfg.BaseURL, "http://localhost:11434"), cfg), nil

	case ProviderGemini:
		if model == "" {
			model = "gemini-1.5-flash"
		}
		return newGeminiCaller(ctx, apiKey, model, timeout, cfg)

	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func baseURLOr(url, def string) string {
	if url == "" {
		return def
	}
	return strings.TrimRight(url, "/")
}

func resolveAPIKeyFromEnv(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case ProviderGroq:
		return os.Getenv("GROQ_API_KEY")
	case ProviderGemini:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	case ProviderOpenAI, "":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}
