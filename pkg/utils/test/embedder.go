package testutils

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"
)

// DefaultMockDims is the dimensionality of MockEmbedder vectors.
const DefaultMockDims = 16

// MockEmbedder is a test embedder that returns predictable embeddings.
// Unless overridden through Embeddings, a text embeds to a normalized bag of
// hashed words, so texts sharing words are nearer under cosine similarity.
type MockEmbedder struct {
	mu sync.Mutex

	Embeddings map[string][]float32

	// FailOn causes Embed to return an error when the input text matches
	FailOn string

	// FailAll makes every call fail.
	FailAll bool

	Dims int

	// Calls counts Embed and EmbedMany invocations.
	Calls int
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Dims:       DefaultMockDims,
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	return m.embed(text)
}

func (m *MockEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		// failed items are left empty
		out[i], _ = m.embed(t)
	}
	return out, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}

func (m *MockEmbedder) embed(text string) ([]float32, error) {
	if m.FailAll || (m.FailOn != "" && text == m.FailOn) {
		return nil, fmt.Errorf("mock embedding failure for: %s", text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}

	return HashEmbedding(text, m.Dims), nil
}

// HashEmbedding maps each lowercase word of text into one of dims buckets and
// normalizes the result. Empty text maps to a unit vector on the first axis.
func HashEmbedding(text string, dims int) []float32 {
	if dims <= 0 {
		dims = DefaultMockDims
	}
	vec := make([]float32, dims)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%uint32(dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}
