package testutils

import (
	"context"
	"sync"
)

// MockLLM is a scripted language model. Call returns Responses in order and
// then repeats the last one; Err, when set, is returned instead.
type MockLLM struct {
	mu sync.Mutex

	Responses []string
	Err       error

	// Prompts records every prompt received.
	Prompts []string
}

func NewMockLLM(responses ...string) *MockLLM {
	return &MockLLM{Responses: responses}
}

// Call satisfies llm.CallFunc as a method value.
func (m *MockLLM) Call(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}

	i := len(m.Prompts) - 1
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	return m.Responses[i], nil
}

// LastPrompt returns the most recent prompt or "".
func (m *MockLLM) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}
