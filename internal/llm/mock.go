package llm

import (
	"context"
	"sync"
)

// MockCompleter is an in-memory Completer for tests. It returns the queued
// responses in order and repeats the last one when the queue runs out.
type MockCompleter struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     []MockCall
}

// MockResponse is one canned answer
type MockResponse struct {
	Completion *Completion
	Err        error
	// Panic makes Complete panic with this value
	Panic any
}

// MockCall records a Complete invocation
type MockCall struct {
	Prompt string
	Config GenerationConfig
}

// NewMockCompleter creates a mock answering with the given responses
func NewMockCompleter(responses ...MockResponse) *MockCompleter {
	return &MockCompleter{responses: responses}
}

// Complete records the call and returns the next canned response
func (m *MockCompleter) Complete(ctx context.Context, prompt string, cfg GenerationConfig) (*Completion, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Prompt: prompt, Config: cfg})
	var response MockResponse
	if len(m.responses) > 0 {
		response = m.responses[0]
		if len(m.responses) > 1 {
			m.responses = m.responses[1:]
		}
	}
	m.mu.Unlock()

	if response.Panic != nil {
		panic(response.Panic)
	}
	if err := ctx.Err(); err != nil {
		return nil, &ModelServiceError{Err: err}
	}
	if response.Err != nil {
		return nil, response.Err
	}
	if response.Completion == nil {
		return &Completion{FinishReason: FinishNone}, nil
	}
	return response.Completion, nil
}

// Calls returns every recorded invocation
func (m *MockCompleter) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns how many times Complete was called
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
