package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// MockResponse is one canned reply of a MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays canned replies in FIFO order and records every
// request. When the queue is empty it answers with the fallback reply, or
// with ErrProviderUnavailable when there is none.
type MockProvider struct {
	mu       sync.Mutex
	queue    []MockResponse
	fallback *MockResponse
	Calls    []Request
}

// NewMockProvider creates a MockProvider that replays responses once each.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{queue: responses}
}

// NewMockProviderFromFile creates a MockProvider that answers every request
// with the contents of path, typically a saved form spec. The content is
// still checked against the request schema.
func NewMockProviderFromFile(path string) (*MockProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mock response: %w", err)
	}
	m := &MockProvider{}
	m.Repeat(MockResponse{Content: data})
	return m, nil
}

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	var next MockResponse
	switch {
	case len(m.queue) > 0:
		next = m.queue[0]
		m.queue = m.queue[1:]
	case m.fallback != nil:
		next = *m.fallback
	default:
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("mock provider has no response queued")}
	}

	if next.Err != nil {
		return nil, next.Err
	}
	content, err := normalizeResponse(req.Schema, next.Content)
	if err != nil {
		return nil, err
	}
	return &Response{
		Content:    content,
		Usage:      next.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse queues resp after the responses already queued.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resp)
}

// Repeat sets the reply used once the queue is drained.
func (m *MockProvider) Repeat(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &resp
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
