package provider

import (
	"context"
	"sync"

	"github.com/shopflow-ai/shopflow/pkg/llm"
)

// MockClient is a scripted llm.Client for testing.
//
// When ChatFunc is set it handles every call. Otherwise responses and errors
// are consumed in order, falling back to a canned response when the script
// runs out. All calls are recorded; safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	// ChatFunc, when non-nil, handles every Chat call.
	ChatFunc func(ctx context.Context, messages []llm.Message, options llm.Options) (*llm.Response, error)

	// Scripted responses and errors, consumed in order.
	Responses []*llm.Response
	Errors    []error

	// Recorded calls.
	Calls       [][]llm.Message
	CallOptions []llm.Options

	index int
}

// NewMockClient creates an empty mock client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Chat implements llm.Client.
func (m *MockClient) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*llm.Response, error) {
	var options llm.Options
	for _, opt := range opts {
		opt(&options)
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, messages)
	m.CallOptions = append(m.CallOptions, options)
	fn := m.ChatFunc
	var resp *llm.Response
	var err error
	if fn == nil {
		if m.index < len(m.Errors) && m.Errors[m.index] != nil {
			err = m.Errors[m.index]
		} else if m.index < len(m.Responses) {
			resp = m.Responses[m.index]
		}
		m.index++
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages, options)
	}
	if err != nil {
		return nil, err
	}
	if resp != nil {
		return resp, nil
	}
	return &llm.Response{Content: "mock response", FinishReason: "stop"}, nil
}

// Close implements llm.Client.
func (m *MockClient) Close() error {
	return nil
}

// CallCount returns the number of recorded Chat calls.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
