// Package llm defines the text-completion client contract consumed by agent
// stages. Concrete clients live in the provider subpackage.
package llm

import (
	"context"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single role-tagged chat message.
type Message struct {
	Role    string
	Content string
}

// Usage tracks token usage for a single completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response represents a single text completion.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
	Model        string
}

// Options holds per-request generation options.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int

	// Metadata is an opaque key/value bag attached for external tracing.
	// Clients may forward it to the backend; nothing branches on it.
	Metadata map[string]string
}

// Option is a functional option for completion requests.
type Option func(*Options)

// WithModel sets the model for this request.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

// WithMaxTokens caps the number of generated tokens.
func WithMaxTokens(tokens int) Option {
	return func(o *Options) {
		o.MaxTokens = tokens
	}
}

// WithMetadata attaches opaque run metadata to the request.
func WithMetadata(meta map[string]string) Option {
	return func(o *Options) {
		o.Metadata = meta
	}
}

// Client is the synchronous completion interface backing every agent stage.
type Client interface {
	// Chat performs a chat completion over the given messages.
	Chat(ctx context.Context, messages []Message, opts ...Option) (*Response, error)

	// Close releases client resources.
	Close() error
}
