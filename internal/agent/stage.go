// Package agent implements the stage abstraction: a named, stateless
// prompt-to-completion transformation backed by an LLM client.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopflow-ai/shopflow/internal/observability"
	"github.com/shopflow-ai/shopflow/pkg/llm"
)

// ErrHistoryNotAllowed is returned when history is passed to a stage that
// does not consume it. Only the shopping stage reads conversation memory.
var ErrHistoryNotAllowed = errors.New("stage does not accept conversation history")

// StageDef describes one agent role. Immutable after construction; one
// stage per role, reused across turns.
type StageDef struct {
	Name            string
	Role            string
	SystemPrompt    string
	RequiresHistory bool

	// Model overrides the client default when non-empty.
	Model string
}

// Stage is a stateless transformation from an input payload to a completion.
// Stages never touch the memory store.
type Stage struct {
	def    StageDef
	client llm.Client
}

// NewStage creates a stage from its definition.
func NewStage(def StageDef, client llm.Client) (*Stage, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("stage name is required")
	}
	if def.SystemPrompt == "" {
		return nil, fmt.Errorf("stage %s: system prompt is required", def.Name)
	}
	if client == nil {
		return nil, fmt.Errorf("stage %s: llm client is required", def.Name)
	}
	return &Stage{def: def, client: client}, nil
}

// Name returns the stage name.
func (s *Stage) Name() string {
	return s.def.Name
}

// RequiresHistory reports whether the stage consumes conversation history.
func (s *Stage) RequiresHistory() bool {
	return s.def.RequiresHistory
}

// Invoke builds the prompt and obtains one completion. history is the
// rendered conversation history and must be empty for stages that do not
// require it. Client errors surface unchanged, wrapped with the stage name.
func (s *Stage) Invoke(ctx context.Context, payload, history string, rc *RunContext) (string, error) {
	if history != "" && !s.def.RequiresHistory {
		return "", fmt.Errorf("stage %s: %w", s.def.Name, ErrHistoryNotAllowed)
	}

	attrs := []attribute.KeyValue{
		attribute.String("stage.name", s.def.Name),
		attribute.String("stage.role", s.def.Role),
	}
	if rc != nil {
		attrs = append(attrs,
			attribute.String("turn.transaction_id", rc.TxID),
			attribute.String("turn.input_snippet", rc.InputSnippet),
		)
	}
	ctx, span := observability.StartSpan(ctx, "stage."+s.def.Name, trace.WithAttributes(attrs...))
	defer span.End()

	systemPrompt := s.def.SystemPrompt
	if s.def.RequiresHistory && history != "" {
		systemPrompt += "\n\nConversation History:\n" + history
	}
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: payload},
	}

	var opts []llm.Option
	if s.def.Model != "" {
		opts = append(opts, llm.WithModel(s.def.Model))
	}
	if rc != nil {
		opts = append(opts, llm.WithMetadata(rc.Metadata()))
	}

	start := time.Now()
	resp, err := s.client.Chat(ctx, messages, opts...)
	observability.ObserveStage(s.def.Name, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("stage %s: %w", s.def.Name, err)
	}
	return resp.Content, nil
}
