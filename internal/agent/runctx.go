package agent

import (
	"time"

	"github.com/google/uuid"
)

const snippetLimit = 64

// RunContext is per-turn ephemeral metadata attached to every stage call for
// external tracing. Orchestration logic never inspects or branches on it.
type RunContext struct {
	TxID         string
	StartedAt    time.Time
	InputSnippet string
	Tags         map[string]string
}

// NewRunContext creates a fresh run context for one conversation turn.
func NewRunContext(userInput string, tags map[string]string) *RunContext {
	return &RunContext{
		TxID:         uuid.New().String(),
		StartedAt:    time.Now().UTC(),
		InputSnippet: truncate(userInput, snippetLimit),
		Tags:         tags,
	}
}

// Metadata flattens the run context into an opaque key/value bag for the
// LLM client.
func (rc *RunContext) Metadata() map[string]string {
	meta := map[string]string{
		"transaction_id": rc.TxID,
	}
	for k, v := range rc.Tags {
		meta[k] = v
	}
	return meta
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
