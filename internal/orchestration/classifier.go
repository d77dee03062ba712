package orchestration

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopflow-ai/shopflow/pkg/llm"
)

// ReadySentinel is the marker the shopping agent emits, per its prompt
// contract, once purchase intent is established.
const ReadySentinel = "READY_TO_PURCHASE:"

// Decision is the typed branch outcome derived from the shopping stage's
// output.
type Decision string

const (
	// DecisionFulfillment routes the turn into the purchase pipeline.
	DecisionFulfillment Decision = "fulfillment"

	// DecisionConversation keeps the turn conversational.
	DecisionConversation Decision = "conversation"

	// DecisionAmbiguous marks a malformed or near-miss signal. The
	// orchestrator maps it to the conversation branch explicitly.
	DecisionAmbiguous Decision = "ambiguous"
)

// Classifier derives a branch decision from the shopping stage's output.
type Classifier interface {
	Classify(ctx context.Context, shoppingOutput string) (Decision, error)
}

// sentinelNearMiss matches case/spacing variants of the sentinel that the
// exact match misses. A variant must never trigger fulfillment, but it is
// worth naming rather than silently treating as conversation.
var sentinelNearMiss = regexp.MustCompile(`(?i)ready[_ ]?to[_ ]?purchase[ ]?:`)

// SentinelClassifier tests for the exact sentinel substring in the shopping
// output. Pure function of its input.
type SentinelClassifier struct{}

// Classify implements Classifier.
func (SentinelClassifier) Classify(_ context.Context, shoppingOutput string) (Decision, error) {
	if strings.Contains(shoppingOutput, ReadySentinel) {
		return DecisionFulfillment, nil
	}
	if sentinelNearMiss.MatchString(shoppingOutput) {
		return DecisionAmbiguous, nil
	}
	return DecisionConversation, nil
}

// RouterClassifier asks a second model call to emit a one-word route
// (CATALOG or CHAT) instead of relying on the shopping agent's sentinel.
type RouterClassifier struct {
	client llm.Client
	prompt string
	model  string
}

// NewRouterClassifier creates a router classifier using the given client
// and routing prompt.
func NewRouterClassifier(client llm.Client, prompt, model string) (*RouterClassifier, error) {
	if client == nil {
		return nil, fmt.Errorf("router classifier: llm client is required")
	}
	if prompt == "" {
		return nil, fmt.Errorf("router classifier: prompt is required")
	}
	return &RouterClassifier{client: client, prompt: prompt, model: model}, nil
}

// Classify implements Classifier. A routing word other than CATALOG or CHAT
// yields DecisionAmbiguous.
func (r *RouterClassifier) Classify(ctx context.Context, shoppingOutput string) (Decision, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: r.prompt},
		{Role: llm.RoleUser, Content: shoppingOutput},
	}
	var opts []llm.Option
	if r.model != "" {
		opts = append(opts, llm.WithModel(r.model))
	}

	resp, err := r.client.Chat(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("router classification: %w", err)
	}

	word := strings.ToUpper(strings.TrimSpace(resp.Content))
	switch {
	case strings.Contains(word, "CATALOG"):
		return DecisionFulfillment, nil
	case strings.Contains(word, "CHAT"):
		return DecisionConversation, nil
	default:
		return DecisionAmbiguous, nil
	}
}
