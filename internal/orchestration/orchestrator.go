// Package orchestration implements the conversation-turn state machine:
// shopping intent, branch classification, the parallel catalog and
// customer-service fan-out, and payment finalization, with a single
// end-of-turn write to the memory store.
package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/shopflow-ai/shopflow/internal/agent"
)

const defaultStageTimeout = 60 * time.Second

// Orchestrator processes one conversation turn and returns the final output.
// Turns are strictly sequential; implementations are not safe for
// overlapping Orchestrate calls.
type Orchestrator interface {
	Name() string
	Orchestrate(ctx context.Context, userInput string) (string, error)
}

// Stages groups the agent stages of the shopping pipeline.
type Stages struct {
	Shopping        *agent.Stage
	Catalog         *agent.Stage
	CustomerService *agent.Stage
	Payment         *agent.Stage
}

func (s Stages) validate(needService bool) error {
	if s.Shopping == nil {
		return fmt.Errorf("shopping stage is required")
	}
	if s.Catalog == nil {
		return fmt.Errorf("catalog stage is required")
	}
	if needService && s.CustomerService == nil {
		return fmt.Errorf("customer service stage is required")
	}
	if s.Payment == nil {
		return fmt.Errorf("payment stage is required")
	}
	return nil
}

// settings holds options shared by both orchestrators.
type settings struct {
	stageTimeout time.Duration
	reporter     func(string)
}

func newSettings(opts []Option) settings {
	s := settings{stageTimeout: defaultStageTimeout}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures an orchestrator.
type Option func(*settings)

// WithStageTimeout bounds each stage invocation. A timed-out stage fails the
// turn like any other stage failure.
func WithStageTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.stageTimeout = d
	}
}

// WithReporter sets a progress callback for presentation (step labels, the
// order summary banner). Purely cosmetic; nil disables reporting.
func WithReporter(fn func(string)) Option {
	return func(s *settings) {
		s.reporter = fn
	}
}

func (s *settings) report(line string) {
	if s.reporter != nil {
		s.reporter(line)
	}
}

// invokeStage applies the per-stage timeout around one stage call.
func (s *settings) invokeStage(ctx context.Context, st *agent.Stage, payload, history string, rc *agent.RunContext) (string, error) {
	if s.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.stageTimeout)
		defer cancel()
	}
	return st.Invoke(ctx, payload, history, rc)
}

// fulfillmentPayload builds the composite payment input from the joined
// fan-out results plus the original shopping summary.
func fulfillmentPayload(catalog, service, shopping string) string {
	return fmt.Sprintf(
		"Catalog Information:\n%s\n\nCustomer Service Information:\n%s\n\nOriginal Request:\n%s\n",
		catalog, service, shopping,
	)
}

const bannerRule = "============================================================"

// orderBanner frames the payment output for presentation.
func orderBanner(payment string) string {
	return bannerRule + "\nORDER SUMMARY\n" + bannerRule + "\n" + payment + "\n" + bannerRule
}
