package orchestration

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopflow-ai/shopflow/internal/agent"
	"github.com/shopflow-ai/shopflow/internal/memory"
	"github.com/shopflow-ai/shopflow/internal/observability"
)

// Sequential runs the purchase pipeline as a chain: shopping, then on a
// fulfillment decision catalog followed by payment, each stage consuming
// the previous stage's output. Strictly slower than Concurrent but
// equivalent in outcome for the conversational branch.
//
// The memory store is written exactly once, after the turn finalizes —
// never a provisional entry mutated afterward.
type Sequential struct {
	stages     Stages
	classifier Classifier
	store      *memory.Store
	settings   settings
}

// NewSequential creates the sequential orchestrator. The customer-service
// stage is unused in this mode.
func NewSequential(stages Stages, classifier Classifier, store *memory.Store, opts ...Option) (*Sequential, error) {
	if err := stages.validate(false); err != nil {
		return nil, err
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if store == nil {
		return nil, fmt.Errorf("memory store is required")
	}
	return &Sequential{
		stages:     stages,
		classifier: classifier,
		store:      store,
		settings:   newSettings(opts),
	}, nil
}

// Name implements Orchestrator.
func (o *Sequential) Name() string {
	return "sequential"
}

// Orchestrate processes one conversation turn.
func (o *Sequential) Orchestrate(ctx context.Context, userInput string) (string, error) {
	rc := agent.NewRunContext(userInput, map[string]string{"orchestration": o.Name()})
	ctx, span := observability.StartSpan(ctx, "turn",
		trace.WithAttributes(
			attribute.String("turn.transaction_id", rc.TxID),
			attribute.String("orchestration.mode", o.Name()),
		),
	)
	defer span.End()

	o.settings.report("[1/3] Shopping Agent...")
	history := memory.Render(o.store.Load())
	shopping, err := o.settings.invokeStage(ctx, o.stages.Shopping, userInput, history, rc)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	o.settings.report("      " + shopping)

	decision, err := o.classifier.Classify(ctx, shopping)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	observability.CountDecision(string(decision))
	span.SetAttributes(attribute.String("turn.decision", string(decision)))

	if decision != DecisionFulfillment {
		o.store.Save(userInput, shopping)
		return shopping, nil
	}

	o.settings.report("[2/3] Product Catalog Agent...")
	catalog, err := o.settings.invokeStage(ctx, o.stages.Catalog, shopping, "", rc)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	o.settings.report("      Complete")

	o.settings.report("[3/3] Payment Agent...")
	payment, err := o.settings.invokeStage(ctx, o.stages.Payment, catalog, "", rc)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	o.settings.report("      Complete")
	o.settings.report(orderBanner(payment))

	o.store.Save(userInput, payment)
	return payment, nil
}
