package orchestration

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/shopflow-ai/shopflow/internal/agent"
	"github.com/shopflow-ai/shopflow/internal/memory"
	"github.com/shopflow-ai/shopflow/internal/observability"
)

// Concurrent runs the purchase pipeline with the catalog and
// customer-service stages fanned out in parallel once purchase intent is
// established.
//
// State machine per turn:
//
//	Start → ShoppingInvoked → Branch
//	Branch(conversation|ambiguous) → Finalized
//	Branch(fulfillment) → ParallelFanOut → Joined → PaymentInvoked → Finalized
//
// The memory store is written exactly once, on Finalized, with the turn's
// final output. Any stage failure aborts the turn with no memory write.
type Concurrent struct {
	stages     Stages
	classifier Classifier
	store      *memory.Store
	settings   settings
}

// NewConcurrent creates the concurrent orchestrator.
func NewConcurrent(stages Stages, classifier Classifier, store *memory.Store, opts ...Option) (*Concurrent, error) {
	if err := stages.validate(true); err != nil {
		return nil, err
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if store == nil {
		return nil, fmt.Errorf("memory store is required")
	}
	return &Concurrent{
		stages:     stages,
		classifier: classifier,
		store:      store,
		settings:   newSettings(opts),
	}, nil
}

// Name implements Orchestrator.
func (o *Concurrent) Name() string {
	return "concurrent"
}

// Orchestrate processes one conversation turn.
func (o *Concurrent) Orchestrate(ctx context.Context, userInput string) (string, error) {
	rc := agent.NewRunContext(userInput, map[string]string{"orchestration": o.Name()})
	ctx, span := observability.StartSpan(ctx, "turn",
		trace.WithAttributes(
			attribute.String("turn.transaction_id", rc.TxID),
			attribute.String("orchestration.mode", o.Name()),
		),
	)
	defer span.End()

	o.settings.report("[1/4] Shopping Agent...")
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
		// Ambiguous routes to the conversation branch: a malformed sentinel
		// must never trigger fulfillment.
		o.store.Save(userInput, shopping)
		return shopping, nil
	}

	o.settings.report("[2/4] Catalog Agent (running concurrently)...")
	o.settings.report("[3/4] Customer Service Agent (running concurrently)...")

	// Fan out: both stages take the shopping summary as their sole input and
	// are independent of each other. The errgroup wait is the join barrier;
	// either failure cancels the sibling and aborts the turn.
	var catalogOut, serviceOut string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := o.settings.invokeStage(gctx, o.stages.Catalog, shopping, "", rc)
		if err != nil {
			return err
		}
		catalogOut = out
		return nil
	})
	g.Go(func() error {
		out, err := o.settings.invokeStage(gctx, o.stages.CustomerService, shopping, "", rc)
		if err != nil {
			return err
		}
		serviceOut = out
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return "", err
	}
	o.settings.report("      Complete")

	o.settings.report("[4/4] Payment Agent...")
	payment, err := o.settings.invokeStage(ctx, o.stages.Payment, fulfillmentPayload(catalogOut, serviceOut, shopping), "", rc)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	o.settings.report("      Complete")
	o.settings.report(orderBanner(payment))

	o.store.Save(userInput, payment)
	return payment, nil
}
