package orchestration

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopflow-ai/shopflow/internal/memory"
)

func newConcurrentForTest(t *testing.T, script *stageScript, store *memory.Store, opts ...Option) *Concurrent {
	t.Helper()
	orc, err := NewConcurrent(newTestStages(t, script.client()), SentinelClassifier{}, store, opts...)
	require.NoError(t, err)
	return orc
}

func TestConcurrent_FulfillmentFlow(t *testing.T) {
	script := newStageScript()
	script.outputs["shopping"] = "READY_TO_PURCHASE: running shoes"
	script.outputs["payment"] = `{"order_id":"ORD-1"}`
	store := memory.NewStore()
	orc := newConcurrentForTest(t, script, store)

	out, err := orc.Orchestrate(context.Background(), "I want to buy running shoes")
	require.NoError(t, err)

	assert.Equal(t, `{"order_id":"ORD-1"}`, out)
	assert.Equal(t, 1, script.callCount("shopping"))
	assert.Equal(t, 1, script.callCount("catalog"))
	assert.Equal(t, 1, script.callCount("service"))
	assert.Equal(t, 1, script.callCount("payment"))

	// Both enrichment stages consume the shopping summary as their sole input.
	assert.Equal(t, "READY_TO_PURCHASE: running shoes", script.lastPayload("catalog"))
	assert.Equal(t, "READY_TO_PURCHASE: running shoes", script.lastPayload("service"))

	// The payment payload embeds both joined outputs plus the original summary.
	paymentIn := script.lastPayload("payment")
	assert.Contains(t, paymentIn, "catalog output")
	assert.Contains(t, paymentIn, "service output")
	assert.Contains(t, paymentIn, "READY_TO_PURCHASE: running shoes")

	turns := store.Load()
	require.Len(t, turns, 1)
	assert.Equal(t, "I want to buy running shoes", turns[0].UserInput)
	assert.Equal(t, out, turns[0].Output)
}

func TestConcurrent_ConversationFlow(t *testing.T) {
	script := newStageScript()
	script.outputs["shopping"] = "We have running, hiking, and casual shoes - any preference?"
	store := memory.NewStore()
	orc := newConcurrentForTest(t, script, store)

	out, err := orc.Orchestrate(context.Background(), "what kind of shoes do you have?")
	require.NoError(t, err)

	assert.Equal(t, script.outputs["shopping"], out)
	assert.Equal(t, 1, script.callCount("shopping"))
	assert.Zero(t, script.callCount("catalog"))
	assert.Zero(t, script.callCount("service"))
	assert.Zero(t, script.callCount("payment"))

	turns := store.Load()
	require.Len(t, turns, 1)
	assert.Equal(t, out, turns[0].Output)
}

func TestConcurrent_AmbiguousSentinelStaysConversational(t *testing.T) {
	script := newStageScript()
	script.outputs["shopping"] = "ready_to_purchase: running shoes"
	store := memory.NewStore()
	orc := newConcurrentForTest(t, script, store)

	out, err := orc.Orchestrate(context.Background(), "buy them")
	require.NoError(t, err)

	assert.Equal(t, script.outputs["shopping"], out)
	assert.Zero(t, script.callCount("catalog"))
	assert.Zero(t, script.callCount("payment"))
	assert.Equal(t, 1, store.Len())
}

func TestConcurrent_FanOutRunsConcurrently(t *testing.T) {
	script := newStageScript()
	script.outputs["shopping"] = "READY_TO_PURCHASE: a kayak"

	// Each enrichment stage blocks until the other has entered. Sequential
	// execution would never release the gate.
	var entered int32
	gate := make(chan struct{})
	barrier := func(ctx context.Context) error {
		if atomic.AddInt32(&entered, 1) == 2 {
			close(gate)
		}
		select {
		case <-gate:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("enrichment stages did not overlap")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	script.hooks["catalog"] = barrier
	script.hooks["service"] = barrier

	store := memory.NewStore()
	orc := newConcurrentForTest(t, script, store)

	_, err := orc.Orchestrate(context.Background(), "buy the kayak")
	require.NoError(t, err)

	// The join is a barrier: payment saw both completed outputs.
	paymentIn := script.lastPayload("payment")
	assert.Contains(t, paymentIn, "catalog output")
	assert.Contains(t, paymentIn, "service output")
}

func TestConcurrent_EnrichmentFailureAbortsTurn(t *testing.T) {
	transportErr := errors.New("transport failure")
	script := newStageScript()
	script.outputs["shopping"] = "READY_TO_PURCHASE: a drone"
	script.errs["catalog"] = transportErr
	store := memory.NewStore()
	orc := newConcurrentForTest(t, script, store)

	_, err := orc.Orchestrate(context.Background(), "buy the drone")
	require.Error(t, err)
	assert.ErrorIs(t, err, transportErr)

	assert.Zero(t, script.callCount("payment"), "payment must never run after a fan-out failure")
	assert.Zero(t, store.Len(), "memory must stay unchanged on an aborted turn")
}

func TestConcurrent_ShoppingFailureAbortsTurn(t *testing.T) {
	authErr := errors.New("authentication failed")
	script := newStageScript()
	script.errs["shopping"] = authErr
	store := memory.NewStore()
	orc := newConcurrentForTest(t, script, store)

	_, err := orc.Orchestrate(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, authErr)
	assert.Zero(t, store.Len())
}

func TestConcurrent_HistoryIsolation(t *testing.T) {
	script := newStageScript()
	script.outputs["shopping"] = "READY_TO_PURCHASE: trail shoes"
	store := memory.NewStore()
	store.Save("earlier question", "earlier answer")
	orc := newConcurrentForTest(t, script, store)

	_, err := orc.Orchestrate(context.Background(), "buy trail shoes")
	require.NoError(t, err)

	// Only the shopping stage sees conversation history.
	assert.Contains(t, script.lastSystem("shopping"), "earlier answer")
	for _, stage := range []string{"catalog", "service", "payment"} {
		assert.NotContains(t, script.lastSystem(stage), "earlier answer", stage)
		assert.NotContains(t, script.lastPayload(stage), "earlier answer", stage)
	}
}

func TestConcurrent_StageTimeoutFailsTurn(t *testing.T) {
	script := newStageScript()
	script.outputs["shopping"] = "READY_TO_PURCHASE: a canoe"
	script.hooks["catalog"] = func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	store := memory.NewStore()
	orc := newConcurrentForTest(t, script, store, WithStageTimeout(20*time.Millisecond))

	_, err := orc.Orchestrate(context.Background(), "buy the canoe")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, script.callCount("payment"))
	assert.Zero(t, store.Len())
}

func TestConcurrent_MemoryAccumulatesAcrossTurns(t *testing.T) {
	script := newStageScript()
	script.outputs["shopping"] = "no sentinel here"
	store := memory.NewStore()
	orc := newConcurrentForTest(t, script, store)

	for i := 0; i < 3; i++ {
		_, err := orc.Orchestrate(context.Background(), "chat")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.Len())
}

func TestNewConcurrent_Validation(t *testing.T) {
	script := newStageScript()
	stages := newTestStages(t, script.client())

	_, err := NewConcurrent(Stages{}, SentinelClassifier{}, memory.NewStore())
	assert.Error(t, err)

	_, err = NewConcurrent(stages, nil, memory.NewStore())
	assert.Error(t, err)

	_, err = NewConcurrent(stages, SentinelClassifier{}, nil)
	assert.Error(t, err)
}
