package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopflow-ai/shopflow/internal/memory"
)

func newSequentialForTest(t *testing.T, script *stageScript, store *memory.Store, opts ...Option) *Sequential {
	t.Helper()
	orc, err := NewSequential(newTestStages(t, script.client()), SentinelClassifier{}, store, opts...)
	require.NoError(t, err)
	return orc
}

func TestSequential_FulfillmentChain(t *testing.T) {
	script := newStageScript()
	script.outputs["shopping"] = "READY_TO_PURCHASE: hiking boots"
	script.outputs["catalog"] = `{"products":[{"name":"boots"}]}`
	script.outputs["payment"] = `{"order_id":"ORD-2"}`
	store := memory.NewStore()
	orc := newSequentialForTest(t, script, store)

	out, err := orc.Orchestrate(context.Background(), "buy hiking boots")
	require.NoError(t, err)

	assert.Equal(t, `{"order_id":"ORD-2"}`, out)
	// Chain order: catalog consumes the shopping output, payment consumes
	// the catalog output.
	assert.Equal(t, "READY_TO_PURCHASE: hiking boots", script.lastPayload("catalog"))
	assert.Equal(t, `{"products":[{"name":"boots"}]}`, script.lastPayload("payment"))
	assert.Zero(t, script.callCount("service"), "customer service is not part of the sequential chain")

	turns := store.Load()
	require.Len(t, turns, 1)
	assert.Equal(t, out, turns[0].Output)
}

func TestSequential_ConversationFlow(t *testing.T) {
	script := newStageScript()
	script.outputs["shopping"] = "what size do you wear?"
	store := memory.NewStore()
	orc := newSequentialForTest(t, script, store)

	out, err := orc.Orchestrate(context.Background(), "I need boots")
	require.NoError(t, err)

	assert.Equal(t, "what size do you wear?", out)
	assert.Zero(t, script.callCount("catalog"))
	assert.Zero(t, script.callCount("payment"))
	assert.Equal(t, 1, store.Len())
}

func TestSequential_MemoryWrittenOnlyAfterFinalization(t *testing.T) {
	script := newStageScript()
	script.outputs["shopping"] = "READY_TO_PURCHASE: a backpack"
	store := memory.NewStore()

	// While any stage runs, no provisional entry may exist.
	observed := -1
	script.hooks["payment"] = func(context.Context) error {
		observed = store.Len()
		return nil
	}
	orc := newSequentialForTest(t, script, store)

	out, err := orc.Orchestrate(context.Background(), "buy the backpack")
	require.NoError(t, err)

	assert.Zero(t, observed, "memory must not hold a placeholder entry mid-turn")
	turns := store.Load()
	require.Len(t, turns, 1)
	assert.Equal(t, out, turns[0].Output)
}

func TestSequential_CatalogFailureAbortsTurn(t *testing.T) {
	rateErr := errors.New("rate limited")
	script := newStageScript()
	script.outputs["shopping"] = "READY_TO_PURCHASE: a lamp"
	script.errs["catalog"] = rateErr
	store := memory.NewStore()
	orc := newSequentialForTest(t, script, store)

	_, err := orc.Orchestrate(context.Background(), "buy the lamp")
	require.Error(t, err)
	assert.ErrorIs(t, err, rateErr)
	assert.Zero(t, script.callCount("payment"))
	assert.Zero(t, store.Len())
}

func TestSequential_WithRouterClassifier(t *testing.T) {
	// The router variant consults a second model call instead of the
	// sentinel. The shopping output carries a sentinel, but the router
	// says CHAT: the decision comes from the router alone.
	script := newStageScript()
	script.outputs["shopping"] = "READY_TO_PURCHASE: a scarf"
	script.outputs["router"] = "CHAT"
	client := script.client()

	router, err := NewRouterClassifier(client, "router-system", "")
	require.NoError(t, err)

	store := memory.NewStore()
	orc, err := NewSequential(newTestStages(t, client), router, store)
	require.NoError(t, err)

	out, err := orc.Orchestrate(context.Background(), "buy the scarf")
	require.NoError(t, err)

	assert.Equal(t, "READY_TO_PURCHASE: a scarf", out)
	assert.Equal(t, 1, script.callCount("router"))
	assert.Zero(t, script.callCount("catalog"))
	assert.Equal(t, 1, store.Len())
}
