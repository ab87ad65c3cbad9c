package audit_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authz/pkg/audit"
)

func emitted(t *testing.T, n int) []audit.Event {
	t.Helper()
	ctx := context.Background()

	sink := audit.NewMemorySink()
	em := audit.NewEmitter(sink)
	for range n {
		ev := denied("k1")
		ev.Metadata = map[string]any{"n": 1, "nested": map[string]any{"a": "b"}}
		em.Emit(ctx, ev)
	}
	require.NoError(t, em.Close(ctx))
	return sink.Events()
}

func TestVerifyChain(t *testing.T) {
	t.Parallel()

	t.Run("intact", func(t *testing.T) {
		assert.NoError(t, audit.VerifyChain(emitted(t, 5)))
	})

	t.Run("window of a chain", func(t *testing.T) {
		assert.NoError(t, audit.VerifyChain(emitted(t, 5)[2:]))
	})

	t.Run("empty", func(t *testing.T) {
		assert.NoError(t, audit.VerifyChain(nil))
	})

	t.Run("tampered field", func(t *testing.T) {
		events := emitted(t, 3)
		events[1].Outcome = audit.OutcomeSuccess
		assert.ErrorIs(t, audit.VerifyChain(events), audit.ErrChainBroken)
	})

	t.Run("removed event", func(t *testing.T) {
		events := emitted(t, 3)
		events = append(events[:1], events[2:]...)
		assert.ErrorIs(t, audit.VerifyChain(events), audit.ErrChainBroken)
	})

	t.Run("reordered", func(t *testing.T) {
		events := emitted(t, 3)
		events[0], events[1] = events[1], events[0]
		assert.ErrorIs(t, audit.VerifyChain(events), audit.ErrChainBroken)
	})
}

func TestComputeHash_StableAcrossJSONRoundTrip(t *testing.T) {
	t.Parallel()

	events := emitted(t, 1)
	var buf bytes.Buffer
	_, err := audit.NewReader(sinkOf(events)).Export(context.Background(), audit.Criteria{}, &buf)
	require.NoError(t, err)

	decoded := decodeLines(t, buf.String())
	require.Len(t, decoded, 1)
	assert.Equal(t, events[0].Hash, audit.ComputeHash(decoded[0]))
}
