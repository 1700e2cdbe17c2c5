package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Mixer/internal/bridge"
)

func TestResolveDeliversOutcomeOnce(t *testing.T) {
	req := require.New(t)
	r := New()

	tx, done := r.Begin()
	req.True(r.Owns(tx))
	req.Equal(1, r.Pending())

	ev := &bridge.Event{Kind: bridge.EventSuccess}
	req.True(r.Resolve(tx, ev))
	req.False(r.Owns(tx))
	req.Equal(0, r.Pending())

	out := <-done
	req.NoError(out.Err)
	req.Equal(ev, out.Event)

	// Later completions for the same transaction are no-ops.
	req.False(r.Resolve(tx, ev))
	req.False(r.Reject(tx, errors.New("late")))
}

func TestRejectDeliversError(t *testing.T) {
	req := require.New(t)
	r := New()

	tx, done := r.Begin()
	cause := &bridge.ProtocolError{Code: 404, Message: "not found"}
	req.True(r.Reject(tx, cause))

	out := <-done
	req.Nil(out.Event)
	req.ErrorIs(out.Err, cause)
}

func TestAbandonDropsWithoutOutcome(t *testing.T) {
	req := require.New(t)
	r := New()

	tx, done := r.Begin()
	r.Abandon(tx)
	req.False(r.Owns(tx))
	req.False(r.Resolve(tx, &bridge.Event{Kind: bridge.EventSuccess}))

	select {
	case out := <-done:
		t.Fatalf("unexpected outcome after abandon: %+v", out)
	default:
	}
}

func TestTransactionsAreIndependent(t *testing.T) {
	req := require.New(t)
	r := New()

	tx1, done1 := r.Begin()
	tx2, done2 := r.Begin()
	req.NotEqual(tx1, tx2)

	// Responses may arrive out of issuance order; correlation is by id.
	req.True(r.Resolve(tx2, &bridge.Event{Kind: bridge.EventCreated}))
	req.True(r.Resolve(tx1, &bridge.Event{Kind: bridge.EventDestroyed}))

	req.Equal(bridge.EventDestroyed, (<-done1).Event.Kind)
	req.Equal(bridge.EventCreated, (<-done2).Event.Kind)
}
