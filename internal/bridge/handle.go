package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Mixer/internal/domain"
)

// Outcome is the resolution of one transaction: the normalized event the
// response classified into, or the error it was rejected with.
type Outcome struct {
	Event *Event
	Err   error
}

// TransactionRegistry correlates outgoing request transactions with their
// pending completions. Implementations must resolve or reject a transaction
// at most once. The dispatcher only asks "is this mine, and how do I
// resolve it", so it can be tested against a fake.
type TransactionRegistry interface {
	Begin() (transaction string, done <-chan Outcome)
	Owns(transaction string) bool
	Resolve(transaction string, ev *Event) bool
	Reject(transaction string, err error) bool
	Abandon(transaction string)
}

// Notification is a normalized event pushed to general subscribers.
type Notification struct {
	Kind EventKind `json:"kind"`
	Data any       `json:"data,omitempty"`
}

// Emitter fans a Notification out to subscribers. Used for inbound messages
// that are not the answer to a transaction this handle owns.
type Emitter interface {
	Emit(n Notification)
}

// Sender writes one request of the audio-mixing domain to the gateway,
// stamped with the given transaction.
type Sender interface {
	SendRequest(ctx context.Context, transaction string, body any) error
}

// Handle is one local binding to the remote audio-mixing service for one
// participant-or-manager role. It holds this handle's own bound feed and
// room, both zero until a self join is observed and cleared again on
// leave/kick transitions. Only Dispatch mutates that state, and only for
// transitions concerning this handle, never for peers.
type Handle struct {
	send Sender
	reg  TransactionRegistry
	emit Emitter

	mu       sync.RWMutex
	feed     domain.ID
	room     domain.ID
	detached bool
}

func NewHandle(send Sender, reg TransactionRegistry, emit Emitter) *Handle {
	return &Handle{send: send, reg: reg, emit: emit}
}

// Feed returns this handle's bound feed identifier, zero when unbound.
func (h *Handle) Feed() domain.ID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.feed
}

// Room returns this handle's bound room identifier, zero when unbound.
func (h *Handle) Room() domain.ID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.room
}

// Bound reports whether the handle has joined a room.
func (h *Handle) Bound() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.feed.IsZero()
}

// Owns reports whether this handle issued the transaction and still awaits
// its answer. The transport uses it to route correlated responses.
func (h *Handle) Owns(transaction string) bool {
	return transaction != "" && h.reg.Owns(transaction)
}

// Detach stops future dispatch for this handle. Transactions already
// registered are not cancelled; their callers are expected to abandon them.
func (h *Handle) Detach() {
	h.mu.Lock()
	h.detached = true
	h.mu.Unlock()
	log.Info().Str("module", "bridge").Msg("handle detached")
}

// bind and clear keep feed and room moving together: both set or both zero.
func (h *Handle) bind(feed, room domain.ID) {
	h.mu.Lock()
	h.feed = feed
	h.room = room
	h.mu.Unlock()
	log.Debug().Str("module", "bridge").
		Str("feed", feed.String()).Str("room", room.String()).
		Msg("handle bound")
}

func (h *Handle) clear() {
	h.mu.Lock()
	h.feed = domain.ID{}
	h.room = domain.ID{}
	h.mu.Unlock()
	log.Debug().Str("module", "bridge").Msg("handle unbound")
}

// roundTrip registers a transaction, sends the request and waits for its
// resolution or ctx expiry. A resolution with a kind other than expect is a
// contract violation local to this call.
func (h *Handle) roundTrip(ctx context.Context, body any, expect EventKind) (*Event, error) {
	h.mu.RLock()
	detached := h.detached
	h.mu.RUnlock()
	if detached {
		return nil, ErrDetached
	}

	tx, done := h.reg.Begin()
	if err := h.send.SendRequest(ctx, tx, body); err != nil {
		h.reg.Abandon(tx)
		return nil, err
	}

	select {
	case <-ctx.Done():
		h.reg.Abandon(tx)
		return nil, ctx.Err()
	case out := <-done:
		if out.Err != nil {
			return nil, out.Err
		}
		if out.Event == nil || out.Event.Kind != expect {
			got := EventKind("none")
			if out.Event != nil {
				got = out.Event.Kind
			}
			return nil, fmt.Errorf("%w: expected %q, got %q", ErrContract, expect, got)
		}
		return out.Event, nil
	}
}
