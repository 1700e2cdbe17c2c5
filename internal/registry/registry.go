// Package registry correlates outgoing request transactions with their
// pending completions.
package registry

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Mixer/internal/bridge"
)

// Registry is a mutex-guarded map of transaction id to pending completion.
// Each transaction is resolved or rejected at most once: the first of
// Resolve/Reject/Abandon removes the entry, later calls are no-ops.
type Registry struct {
	mu      sync.Mutex
	pending map[string]chan bridge.Outcome
}

func New() *Registry {
	return &Registry{pending: make(map[string]chan bridge.Outcome)}
}

// Begin registers a fresh transaction and returns its id together with the
// channel its outcome will arrive on. The channel is buffered so the
// dispatcher never blocks on a slow caller.
func (r *Registry) Begin() (string, <-chan bridge.Outcome) {
	tx := uuid.NewString()
	ch := make(chan bridge.Outcome, 1)
	r.mu.Lock()
	r.pending[tx] = ch
	r.mu.Unlock()
	log.Debug().Str("module", "registry").Str("tx", tx).Msg("transaction registered")
	return tx, ch
}

// Owns reports whether the transaction is pending in this registry.
func (r *Registry) Owns(tx string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[tx]
	return ok
}

// Resolve completes a pending transaction with a normalized event.
func (r *Registry) Resolve(tx string, ev *bridge.Event) bool {
	return r.complete(tx, bridge.Outcome{Event: ev})
}

// Reject completes a pending transaction with an error.
func (r *Registry) Reject(tx string, err error) bool {
	return r.complete(tx, bridge.Outcome{Err: err})
}

// Abandon drops a pending transaction without delivering an outcome. Used
// by callers that stop waiting (send failure, ctx expiry, detach).
func (r *Registry) Abandon(tx string) {
	r.mu.Lock()
	delete(r.pending, tx)
	r.mu.Unlock()
	log.Debug().Str("module", "registry").Str("tx", tx).Msg("transaction abandoned")
}

// Pending returns the number of transactions still awaiting an outcome.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Registry) complete(tx string, out bridge.Outcome) bool {
	r.mu.Lock()
	ch, ok := r.pending[tx]
	if ok {
		delete(r.pending, tx)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	ch <- out
	return true
}
