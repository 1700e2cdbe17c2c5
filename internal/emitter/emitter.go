// Package emitter fans normalized events out to subscribers.
package emitter

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Mixer/internal/bridge"
)

// Emitter delivers push notifications to every subscriber over buffered
// channels. Delivery never blocks: a subscriber that cannot keep up loses
// the notification and the drop is counted.
type Emitter struct {
	mu      sync.RWMutex
	subs    map[int]chan bridge.Notification
	next    int
	dropped int
}

func New() *Emitter {
	return &Emitter{subs: make(map[int]chan bridge.Notification)}
}

// Subscribe returns a channel of notifications and a cancel func. The
// channel is closed on cancel.
func (e *Emitter) Subscribe(buffer int) (<-chan bridge.Notification, func()) {
	ch := make(chan bridge.Notification, buffer)
	e.mu.Lock()
	id := e.next
	e.next++
	e.subs[id] = ch
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if sub, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(sub)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

// Emit pushes a notification to all current subscribers.
func (e *Emitter) Emit(n bridge.Notification) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, ch := range e.subs {
		select {
		case ch <- n:
		default:
			e.dropped++
			log.Warn().Str("module", "emitter").
				Int("sub", id).Str("kind", string(n.Kind)).
				Msg("subscriber slow, notification dropped")
		}
	}
}

// Dropped returns how many notifications were lost to backpressure.
func (e *Emitter) Dropped() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dropped
}
