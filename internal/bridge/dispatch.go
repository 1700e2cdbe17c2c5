package bridge

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Mixer/internal/domain"
)

// The wire reuses generic envelopes for many event kinds, so classification
// is a two-level match: the audiobridge tag first, then an ordered decision
// table over field presence inside the "success" and "event" tags. Each row
// states its precondition and the variant it produces; the first matching
// row wins. Rows are package-level so every branch is testable on its own.

type rule struct {
	name string
	when func(*Envelope) bool
	make func(*Handle, *Envelope) *Event
}

func matchFirst(rules []rule, h *Handle, env *Envelope) *Event {
	for _, r := range rules {
		if r.when(env) {
			return r.make(h, env)
		}
	}
	return nil
}

// deref unwraps an optional wire identifier, zero when absent.
func deref(id *domain.ID) domain.ID {
	if id == nil {
		return domain.ID{}
	}
	return *id
}

// successRules sub-classifies a "success" envelope by field presence.
var successRules = []rule{
	{
		name: "exists",
		when: func(e *Envelope) bool { return e.Exists != nil },
		make: func(_ *Handle, e *Envelope) *Event {
			return &Event{Kind: EventExists, Data: &ExistsData{Room: deref(e.Room), Exists: *e.Exists}}
		},
	},
	{
		name: "rooms list",
		when: func(e *Envelope) bool { return e.List != nil },
		make: func(_ *Handle, e *Envelope) *Event {
			return &Event{Kind: EventRoomsList, Data: &RoomsListData{List: e.List}}
		},
	},
	{
		name: "rtp forward",
		when: func(e *Envelope) bool { return e.StreamID != nil },
		make: func(_ *Handle, e *Envelope) *Event {
			return &Event{Kind: EventRTPForward, Data: &RTPForwardData{
				Room:     deref(e.Room),
				Host:     e.Host,
				Port:     e.Port,
				StreamID: *e.StreamID,
				Group:    e.Group,
			}}
		},
	},
	{
		name: "allowed tokens",
		when: func(e *Envelope) bool { return e.Allowed != nil },
		make: func(_ *Handle, e *Envelope) *Event {
			return &Event{Kind: EventSuccess, Data: &SuccessData{Room: e.Room, Allowed: e.Allowed}}
		},
	},
	{
		name: "plain success",
		when: func(*Envelope) bool { return true },
		make: func(_ *Handle, e *Envelope) *Event {
			return &Event{Kind: EventSuccess, Data: &SuccessData{Room: e.Room}}
		},
	},
}

// joinedRules tells this handle's own join (self id on the message, binds
// local state) apart from a peer's join notification.
var joinedRules = []rule{
	{
		name: "own join",
		when: func(e *Envelope) bool { return e.ID != nil },
		make: func(h *Handle, e *Envelope) *Event {
			h.bind(*e.ID, deref(e.Room))
			return &Event{Kind: EventJoined, Data: &JoinedData{
				Room:         deref(e.Room),
				Feed:         *e.ID,
				Participants: descriptors(e.Participants),
			}}
		},
	},
	{
		name: "peer join",
		when: func(e *Envelope) bool { return len(e.Participants) == 1 },
		make: func(_ *Handle, e *Envelope) *Event {
			return &Event{Kind: EventPeerJoined, Data: &PeerData{
				Room:        deref(e.Room),
				Participant: e.Participants[0].descriptor(),
			}}
		},
	},
}

// eventRules sub-classifies the generic "event" envelope.
var eventRules = []rule{
	{
		name: "error",
		when: func(e *Envelope) bool { return e.Error != "" || e.ErrorCode != 0 },
		make: func(_ *Handle, e *Envelope) *Event {
			return &Event{Kind: EventError, Data: &ErrorData{Code: e.ErrorCode, Message: e.Error}}
		},
	},
	{
		name: "configured ack",
		when: func(e *Envelope) bool { return e.Result == "ok" },
		make: func(_ *Handle, _ *Envelope) *Event {
			return &Event{Kind: EventConfigured}
		},
	},
	{
		name: "peer configured",
		when: func(e *Envelope) bool { return len(e.Participants) == 1 },
		make: func(_ *Handle, e *Envelope) *Event {
			return &Event{Kind: EventPeerConfigured, Data: &PeerData{
				Room:        deref(e.Room),
				Participant: e.Participants[0].descriptor(),
			}}
		},
	},
	{
		name: "peer leaving",
		when: func(e *Envelope) bool { return e.Leaving != nil },
		make: func(_ *Handle, e *Envelope) *Event {
			return &Event{Kind: EventPeerLeaving, Data: &FeedData{Room: deref(e.Room), Feed: *e.Leaving}}
		},
	},
	{
		name: "kicked",
		when: func(e *Envelope) bool { return e.Kicked != nil },
		make: func(h *Handle, e *Envelope) *Event {
			if e.Kicked.Equal(h.Feed()) {
				h.clear()
				return &Event{Kind: EventKicked, Data: &FeedData{Room: deref(e.Room), Feed: *e.Kicked}}
			}
			return &Event{Kind: EventPeerKicked, Data: &FeedData{Room: deref(e.Room), Feed: *e.Kicked}}
		},
	},
}

// Dispatch inspects one inbound message. Messages without the audiobridge
// domain tag are not handled, so other domain dispatchers can try them.
// Domain messages are classified into exactly one normalized event (or
// none, when the envelope matches no known shape), local state transitions
// are applied, and the event is delivered: resolved against the owning
// transaction when this handle owns it, broadcast otherwise. The event is
// always returned as well so the transport can do its own bookkeeping.
func (h *Handle) Dispatch(env *Envelope) (*Event, bool) {
	if env == nil || env.AudioBridge == "" {
		return nil, false
	}
	h.mu.RLock()
	detached := h.detached
	h.mu.RUnlock()
	if detached {
		return nil, false
	}

	// Ownership is decided by the transaction id alone, before
	// classification: it picks the delivery path, not the event kind.
	owned := env.Transaction != "" && h.reg.Owns(env.Transaction)

	ev := h.classify(env)
	if ev == nil {
		// Recognized domain traffic with no matching shape. Dropped on
		// purpose: the owning caller, if any, keeps waiting.
		log.Debug().Str("module", "bridge").
			Str("tag", env.AudioBridge).
			Msg("unclassifiable domain message dropped")
		return nil, true
	}

	if ev.Kind == EventError {
		data := ev.Data.(*ErrorData)
		perr := &ProtocolError{Code: data.Code, Message: data.Message}
		if owned {
			h.reg.Reject(env.Transaction, perr)
		} else {
			h.emit.Emit(Notification{Kind: EventError, Data: data})
		}
		return ev, true
	}

	if owned {
		h.reg.Resolve(env.Transaction, ev)
	} else {
		h.emit.Emit(Notification{Kind: ev.Kind, Data: ev.Data})
	}
	return ev, true
}

func (h *Handle) classify(env *Envelope) *Event {
	switch env.AudioBridge {
	case tagSuccess:
		return matchFirst(successRules, h, env)
	case tagJoined:
		return matchFirst(joinedRules, h, env)
	case tagParticipants:
		return &Event{Kind: EventParticipantsList, Data: &ParticipantsData{
			Room:         deref(env.Room),
			Participants: descriptors(env.Participants),
		}}
	case tagCreated:
		return &Event{Kind: EventCreated, Data: &CreatedData{
			Room:      deref(env.Room),
			Permanent: env.Permanent != nil && *env.Permanent,
		}}
	case tagDestroyed:
		return &Event{Kind: EventDestroyed, Data: &DestroyedData{
			Room:      deref(env.Room),
			Permanent: env.Permanent != nil && *env.Permanent,
		}}
	case tagHangingUp:
		return &Event{Kind: EventHangingUp, Data: &FeedData{
			Room: deref(env.Room),
			Feed: h.subjectFeed(env),
		}}
	case tagLeft:
		// The subject feed is read before the unconditional clear below.
		// State is cleared even if the departing feed is not ours: a
		// handle occupies one seat, so any "left" it sees is its own.
		data := &FeedData{Room: deref(env.Room), Feed: h.subjectFeed(env)}
		h.clear()
		return &Event{Kind: EventLeaving, Data: data}
	case tagForwarders:
		return &Event{Kind: EventForwardersList, Data: &ForwardersData{
			Room:       deref(env.Room),
			Forwarders: forwarders(env.RTPForwarders),
		}}
	case tagEvent:
		return matchFirst(eventRules, h, env)
	}
	return nil
}

// subjectFeed resolves the feed an envelope is about: the id on the message
// when present, this handle's current feed otherwise.
func (h *Handle) subjectFeed(env *Envelope) domain.ID {
	if env.ID != nil {
		return *env.ID
	}
	return h.Feed()
}
