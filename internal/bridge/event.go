package bridge

import "github.com/dkeye/Mixer/internal/domain"

// EventKind is the closed enumeration of normalized event kinds. Exactly one
// kind is produced per handled inbound message.
type EventKind string

const (
	EventJoined           EventKind = "joined"
	EventPeerJoined       EventKind = "peer_joined"
	EventParticipantsList EventKind = "participants_list"
	EventConfigured       EventKind = "configured"
	EventPeerConfigured   EventKind = "peer_configured"
	EventLeaving          EventKind = "leaving"
	EventPeerLeaving      EventKind = "peer_leaving"
	EventKicked           EventKind = "kicked"
	EventPeerKicked       EventKind = "peer_kicked"
	EventHangingUp        EventKind = "hangingup"
	EventExists           EventKind = "exists"
	EventRoomsList        EventKind = "rooms_list"
	EventCreated          EventKind = "created"
	EventDestroyed        EventKind = "destroyed"
	EventRTPForward       EventKind = "rtp_forward"
	EventForwardersList   EventKind = "forwarders_list"
	EventSuccess          EventKind = "success"
	EventError            EventKind = "error"
)

// Event is the canonical, stable-shape representation of one classified
// inbound message. Data holds the payload struct for the kind, or nil when
// the kind carries no payload (EventConfigured).
type Event struct {
	Kind EventKind
	Data any
}

// JoinedData reports this handle's own join: the bound identifiers plus the
// roster of participants already in the room.
type JoinedData struct {
	Room         domain.ID            `json:"room"`
	Feed         domain.ID            `json:"feed"`
	Participants []domain.Participant `json:"participants"`
}

// PeerData describes one peer inside a room, used for peer-joined and
// peer-configured events.
type PeerData struct {
	Room domain.ID `json:"room"`
	domain.Participant
}

// ParticipantsData is a roster snapshot of a room.
type ParticipantsData struct {
	Room         domain.ID            `json:"room"`
	Participants []domain.Participant `json:"participants"`
}

// FeedData names the feed an event is about: leaving, kicked, hangingup and
// their peer- variants.
type FeedData struct {
	Room domain.ID `json:"room"`
	Feed domain.ID `json:"feed"`
}

// ExistsData answers a room existence query.
type ExistsData struct {
	Room   domain.ID `json:"room"`
	Exists bool      `json:"exists"`
}

// RoomsListData lists the rooms visible to this handle.
type RoomsListData struct {
	List []domain.RoomInfo `json:"list"`
}

// CreatedData acknowledges room creation.
type CreatedData struct {
	Room      domain.ID `json:"room"`
	Permanent bool      `json:"permanent"`
}

// DestroyedData acknowledges room destruction.
type DestroyedData struct {
	Room      domain.ID `json:"room"`
	Permanent bool      `json:"permanent"`
}

// RTPForwardData acknowledges starting or stopping one RTP forwarder.
type RTPForwardData struct {
	Room     domain.ID `json:"room"`
	Host     string    `json:"host,omitempty"`
	Port     int       `json:"port,omitempty"`
	StreamID domain.ID `json:"stream_id"`
	Group    string    `json:"group,omitempty"`
}

// ForwardersData lists the active RTP forwarders of a room.
type ForwardersData struct {
	Room       domain.ID          `json:"room"`
	Forwarders []domain.Forwarder `json:"forwarders"`
}

// SuccessData is a generic acknowledgment, optionally carrying the allowed
// token list after an allow request.
type SuccessData struct {
	Room    *domain.ID `json:"room,omitempty"`
	Allowed []string   `json:"allowed,omitempty"`
}

// ErrorData is a protocol error as reported by the remote service.
type ErrorData struct {
	Code    int    `json:"error_code"`
	Message string `json:"error"`
}
