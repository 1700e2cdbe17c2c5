// Package bridge implements the client side of the gateway's audio-mixing
// plugin protocol: request builders, the inbound message dispatcher and the
// per-handle participant state it maintains.
//
// The wire format is not self-describing. One generic envelope carries many
// distinct event kinds and the specific kind is determined by which optional
// fields are present, not by a single tag. Dispatch therefore runs an ordered
// decision table over field presence (see dispatch.go).
package bridge

import "github.com/dkeye/Mixer/internal/domain"

// Top-level discriminant values of the audiobridge field.
const (
	tagSuccess      = "success"
	tagJoined       = "joined"
	tagParticipants = "participants"
	tagCreated      = "created"
	tagDestroyed    = "destroyed"
	tagHangingUp    = "hangingup"
	tagLeft         = "left"
	tagForwarders   = "forwarders"
	tagEvent        = "event"
)

// Envelope is one inbound message of the audio-mixing domain, decoded as-is
// from the wire. AudioBridge is the domain tag; everything else is optional
// and its presence drives classification. Optional scalars are pointers so
// that "absent" and "zero" stay distinguishable.
type Envelope struct {
	AudioBridge string     `json:"audiobridge"`
	Transaction string     `json:"transaction,omitempty"`
	Sender      *domain.ID `json:"sender,omitempty"`

	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`

	Room *domain.ID `json:"room,omitempty"`

	// Self-referential join fields.
	ID      *domain.ID `json:"id,omitempty"`
	Display string     `json:"display,omitempty"`

	Participants []ParticipantRecord `json:"participants,omitempty"`

	// success sub-discriminants.
	Exists    *bool             `json:"exists,omitempty"`
	List      []domain.RoomInfo `json:"list,omitempty"`
	Allowed   []string          `json:"allowed,omitempty"`
	Host      string            `json:"host,omitempty"`
	Port      int               `json:"port,omitempty"`
	StreamID  *domain.ID        `json:"stream_id,omitempty"`
	Group     string            `json:"group,omitempty"`
	Permanent *bool             `json:"permanent,omitempty"`

	// event sub-discriminants.
	Result  string     `json:"result,omitempty"`
	Leaving *domain.ID `json:"leaving,omitempty"`
	Kicked  *domain.ID `json:"kicked,omitempty"`

	RTPForwarders []ForwarderRecord `json:"rtp_forwarders,omitempty"`
}

// ParticipantRecord is a participant as the gateway spells it. The wire
// calls the feed identifier "id"; the application schema calls it "feed".
type ParticipantRecord struct {
	ID      domain.ID        `json:"id"`
	Display string           `json:"display,omitempty"`
	Muted   *bool            `json:"muted,omitempty"`
	Setup   *bool            `json:"setup,omitempty"`
	RTP     *domain.RTPRelay `json:"rtp,omitempty"`
}

func (p ParticipantRecord) descriptor() domain.Participant {
	return domain.Participant{
		Feed:    p.ID,
		Display: p.Display,
		Muted:   p.Muted,
		Setup:   p.Setup,
		RTP:     p.RTP,
	}
}

func descriptors(records []ParticipantRecord) []domain.Participant {
	out := make([]domain.Participant, 0, len(records))
	for _, r := range records {
		out = append(out, r.descriptor())
	}
	return out
}

// ForwarderRecord is one entry of the gateway's forwarder listing.
type ForwarderRecord struct {
	Host     string    `json:"host"`
	Port     int       `json:"port"`
	StreamID domain.ID `json:"stream_id"`
	AlwaysOn *bool     `json:"always_on,omitempty"`
	Group    string    `json:"group,omitempty"`
}

func (f ForwarderRecord) descriptor() domain.Forwarder {
	fwd := domain.Forwarder{
		Host:     f.Host,
		Port:     f.Port,
		StreamID: f.StreamID,
		Group:    f.Group,
	}
	if f.AlwaysOn != nil {
		fwd.AlwaysOn = *f.AlwaysOn
	}
	return fwd
}

func forwarders(records []ForwarderRecord) []domain.Forwarder {
	out := make([]domain.Forwarder, 0, len(records))
	for _, r := range records {
		out = append(out, r.descriptor())
	}
	return out
}
