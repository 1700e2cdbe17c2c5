package bridge

import (
	"context"

	"github.com/dkeye/Mixer/internal/domain"
)

// Outgoing request bodies. Optional fields are pointers with omitempty, so
// only the fields a caller actually set reach the wire; nothing is
// defaulted locally. Required identifiers (room, and feed for kick) are
// passed through as given; the remote service rejects malformed ones.

// JoinOptions configures a join request. Room is required.
type JoinOptions struct {
	Room     domain.ID        `json:"room"`
	Feed     *domain.ID       `json:"id,omitempty"`
	Display  *string          `json:"display,omitempty"`
	Muted    *bool            `json:"muted,omitempty"`
	PIN      *string          `json:"pin,omitempty"`
	Token    *string          `json:"token,omitempty"`
	Quality  *int             `json:"quality,omitempty"`
	Volume   *int             `json:"volume,omitempty"`
	Record   *bool            `json:"record,omitempty"`
	Filename *string          `json:"filename,omitempty"`
	RTP      *domain.RTPRelay `json:"rtp,omitempty"`
	Group    *string          `json:"group,omitempty"`
}

// ConfigureOptions reconfigures this handle's own feed. All fields are
// optional; only the ones set are sent, and only those come back echoed.
type ConfigureOptions struct {
	Display   *string `json:"display,omitempty"`
	Muted     *bool   `json:"muted,omitempty"`
	Quality   *int    `json:"quality,omitempty"`
	Volume    *int    `json:"volume,omitempty"`
	Record    *bool   `json:"record,omitempty"`
	Filename  *string `json:"filename,omitempty"`
	Prebuffer *int    `json:"prebuffer,omitempty"`
	Group     *string `json:"group,omitempty"`
}

// ConfiguredData is the result of Configure. The remote ack carries no
// payload, so the sent fields plus the handle's bound identifiers are
// echoed back here.
type ConfiguredData struct {
	Room domain.ID `json:"room"`
	Feed domain.ID `json:"feed"`
	ConfigureOptions
}

// CreateOptions configures room creation. Room is required.
type CreateOptions struct {
	Room         domain.ID `json:"room"`
	Description  *string   `json:"description,omitempty"`
	Permanent    *bool     `json:"permanent,omitempty"`
	SamplingRate *int      `json:"sampling_rate,omitempty"`
	Private      *bool     `json:"is_private,omitempty"`
	Secret       *string   `json:"secret,omitempty"`
	PIN          *string   `json:"pin,omitempty"`
	Record       *bool     `json:"record,omitempty"`
	Filename     *string   `json:"record_file,omitempty"`
	Prebuffer    *int      `json:"prebuffering,omitempty"`
	AllowRTP     *bool     `json:"allow_rtp_participants,omitempty"`
	Groups       []string  `json:"groups,omitempty"`
}

// DestroyOptions tunes room destruction.
type DestroyOptions struct {
	Permanent *bool   `json:"permanent,omitempty"`
	Secret    *string `json:"secret,omitempty"`
}

// AllowOptions edits a room's allowed-token list. Room and Action are
// required; Action is one of "enable", "disable", "add", "remove".
type AllowOptions struct {
	Room    domain.ID `json:"room"`
	Action  string    `json:"action"`
	Allowed []string  `json:"allowed,omitempty"`
	Secret  *string   `json:"secret,omitempty"`
}

// ForwardOptions starts an RTP forwarder. Room, Host and Port are required.
type ForwardOptions struct {
	Room   domain.ID `json:"room"`
	Always *bool     `json:"always_on,omitempty"`
	Host   string    `json:"host"`
	Port   int       `json:"port"`
	Group  *string   `json:"group,omitempty"`
	Secret *string   `json:"secret,omitempty"`
}

// AdminOptions carries the optional room secret for moderator requests.
type AdminOptions struct {
	Secret *string `json:"secret,omitempty"`
}

func secretOf(opts *AdminOptions) *string {
	if opts == nil {
		return nil
	}
	return opts.Secret
}

type joinBody struct {
	Request string `json:"request"`
	JoinOptions
}

type configureBody struct {
	Request string `json:"request"`
	ConfigureOptions
}

type plainBody struct {
	Request string `json:"request"`
}

type roomBody struct {
	Request string     `json:"request"`
	Room    domain.ID  `json:"room"`
	Secret  *string    `json:"secret,omitempty"`
	Feed    *domain.ID `json:"id,omitempty"`
}

type createBody struct {
	Request string `json:"request"`
	CreateOptions
}

type destroyBody struct {
	Request string    `json:"request"`
	Room    domain.ID `json:"room"`
	DestroyOptions
}

type allowBody struct {
	Request string `json:"request"`
	AllowOptions
}

type forwardBody struct {
	Request string `json:"request"`
	ForwardOptions
}

type stopForwardBody struct {
	Request  string    `json:"request"`
	Room     domain.ID `json:"room"`
	StreamID domain.ID `json:"stream_id"`
	Secret   *string   `json:"secret,omitempty"`
}

// Join enters a room with this handle. On success the handle is bound to
// the returned room and feed.
func (h *Handle) Join(ctx context.Context, opts JoinOptions) (*JoinedData, error) {
	ev, err := h.roundTrip(ctx, joinBody{Request: "join", JoinOptions: opts}, EventJoined)
	if err != nil {
		return nil, err
	}
	return ev.Data.(*JoinedData), nil
}

// Configure adjusts this handle's own feed. The remote acknowledgment is an
// empty "ok", so the response data is rebuilt from what was sent plus the
// handle's current room and feed.
func (h *Handle) Configure(ctx context.Context, opts ConfigureOptions) (*ConfiguredData, error) {
	_, err := h.roundTrip(ctx, configureBody{Request: "configure", ConfigureOptions: opts}, EventConfigured)
	if err != nil {
		return nil, err
	}
	return &ConfiguredData{
		Room:             h.Room(),
		Feed:             h.Feed(),
		ConfigureOptions: opts,
	}, nil
}

// Hangup tears down this handle's media leg without leaving the room.
func (h *Handle) Hangup(ctx context.Context) (*FeedData, error) {
	ev, err := h.roundTrip(ctx, plainBody{Request: "hangup"}, EventHangingUp)
	if err != nil {
		return nil, err
	}
	return ev.Data.(*FeedData), nil
}

// Leave exits the room this handle joined.
func (h *Handle) Leave(ctx context.Context) (*FeedData, error) {
	ev, err := h.roundTrip(ctx, plainBody{Request: "leave"}, EventLeaving)
	if err != nil {
		return nil, err
	}
	return ev.Data.(*FeedData), nil
}

// ListParticipants returns the roster of a room.
func (h *Handle) ListParticipants(ctx context.Context, room domain.ID, opts *AdminOptions) (*ParticipantsData, error) {
	body := roomBody{Request: "listparticipants", Room: room, Secret: secretOf(opts)}
	ev, err := h.roundTrip(ctx, body, EventParticipantsList)
	if err != nil {
		return nil, err
	}
	return ev.Data.(*ParticipantsData), nil
}

// KickData identifies the feed a kick was applied to.
type KickData struct {
	Room domain.ID `json:"room"`
	Feed domain.ID `json:"feed"`
}

// Kick removes a feed from a room. The remote answers with a bare success,
// so room and feed are merged back onto the result.
func (h *Handle) Kick(ctx context.Context, room, feed domain.ID, opts *AdminOptions) (*KickData, error) {
	body := roomBody{Request: "kick", Room: room, Secret: secretOf(opts), Feed: &feed}
	_, err := h.roundTrip(ctx, body, EventSuccess)
	if err != nil {
		return nil, err
	}
	return &KickData{Room: room, Feed: feed}, nil
}

// Exists asks whether a room exists.
func (h *Handle) Exists(ctx context.Context, room domain.ID) (*ExistsData, error) {
	ev, err := h.roundTrip(ctx, roomBody{Request: "exists", Room: room}, EventExists)
	if err != nil {
		return nil, err
	}
	return ev.Data.(*ExistsData), nil
}

// ListRooms returns the rooms visible to this handle.
func (h *Handle) ListRooms(ctx context.Context) ([]domain.RoomInfo, error) {
	ev, err := h.roundTrip(ctx, plainBody{Request: "list"}, EventRoomsList)
	if err != nil {
		return nil, err
	}
	return ev.Data.(*RoomsListData).List, nil
}

// Create creates a mixing room.
func (h *Handle) Create(ctx context.Context, opts CreateOptions) (*CreatedData, error) {
	ev, err := h.roundTrip(ctx, createBody{Request: "create", CreateOptions: opts}, EventCreated)
	if err != nil {
		return nil, err
	}
	return ev.Data.(*CreatedData), nil
}

// Destroy destroys a mixing room.
func (h *Handle) Destroy(ctx context.Context, room domain.ID, opts DestroyOptions) (*DestroyedData, error) {
	ev, err := h.roundTrip(ctx, destroyBody{Request: "destroy", Room: room, DestroyOptions: opts}, EventDestroyed)
	if err != nil {
		return nil, err
	}
	return ev.Data.(*DestroyedData), nil
}

// Allow edits a room's allowed-token list.
func (h *Handle) Allow(ctx context.Context, opts AllowOptions) (*SuccessData, error) {
	ev, err := h.roundTrip(ctx, allowBody{Request: "allowed", AllowOptions: opts}, EventSuccess)
	if err != nil {
		return nil, err
	}
	return ev.Data.(*SuccessData), nil
}

// StartForward starts an RTP forwarder copying room audio to an external
// target.
func (h *Handle) StartForward(ctx context.Context, opts ForwardOptions) (*RTPForwardData, error) {
	ev, err := h.roundTrip(ctx, forwardBody{Request: "rtp_forward", ForwardOptions: opts}, EventRTPForward)
	if err != nil {
		return nil, err
	}
	return ev.Data.(*RTPForwardData), nil
}

// StopForward stops one RTP forwarder by stream id.
func (h *Handle) StopForward(ctx context.Context, room, streamID domain.ID, opts *AdminOptions) (*RTPForwardData, error) {
	body := stopForwardBody{Request: "stop_rtp_forward", Room: room, StreamID: streamID, Secret: secretOf(opts)}
	ev, err := h.roundTrip(ctx, body, EventRTPForward)
	if err != nil {
		return nil, err
	}
	return ev.Data.(*RTPForwardData), nil
}

// ListForward lists the active RTP forwarders of a room.
func (h *Handle) ListForward(ctx context.Context, room domain.ID, opts *AdminOptions) (*ForwardersData, error) {
	body := roomBody{Request: "listforwarders", Room: room, Secret: secretOf(opts)}
	ev, err := h.roundTrip(ctx, body, EventForwardersList)
	if err != nil {
		return nil, err
	}
	return ev.Data.(*ForwardersData), nil
}
