package domain

// RoomInfo is one entry of the gateway's room listing.
type RoomInfo struct {
	Room            ID     `json:"room"`
	Description     string `json:"description,omitempty"`
	SamplingRate    int    `json:"sampling_rate,omitempty"`
	PINRequired     bool   `json:"pin_required,omitempty"`
	NumParticipants int    `json:"num_participants,omitempty"`
	Muted           bool   `json:"muted,omitempty"`
}
