package domain

// RTPRelay describes the plain-RTP leg of a participant that joined the
// mixer over RTP instead of a negotiated media channel.
type RTPRelay struct {
	IP      string `json:"ip,omitempty"`
	Port    int    `json:"port,omitempty"`
	Payload int    `json:"payload_type,omitempty"`
}

// Participant is one feed inside a mixing room as reported by the gateway.
// Optional attributes stay pointers: the gateway omits what it does not
// know, and downstream consumers need to tell "absent" from "false".
type Participant struct {
	Feed    ID        `json:"feed"`
	Display string    `json:"display,omitempty"`
	Muted   *bool     `json:"muted,omitempty"`
	Setup   *bool     `json:"setup,omitempty"`
	RTP     *RTPRelay `json:"rtp,omitempty"`
}

// Forwarder is a server-side RTP relay copying room audio to an external
// network target.
type Forwarder struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	StreamID ID     `json:"stream_id"`
	AlwaysOn bool   `json:"always_on,omitempty"`
	Group    string `json:"group,omitempty"`
}
