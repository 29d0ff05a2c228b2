package dtos

import "encoding/json"

// Signaling message types exchanged over the relay websocket.
const (
	SignalOffer        = "offer"
	SignalAnswer       = "answer"
	SignalICECandidate = "ice_candidate"
	SignalLeave        = "leave_call"
	SignalPing         = "ping"
	SignalPong         = "pong"
	SignalPeerJoined   = "peer_joined"
	SignalPeerLeft     = "peer_left"
	SignalSessionReady = "session_ready"
	SignalError        = "error"
)

// SignalMessage is the envelope for every relay frame
type SignalMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Presence is sent when the other party connects or drops
type PresencePayload struct {
	MeetingID string `json:"meeting_id"`
	Role      string `json:"role"`
}

// Session ready is sent to both sides once both are connected
type SessionReadyPayload struct {
	MeetingID string `json:"meeting_id"`
	Role      string `json:"role"`
	PeerRole  string `json:"peer_role"`
}

// Offer/Answer for WebRTC
type SDPPayload struct {
	SDP string `json:"sdp"`
}

// ICE Candidate
type ICECandidatePayload struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid"`
	SDPMLineIndex *int    `json:"sdpMLineIndex"`
}
