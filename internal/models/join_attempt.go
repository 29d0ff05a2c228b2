package models

import (
	"time"

	"github.com/google/uuid"
)

// TransportCredential lets one party connect to the media channel of a meeting.
type TransportCredential struct {
	Provider  string    `json:"provider"`
	Token     string    `json:"token"`
	ChannelID string    `json:"channel_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// JoinAttempt is the outcome of a join call. It is never persisted.
type JoinAttempt struct {
	Allowed          bool
	Reason           string
	MinutesRemaining int
	MeetingID        uuid.UUID
	MeetingStatus    MeetingStatus
	WaitingFor       *Role
	Credential       *TransportCredential
}

// MeetingState is the slice of a meeting the rendezvous needs on every poll.
type MeetingState struct {
	MeetingID        uuid.UUID
	Status           MeetingStatus
	LearnerJoined    bool
	CounsellorJoined bool
	WaitingFor       *Role
}

func (s MeetingState) BothJoined() bool {
	return s.LearnerJoined && s.CounsellorJoined
}

func (m *Meeting) State() MeetingState {
	return MeetingState{
		MeetingID:        m.ID,
		Status:           m.Status,
		LearnerJoined:    m.LearnerJoined,
		CounsellorJoined: m.CounsellorJoined,
		WaitingFor:       m.WaitingFor(),
	}
}
