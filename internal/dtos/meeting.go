package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

// Join request. Role is optional; when present it must match the caller's side.
type JoinMeetingRequest struct {
	Role string `json:"role" binding:"omitempty,oneof=learner counsellor"`
}

type CredentialResponse struct {
	Provider  string    `json:"provider"`
	Token     string    `json:"token"`
	ChannelID string    `json:"channel_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type JoinMeetingResponse struct {
	Allowed             bool                `json:"allowed"`
	Reason              string              `json:"reason,omitempty"`
	MinutesRemaining    int                 `json:"minutes_remaining,omitempty"`
	MeetingID           uuid.UUID           `json:"meeting_id"`
	MeetingStatus       string              `json:"meeting_status"`
	WaitingFor          string              `json:"waiting_for,omitempty"`
	TransportCredential *CredentialResponse `json:"transport_credential,omitempty"`
}

type MeetingStatusResponse struct {
	MeetingID        uuid.UUID `json:"meeting_id"`
	Status           string    `json:"status"`
	LearnerJoined    bool      `json:"learner_joined"`
	CounsellorJoined bool      `json:"counsellor_joined"`
	WaitingFor       string    `json:"waiting_for,omitempty"`
}

type MeetingResponse struct {
	ID               uuid.UUID  `json:"id"`
	RequestID        uuid.UUID  `json:"request_id"`
	LearnerID        uuid.UUID  `json:"learner_id"`
	CounsellorID     uuid.UUID  `json:"counsellor_id"`
	ScheduledAt      *time.Time `json:"scheduled_at,omitempty"`
	Status           string     `json:"status"`
	LearnerJoined    bool       `json:"learner_joined"`
	CounsellorJoined bool       `json:"counsellor_joined"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	DurationSeconds  int        `json:"duration_seconds"`
	CancelReason     string     `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type EndMeetingResponse struct {
	MeetingID       uuid.UUID `json:"meeting_id"`
	Status          string    `json:"status"`
	DurationSeconds int       `json:"duration_seconds"`
}

func NewJoinMeetingResponse(attempt *models.JoinAttempt) JoinMeetingResponse {
	resp := JoinMeetingResponse{
		Allowed:          attempt.Allowed,
		Reason:           attempt.Reason,
		MinutesRemaining: attempt.MinutesRemaining,
		MeetingID:        attempt.MeetingID,
		MeetingStatus:    string(attempt.MeetingStatus),
		WaitingFor:       roleString(attempt.WaitingFor),
	}
	if cred := attempt.Credential; cred != nil {
		resp.TransportCredential = &CredentialResponse{
			Provider:  cred.Provider,
			Token:     cred.Token,
			ChannelID: cred.ChannelID,
			URL:       cred.URL,
			ExpiresAt: cred.ExpiresAt,
		}
	}
	return resp
}

// ToModel converts the wire form back into a JoinAttempt on the client side.
func (r JoinMeetingResponse) ToModel() *models.JoinAttempt {
	attempt := &models.JoinAttempt{
		Allowed:          r.Allowed,
		Reason:           r.Reason,
		MinutesRemaining: r.MinutesRemaining,
		MeetingID:        r.MeetingID,
		MeetingStatus:    models.MeetingStatus(r.MeetingStatus),
		WaitingFor:       parseRole(r.WaitingFor),
	}
	if cred := r.TransportCredential; cred != nil {
		attempt.Credential = &models.TransportCredential{
			Provider:  cred.Provider,
			Token:     cred.Token,
			ChannelID: cred.ChannelID,
			URL:       cred.URL,
			ExpiresAt: cred.ExpiresAt,
		}
	}
	return attempt
}

func NewMeetingStatusResponse(state models.MeetingState) MeetingStatusResponse {
	return MeetingStatusResponse{
		MeetingID:        state.MeetingID,
		Status:           string(state.Status),
		LearnerJoined:    state.LearnerJoined,
		CounsellorJoined: state.CounsellorJoined,
		WaitingFor:       roleString(state.WaitingFor),
	}
}

func (r MeetingStatusResponse) ToModel() models.MeetingState {
	return models.MeetingState{
		MeetingID:        r.MeetingID,
		Status:           models.MeetingStatus(r.Status),
		LearnerJoined:    r.LearnerJoined,
		CounsellorJoined: r.CounsellorJoined,
		WaitingFor:       parseRole(r.WaitingFor),
	}
}

func NewMeetingResponse(m *models.Meeting) MeetingResponse {
	return MeetingResponse{
		ID:               m.ID,
		RequestID:        m.RequestID,
		LearnerID:        m.LearnerID,
		CounsellorID:     m.CounsellorID,
		ScheduledAt:      m.ScheduledAt,
		Status:           string(m.Status),
		LearnerJoined:    m.LearnerJoined,
		CounsellorJoined: m.CounsellorJoined,
		StartedAt:        m.StartedAt,
		EndedAt:          m.EndedAt,
		DurationSeconds:  m.DurationSeconds,
		CancelReason:     m.CancelReason,
		CreatedAt:        m.CreatedAt,
	}
}

func roleString(role *models.Role) string {
	if role == nil {
		return ""
	}
	return string(*role)
}

func parseRole(raw string) *models.Role {
	role := models.Role(raw)
	if !role.Valid() {
		return nil
	}
	return &role
}
