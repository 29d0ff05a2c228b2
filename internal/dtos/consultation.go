package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

// Create request
type CreateRequestRequest struct {
	CounsellorID string     `json:"counsellor_id" binding:"required,uuid"`
	Kind         string     `json:"kind" binding:"required,oneof=instant scheduled"`
	ScheduledAt  *time.Time `json:"scheduled_at" binding:"required_if=Kind scheduled,excluded_if=Kind instant"`
	Message      string     `json:"message" binding:"required,max=2000"`
}

type ListRequestsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending accepted rejected"`
}

type RequestResponse struct {
	ID           uuid.UUID  `json:"id"`
	LearnerID    uuid.UUID  `json:"learner_id"`
	CounsellorID uuid.UUID  `json:"counsellor_id"`
	Kind         string     `json:"kind"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	Message      string     `json:"message"`
	Status       string     `json:"status"`
	MeetingID    *uuid.UUID `json:"meeting_id,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type ListRequestsResponse struct {
	Requests []RequestResponse `json:"requests"`
}

// Accept response carries the meeting that was created
type AcceptRequestResponse struct {
	Request   RequestResponse `json:"request"`
	MeetingID uuid.UUID       `json:"meeting_id"`
}

func NewRequestResponse(req *models.ConsultationRequest) RequestResponse {
	return RequestResponse{
		ID:           req.ID,
		LearnerID:    req.LearnerID,
		CounsellorID: req.CounsellorID,
		Kind:         string(req.Kind),
		ScheduledAt:  req.ScheduledAt,
		Message:      req.Message,
		Status:       string(req.Status),
		MeetingID:    req.MeetingID,
		DecidedAt:    req.DecidedAt,
		CreatedAt:    req.CreatedAt,
	}
}

func NewListRequestsResponse(reqs []*models.ConsultationRequest) ListRequestsResponse {
	resp := ListRequestsResponse{Requests: make([]RequestResponse, 0, len(reqs))}
	for _, req := range reqs {
		resp.Requests = append(resp.Requests, NewRequestResponse(req))
	}
	return resp
}
