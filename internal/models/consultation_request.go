package models

import (
	"time"

	"github.com/google/uuid"
)

type RequestKind string

const (
	RequestKindInstant   RequestKind = "instant"
	RequestKindScheduled RequestKind = "scheduled"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusAccepted || s == RequestStatusRejected
}

// ConsultationRequest is a learner's ask for a session with a counsellor.
type ConsultationRequest struct {
	ID           uuid.UUID     `db:"id"`
	LearnerID    uuid.UUID     `db:"learner_id"`
	CounsellorID uuid.UUID     `db:"counsellor_id"`
	Kind         RequestKind   `db:"kind"`
	ScheduledAt  *time.Time    `db:"scheduled_at"`
	Message      string        `db:"message"`
	Status       RequestStatus `db:"status"`
	MeetingID    *uuid.UUID    `db:"meeting_id"`

	DecidedAt *time.Time `db:"decided_at"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (r *ConsultationRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// BelongsTo reports whether userID is either party of the request.
func (r *ConsultationRequest) BelongsTo(userID uuid.UUID) bool {
	return r.LearnerID == userID || r.CounsellorID == userID
}

// Accept closes the request and returns the meeting it produces.
// A request can only be decided once.
func (r *ConsultationRequest) Accept(now time.Time) (*Meeting, error) {
	if !r.IsPending() {
		return nil, ErrRequestDecided
	}

	meeting := &Meeting{
		ID:           uuid.New(),
		RequestID:    r.ID,
		LearnerID:    r.LearnerID,
		CounsellorID: r.CounsellorID,
		ScheduledAt:  r.ScheduledAt,
		Status:       MeetingStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.Status = RequestStatusAccepted
	r.MeetingID = &meeting.ID
	r.DecidedAt = &now
	r.UpdatedAt = now
	return meeting, nil
}

func (r *ConsultationRequest) Reject(now time.Time) error {
	if !r.IsPending() {
		return ErrRequestDecided
	}
	r.Status = RequestStatusRejected
	r.DecidedAt = &now
	r.UpdatedAt = now
	return nil
}
