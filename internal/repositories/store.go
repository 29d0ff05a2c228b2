package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// DecideFunc mutates a locked request and may return the meeting to insert with it.
type DecideFunc func(req *models.ConsultationRequest) (*models.Meeting, error)

// MeetingMutation mutates a locked meeting. Returning an error discards the change.
type MeetingMutation func(meeting *models.Meeting) error

type RequestStore interface {
	Create(ctx context.Context, req *models.ConsultationRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ConsultationRequest, error)
	ListForCounsellor(ctx context.Context, counsellorID uuid.UUID, status models.RequestStatus) ([]*models.ConsultationRequest, error)
	ListForLearner(ctx context.Context, learnerID uuid.UUID) ([]*models.ConsultationRequest, error)
	// Decide applies fn to the request and persists it together with the returned meeting.
	Decide(ctx context.Context, id uuid.UUID, fn DecideFunc) (*models.ConsultationRequest, *models.Meeting, error)
}

type MeetingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Meeting, error)
	GetByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Meeting, error)
	// Update applies fn under a row lock and persists the result.
	Update(ctx context.Context, id uuid.UUID, fn MeetingMutation) (*models.Meeting, error)
	// ListOpen returns meetings that are neither ongoing nor terminal.
	ListOpen(ctx context.Context) ([]*models.Meeting, error)
}
