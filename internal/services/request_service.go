package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/metrics"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/repositories"
)

const maxMessageLength = 2000

// CreateRequestInput is what a learner submits to ask for a consultation.
type CreateRequestInput struct {
	CounsellorID uuid.UUID
	Kind         models.RequestKind
	ScheduledAt  *time.Time
	Message      string
}

type RequestService struct {
	requests repositories.RequestStore
	log      zerolog.Logger
	now      func() time.Time
}

func NewRequestService(requests repositories.RequestStore, log zerolog.Logger) *RequestService {
	return &RequestService{
		requests: requests,
		log:      log.With().Str("component", "request-service").Logger(),
		now:      time.Now,
	}
}

// Create validates and stores a new PENDING request on behalf of a learner.
func (s *RequestService) Create(ctx context.Context, caller Caller, in CreateRequestInput) (*models.ConsultationRequest, error) {
	if caller.Role != models.RoleLearner {
		return nil, apperrors.Forbidden("only learners can request a consultation")
	}

	now := s.now()
	if err := validateCreate(now, caller, in); err != nil {
		return nil, err
	}

	req := &models.ConsultationRequest{
		ID:           uuid.New(),
		LearnerID:    caller.UserID,
		CounsellorID: in.CounsellorID,
		Kind:         in.Kind,
		ScheduledAt:  in.ScheduledAt,
		Message:      strings.TrimSpace(in.Message),
		Status:       models.RequestStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, translate(err, "request")
	}

	metrics.RequestsCreated.WithLabelValues(string(req.Kind)).Inc()
	s.log.Info().
		Str("request_id", req.ID.String()).
		Str("kind", string(req.Kind)).
		Msg("consultation request created")

	return req, nil
}

func validateCreate(now time.Time, caller Caller, in CreateRequestInput) error {
	if in.CounsellorID == uuid.Nil {
		return apperrors.Validation("counsellor is required")
	}
	if in.CounsellorID == caller.UserID {
		return apperrors.Validation("cannot request a consultation with yourself")
	}

	message := strings.TrimSpace(in.Message)
	if message == "" {
		return apperrors.Validation("message is required")
	}
	if len(message) > maxMessageLength {
		return apperrors.Validation("message is too long")
	}

	switch in.Kind {
	case models.RequestKindInstant:
		if in.ScheduledAt != nil {
			return apperrors.Validation("instant requests cannot carry a scheduled time")
		}
	case models.RequestKindScheduled:
		if in.ScheduledAt == nil {
			return apperrors.Validation("scheduled time is required")
		}
		if !in.ScheduledAt.After(now) {
			return apperrors.Validation("scheduled time must be in the future")
		}
	default:
		return apperrors.Validation("kind must be instant or scheduled")
	}
	return nil
}

// Get returns a request to either of its parties.
func (s *RequestService) Get(ctx context.Context, caller Caller, id uuid.UUID) (*models.ConsultationRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "request")
	}
	if !req.BelongsTo(caller.UserID) {
		return nil, apperrors.NotFound("request not found")
	}
	return req, nil
}

// List returns the caller's requests, newest first. Counsellors see requests
// addressed to them, learners see their own.
func (s *RequestService) List(ctx context.Context, caller Caller, status models.RequestStatus) ([]*models.ConsultationRequest, error) {
	switch caller.Role {
	case models.RoleCounsellor:
		reqs, err := s.requests.ListForCounsellor(ctx, caller.UserID, status)
		return reqs, translate(err, "request")
	case models.RoleLearner:
		reqs, err := s.requests.ListForLearner(ctx, caller.UserID)
		if err != nil {
			return nil, translate(err, "request")
		}
		if status == "" {
			return reqs, nil
		}
		filtered := make([]*models.ConsultationRequest, 0, len(reqs))
		for _, req := range reqs {
			if req.Status == status {
				filtered = append(filtered, req)
			}
		}
		return filtered, nil
	default:
		return nil, apperrors.Forbidden("unknown role")
	}
}

// Accept closes a pending request and creates its meeting.
func (s *RequestService) Accept(ctx context.Context, caller Caller, id uuid.UUID) (*models.ConsultationRequest, *models.Meeting, error) {
	now := s.now()
	req, meeting, err := s.decide(ctx, caller, id, func(r *models.ConsultationRequest) (*models.Meeting, error) {
		return r.Accept(now)
	})
	if err != nil {
		return nil, nil, err
	}

	metrics.RequestsDecided.WithLabelValues("accepted").Inc()
	s.log.Info().
		Str("request_id", req.ID.String()).
		Str("meeting_id", meeting.ID.String()).
		Msg("consultation request accepted")
	return req, meeting, nil
}

// Reject closes a pending request without creating a meeting.
func (s *RequestService) Reject(ctx context.Context, caller Caller, id uuid.UUID) (*models.ConsultationRequest, error) {
	now := s.now()
	req, _, err := s.decide(ctx, caller, id, func(r *models.ConsultationRequest) (*models.Meeting, error) {
		return nil, r.Reject(now)
	})
	if err != nil {
		return nil, err
	}

	metrics.RequestsDecided.WithLabelValues("rejected").Inc()
	s.log.Info().Str("request_id", req.ID.String()).Msg("consultation request rejected")
	return req, nil
}

func (s *RequestService) decide(ctx context.Context, caller Caller, id uuid.UUID, fn repositories.DecideFunc) (*models.ConsultationRequest, *models.Meeting, error) {
	if caller.Role != models.RoleCounsellor {
		return nil, nil, apperrors.Forbidden("only the counsellor can answer a request")
	}

	req, meeting, err := s.requests.Decide(ctx, id, func(r *models.ConsultationRequest) (*models.Meeting, error) {
		if r.CounsellorID != caller.UserID {
			return nil, repositories.ErrNotFound
		}
		return fn(r)
	})
	if err != nil {
		return nil, nil, translate(err, "request")
	}
	return req, meeting, nil
}
