package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/metrics"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/repositories"
	"github.com/preetsinghmakkar/OpenConsult/internal/transport"
	"github.com/preetsinghmakkar/OpenConsult/internal/utils"
)

// MeetingService is the server-side broker: it gates joins, records presence
// and hands out transport credentials.
type MeetingService struct {
	meetings repositories.MeetingStore
	issuer   transport.Issuer
	provider string
	log      zerolog.Logger
	now      func() time.Time
}

func NewMeetingService(meetings repositories.MeetingStore, issuer transport.Issuer, provider string, log zerolog.Logger) *MeetingService {
	return &MeetingService{
		meetings: meetings,
		issuer:   issuer,
		provider: provider,
		log:      log.With().Str("component", "meeting-service").Logger(),
		now:      time.Now,
	}
}

// Join records that the caller is present and returns a credential for the media channel.
// Repeating the call is harmless: the flag stays set and a fresh credential is issued.
func (s *MeetingService) Join(ctx context.Context, caller Caller, meetingID uuid.UUID, requested models.Role) (*models.JoinAttempt, error) {
	meeting, role, err := s.load(ctx, caller, meetingID)
	if err != nil {
		return nil, err
	}
	if caller.Role != role || (requested != "" && requested != role) {
		metrics.JoinAttempts.WithLabelValues(string(caller.Role), "forbidden").Inc()
		return nil, apperrors.Forbidden("role does not match this meeting")
	}

	now := s.now()
	window := utils.EvaluateJoinWindow(now, meeting.Status, meeting.ScheduledAt)
	switch {
	case window.Terminal:
		metrics.JoinAttempts.WithLabelValues(string(role), "terminal").Inc()
		return nil, terminalError(meeting.Status)
	case window.TooEarly:
		metrics.JoinAttempts.WithLabelValues(string(role), "too_early").Inc()
		return nil, apperrors.TooEarly(window.MinutesRemaining)
	}

	// A failed issuance must leave the meeting untouched.
	started := time.Now()
	cred, err := s.issuer.Issue(ctx, meeting, role)
	metrics.CredentialIssueDuration.WithLabelValues(s.provider).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.JoinAttempts.WithLabelValues(string(role), "transport_failed").Inc()
		s.log.Error().Err(err).Str("meeting_id", meetingID.String()).Msg("issue transport credential")
		return nil, apperrors.TransportIssuance(err)
	}

	var (
		from    models.MeetingStatus
		changed bool
	)
	updated, err := s.meetings.Update(ctx, meetingID, func(m *models.Meeting) error {
		if m.Status.IsTerminal() {
			return terminalError(m.Status)
		}
		from = m.Status
		var markErr error
		changed, markErr = m.MarkJoined(role, now)
		return markErr
	})
	if err != nil {
		return nil, translate(err, "meeting")
	}

	if changed {
		metrics.RecordTransition(string(from), string(updated.Status))
		s.log.Info().
			Str("meeting_id", meetingID.String()).
			Str("role", string(role)).
			Str("from", string(from)).
			Str("to", string(updated.Status)).
			Msg("participant joined")
	}

	metrics.JoinAttempts.WithLabelValues(string(role), "allowed").Inc()
	return &models.JoinAttempt{
		Allowed:       true,
		MeetingID:     updated.ID,
		MeetingStatus: updated.Status,
		WaitingFor:    updated.WaitingFor(),
		Credential:    cred,
	}, nil
}

// Status is the cheap read both pollers hit while waiting for each other.
func (s *MeetingService) Status(ctx context.Context, caller Caller, meetingID uuid.UUID) (models.MeetingState, error) {
	meeting, _, err := s.load(ctx, caller, meetingID)
	if err != nil {
		return models.MeetingState{}, err
	}
	return meeting.State(), nil
}

func (s *MeetingService) Get(ctx context.Context, caller Caller, meetingID uuid.UUID) (*models.Meeting, error) {
	meeting, _, err := s.load(ctx, caller, meetingID)
	return meeting, err
}

// End completes an ongoing meeting. A meeting that never started is cancelled instead.
func (s *MeetingService) End(ctx context.Context, caller Caller, meetingID uuid.UUID) (*models.Meeting, error) {
	if _, _, err := s.load(ctx, caller, meetingID); err != nil {
		return nil, err
	}

	var from models.MeetingStatus
	updated, err := s.meetings.Update(ctx, meetingID, func(m *models.Meeting) error {
		if m.Status.IsTerminal() {
			return terminalError(m.Status)
		}
		from = m.Status
		return m.End(s.now())
	})
	if err != nil {
		return nil, translate(err, "meeting")
	}

	metrics.RecordTransition(string(from), string(updated.Status))
	if updated.Status == models.MeetingStatusCompleted {
		metrics.MeetingDuration.Observe(float64(updated.DurationSeconds))
	}
	s.log.Info().
		Str("meeting_id", meetingID.String()).
		Str("ended_by", string(caller.Role)).
		Str("status", string(updated.Status)).
		Int("duration_seconds", updated.DurationSeconds).
		Msg("meeting ended")

	return updated, nil
}

// Abandon cancels a meeting the caller walked away from before it went live.
// Unlike End it never completes a meeting: once both parties joined it fails with ALREADY_STARTED.
func (s *MeetingService) Abandon(ctx context.Context, caller Caller, meetingID uuid.UUID) (*models.Meeting, error) {
	if _, _, err := s.load(ctx, caller, meetingID); err != nil {
		return nil, err
	}

	var from models.MeetingStatus
	updated, err := s.meetings.Update(ctx, meetingID, func(m *models.Meeting) error {
		switch {
		case m.Status.IsTerminal():
			return terminalError(m.Status)
		case m.Status == models.MeetingStatusOngoing:
			return apperrors.AlreadyStarted()
		}
		from = m.Status
		return m.Cancel(models.CancelReasonEndedBeforeStart, s.now())
	})
	if err != nil {
		return nil, translate(err, "meeting")
	}

	metrics.RecordTransition(string(from), string(updated.Status))
	s.log.Info().
		Str("meeting_id", meetingID.String()).
		Str("abandoned_by", string(caller.Role)).
		Str("from", string(from)).
		Msg("meeting abandoned")

	return updated, nil
}

// load fetches a meeting and resolves the caller's side. Strangers get NOT_FOUND.
func (s *MeetingService) load(ctx context.Context, caller Caller, meetingID uuid.UUID) (*models.Meeting, models.Role, error) {
	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, "", translate(err, "meeting")
	}
	role, ok := meeting.RoleOf(caller.UserID)
	if !ok {
		return nil, "", apperrors.NotFound("meeting not found")
	}
	return meeting, role, nil
}
