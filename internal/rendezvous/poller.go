// Package rendezvous waits, on one device, until both parties of a meeting are present.
package rendezvous

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

const DefaultInterval = 3 * time.Second

type State string

const (
	StateIdle    State = "idle"
	StateJoining State = "joining"
	StateWaiting State = "waiting"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

func (s State) Done() bool {
	return s == StateReady || s == StateFailed
}

// Update is one step of a rendezvous as seen by the caller.
type Update struct {
	State         State
	MeetingID     uuid.UUID
	MeetingStatus models.MeetingStatus
	WaitingFor    *models.Role
	// Credential is the one obtained when joining; set on READY.
	Credential *models.TransportCredential
	Err        error
}

// Broker records the caller's presence and hands out a transport credential.
type Broker interface {
	Join(ctx context.Context, meetingID uuid.UUID, role models.Role) (*models.JoinAttempt, error)
}

// StatusChecker reads the meeting without joining it again.
type StatusChecker interface {
	MeetingStatus(ctx context.Context, meetingID uuid.UUID) (models.MeetingState, error)
}

type Poller struct {
	broker   Broker
	status   StatusChecker
	interval time.Duration
	log      zerolog.Logger
}

func NewPoller(broker Broker, status StatusChecker, interval time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		broker:   broker,
		status:   status,
		interval: interval,
		log:      log.With().Str("component", "rendezvous").Logger(),
	}
}

// Start joins meetingID as role and keeps checking its status until both
// parties are present, the meeting ends, or ctx is cancelled. The channel
// ends with a READY or FAILED update and is then closed; no backend call is
// made after that.
func (p *Poller) Start(ctx context.Context, meetingID uuid.UUID, role models.Role) <-chan Update {
	updates := make(chan Update, 4)
	go func() {
		defer close(updates)
		final := p.run(ctx, meetingID, role, updates)
		select {
		case updates <- final:
		case <-ctx.Done():
			select {
			case updates <- final:
			default:
				p.log.Debug().Str("meeting_id", meetingID.String()).Str("state", string(final.State)).Msg("final update dropped")
			}
		}
	}()
	return updates
}

func (p *Poller) run(ctx context.Context, meetingID uuid.UUID, role models.Role, updates chan<- Update) Update {
	log := p.log.With().Str("meeting_id", meetingID.String()).Str("role", string(role)).Logger()
	failed := func(status models.MeetingStatus, err error) Update {
		return Update{State: StateFailed, MeetingID: meetingID, MeetingStatus: status, Err: err}
	}

	if !emit(ctx, updates, Update{State: StateJoining, MeetingID: meetingID}) {
		return failed("", ctx.Err())
	}

	attempt, err := p.broker.Join(ctx, meetingID, role)
	if err != nil {
		if ctx.Err() != nil {
			return failed("", ctx.Err())
		}
		log.Info().Err(err).Msg("join rejected")
		return failed("", err)
	}
	if !attempt.Allowed {
		return failed(attempt.MeetingStatus, refusal(attempt))
	}

	credential := attempt.Credential
	switch {
	case attempt.MeetingStatus == models.MeetingStatusOngoing:
		log.Info().Msg("peer already present")
		return Update{State: StateReady, MeetingID: meetingID, MeetingStatus: attempt.MeetingStatus, Credential: credential}
	case attempt.MeetingStatus.IsTerminal():
		return failed(attempt.MeetingStatus, apperrors.AlreadyTerminal("already "+string(attempt.MeetingStatus)))
	}

	waitingFor := attempt.WaitingFor
	if waitingFor == nil {
		peer := role.Peer()
		waitingFor = &peer
	}
	if !emit(ctx, updates, Update{State: StateWaiting, MeetingID: meetingID, MeetingStatus: attempt.MeetingStatus, WaitingFor: waitingFor}) {
		return failed(attempt.MeetingStatus, ctx.Err())
	}
	log.Debug().Str("waiting_for", string(*waitingFor)).Msg("waiting for peer")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	lastStatus := attempt.MeetingStatus
	for {
		select {
		case <-ctx.Done():
			return failed(lastStatus, ctx.Err())
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return failed(lastStatus, ctx.Err())
		}

		state, err := p.status.MeetingStatus(ctx, meetingID)
		if err != nil {
			if ctx.Err() != nil {
				return failed(lastStatus, ctx.Err())
			}
			if apperrors.IsKind(err, apperrors.KindNetwork) {
				log.Warn().Err(err).Msg("status check failed, retrying on next tick")
				continue
			}
			log.Info().Err(err).Msg("status check rejected")
			return failed(lastStatus, err)
		}

		switch {
		case state.Status == models.MeetingStatusOngoing || state.BothJoined():
			log.Info().Msg("both parties present")
			return Update{State: StateReady, MeetingID: meetingID, MeetingStatus: state.Status, Credential: credential}
		case state.Status.IsTerminal():
			log.Info().Str("status", string(state.Status)).Msg("meeting ended while waiting")
			return failed(state.Status, apperrors.AlreadyTerminal("already "+string(state.Status)))
		}

		if state.Status != lastStatus || (state.WaitingFor != nil && !sameRole(state.WaitingFor, waitingFor)) {
			lastStatus = state.Status
			if state.WaitingFor != nil {
				waitingFor = state.WaitingFor
			}
			if !emit(ctx, updates, Update{State: StateWaiting, MeetingID: meetingID, MeetingStatus: state.Status, WaitingFor: waitingFor}) {
				return failed(lastStatus, ctx.Err())
			}
		}
	}
}

// refusal turns an allowed=false answer into the matching typed error.
func refusal(attempt *models.JoinAttempt) error {
	switch {
	case attempt.MinutesRemaining > 0:
		return apperrors.TooEarly(attempt.MinutesRemaining)
	case attempt.MeetingStatus.IsTerminal():
		return apperrors.AlreadyTerminal("already " + string(attempt.MeetingStatus))
	case attempt.Reason != "":
		return apperrors.New(apperrors.KindConflict, apperrors.CodeAlreadyTerminal, attempt.Reason)
	}
	return apperrors.Internal(errors.New("join not allowed"))
}

func emit(ctx context.Context, updates chan<- Update, u Update) bool {
	select {
	case updates <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

func sameRole(a, b *models.Role) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
