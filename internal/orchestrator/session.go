package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
	"github.com/preetsinghmakkar/OpenConsult/internal/mediatransport"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/rendezvous"
	"github.com/preetsinghmakkar/OpenConsult/internal/utils"
)

const updateBuffer = 16

// BeginRendezvous joins meetingID and waits for the other party. The returned
// channel ends with a READY or FAILED update and is then closed. On READY the
// media transport is already connected.
func (o *Orchestrator) BeginRendezvous(ctx context.Context, meetingID uuid.UUID) (<-chan rendezvous.Update, error) {
	runCtx, cancel := context.WithCancel(ctx)
	run, err := o.reserve(meetingID, cancel)
	if err != nil {
		cancel()
		return nil, o.fail(err)
	}

	if err := o.gate(runCtx, meetingID); err != nil {
		o.release(run)
		cancel()
		return nil, o.fail(err)
	}

	out := make(chan rendezvous.Update, updateBuffer)
	updates := o.poller.Start(runCtx, meetingID, o.role)
	go o.follow(run, updates, out)
	return out, nil
}

// CancelRendezvous stops the running rendezvous, if any, and waits until it has
// stopped. It reports whether one was running.
func (o *Orchestrator) CancelRendezvous() bool {
	o.mu.Lock()
	run := o.run
	o.mu.Unlock()
	if run == nil {
		return false
	}
	run.cancel()
	<-run.done
	return true
}

// EndSession ends the meeting on the server and then leaves the media channel.
func (o *Orchestrator) EndSession(ctx context.Context, meetingID uuid.UUID) (*dtos.EndMeetingResponse, error) {
	o.mu.Lock()
	run := o.run
	o.mu.Unlock()
	if run != nil && run.meetingID == meetingID {
		run.skipAbandon.Store(true)
		run.cancel()
		<-run.done
	}

	o.setPhase(PhaseEnding)
	resp, err := o.backend.EndMeeting(ctx, meetingID)
	o.teardown()
	o.setPhase(PhaseIdle)
	if err != nil {
		return nil, o.fail(err)
	}

	o.log.Info().
		Str("meeting_id", meetingID.String()).
		Str("status", resp.Status).
		Int("duration_seconds", resp.DurationSeconds).
		Msg("session ended")
	o.publish(Event{
		Type:            EventSessionEnded,
		MeetingID:       meetingID,
		Status:          resp.Status,
		DurationSeconds: resp.DurationSeconds,
		Message:         durationMessage(resp.DurationSeconds),
	})
	return resp, nil
}

func (o *Orchestrator) reserve(meetingID uuid.UUID, cancel context.CancelFunc) (*rendezvousRun, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil, apperrors.Validation("orchestrator is closed")
	}
	if o.run != nil || o.phase != PhaseIdle {
		return nil, apperrors.Validation("another session is already in progress")
	}
	run := &rendezvousRun{
		meetingID: meetingID,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	o.run = run
	o.phase = PhaseJoining
	return run, nil
}

func (o *Orchestrator) release(run *rendezvousRun) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run == run {
		o.run = nil
		o.phase = PhaseIdle
	}
	close(run.done)
}

// gate applies the join window locally so an early join never reaches the server.
func (o *Orchestrator) gate(ctx context.Context, meetingID uuid.UUID) error {
	meeting, err := o.backend.GetMeeting(ctx, meetingID)
	if err != nil {
		return err
	}

	window := utils.EvaluateJoinWindow(o.now(), models.MeetingStatus(meeting.Status), meeting.ScheduledAt)
	switch {
	case window.Terminal:
		return apperrors.AlreadyTerminal("already " + meeting.Status)
	case window.TooEarly:
		return apperrors.TooEarly(window.MinutesRemaining)
	}
	return nil
}

func (o *Orchestrator) follow(run *rendezvousRun, updates <-chan rendezvous.Update, out chan<- rendezvous.Update) {
	defer close(run.done)
	defer close(out)

	var timeout <-chan time.Time
	if o.opts.RendezvousTimeout > 0 {
		timer := time.NewTimer(o.opts.RendezvousTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	timedOut := false
	for {
		var u rendezvous.Update
		var ok bool
		select {
		case <-timeout:
			o.log.Info().Str("meeting_id", run.meetingID.String()).Msg("gave up waiting for peer")
			timedOut = true
			timeout = nil
			run.cancel()
			continue
		case u, ok = <-updates:
			if !ok {
				return
			}
		}

		if u.State == rendezvous.StateFailed && timedOut {
			u.Err = apperrors.WaitTimeout()
		}
		if u.State == rendezvous.StateReady {
			u = o.handoff(run, u)
		}

		o.apply(run, u, timedOut)

		if u.State.Done() {
			if u.State == rendezvous.StateFailed && (timedOut || errors.Is(u.Err, context.Canceled)) {
				o.abandon(run)
			}
			run.cancel()
			// the final update is never dropped while the orchestrator is open
			select {
			case out <- u:
			default:
				select {
				case out <- u:
				case <-o.base.Done():
				}
			}
			return
		}

		select {
		case out <- u:
		default:
			o.log.Debug().Str("state", string(u.State)).Msg("rendezvous update dropped")
		}
	}
}

// handoff connects the media transport with the credential from the join.
func (o *Orchestrator) handoff(run *rendezvousRun, u rendezvous.Update) rendezvous.Update {
	if u.Credential == nil {
		u.State = rendezvous.StateFailed
		u.Err = apperrors.TransportIssuance(errors.New("no transport credential issued"))
		return u
	}

	ctx, cancel := context.WithCancel(o.base)
	presence, err := o.media.Connect(ctx, mediatransport.Handoff{
		Credential: *u.Credential,
		ChannelID:  u.Credential.ChannelID,
		Role:       o.role,
	})
	if err != nil {
		cancel()
		o.log.Warn().Err(err).Str("meeting_id", run.meetingID.String()).Msg("media handoff failed")
		u.State = rendezvous.StateFailed
		u.Err = apperrors.TransportIssuance(err)
		return u
	}

	o.mu.Lock()
	o.session = &liveSession{meetingID: run.meetingID, cancel: cancel}
	o.mu.Unlock()

	go o.relayPresence(ctx, run.meetingID, presence)
	return u
}

// relayPresence forwards transport presence to subscribers. It never changes the phase.
func (o *Orchestrator) relayPresence(ctx context.Context, meetingID uuid.UUID, presence <-chan mediatransport.PresenceEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-presence:
			if !ok {
				return
			}
			o.publish(Event{
				Type:      EventPresence,
				MeetingID: meetingID,
				Presence:  &event,
				Message:   presenceMessage(event),
			})
		}
	}
}

func (o *Orchestrator) apply(run *rendezvousRun, u rendezvous.Update, timedOut bool) {
	event := Event{
		MeetingID:  run.meetingID,
		Status:     string(u.MeetingStatus),
		WaitingFor: u.WaitingFor,
	}

	o.mu.Lock()
	switch u.State {
	case rendezvous.StateJoining:
		o.phase = PhaseJoining
		event.Type = EventRendezvous
		event.Message = "Joining the session."
	case rendezvous.StateWaiting:
		o.phase = PhaseWaiting
		event.Type = EventRendezvous
		event.Message = waitingMessage(u.WaitingFor)
	case rendezvous.StateReady:
		if o.run == run {
			o.run = nil
		}
		o.phase = PhaseInSession
		event.Type = EventSessionStarted
		event.Message = "Both parties are here. You are live."
	case rendezvous.StateFailed:
		if o.run == run {
			o.run = nil
		}
		o.phase = PhaseIdle
		if errors.Is(u.Err, context.Canceled) && !timedOut {
			event.Type = EventRendezvous
			event.Message = "Stopped waiting."
		} else {
			event.Type = EventError
			event.Err = u.Err
			event.Message = apperrors.UserMessage(u.Err)
		}
	}
	event.Phase = o.phase
	o.mu.Unlock()

	o.publish(event)
}

// abandon cancels a meeting this side walked away from before it went live.
// The server refuses once the meeting is ONGOING.
func (o *Orchestrator) abandon(run *rendezvousRun) {
	if !o.opts.EndOnAbandon || run.skipAbandon.Load() {
		return
	}

	ctx, cancel := context.WithTimeout(o.base, o.opts.RequestTimeout)
	defer cancel()
	if _, err := o.backend.AbandonMeeting(ctx, run.meetingID); err != nil {
		if apperrors.IsKind(err, apperrors.KindConflict) {
			o.log.Info().Err(err).Str("meeting_id", run.meetingID.String()).Msg("meeting not abandoned")
			return
		}
		o.log.Warn().Err(err).Str("meeting_id", run.meetingID.String()).Msg("failed to end abandoned meeting")
		return
	}
	o.log.Info().Str("meeting_id", run.meetingID.String()).Msg("ended abandoned meeting")
}

func (o *Orchestrator) teardown() {
	o.mu.Lock()
	sess := o.session
	o.session = nil
	o.mu.Unlock()
	if sess == nil {
		return
	}

	if err := o.media.Close(); err != nil && !errors.Is(err, mediatransport.ErrNotConnected) {
		o.log.Warn().Err(err).Str("meeting_id", sess.meetingID.String()).Msg("media transport close failed")
	}
	sess.cancel()
}
