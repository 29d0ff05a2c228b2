// Package orchestrator drives one device's side of a consultation: requests,
// the join rendezvous, the media handoff and ending the session.
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
	"github.com/preetsinghmakkar/OpenConsult/internal/mediatransport"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/rendezvous"
)

const (
	defaultRequestTimeout = 10 * time.Second
	subscriberBuffer      = 32
)

// Backend is the server as seen from a device.
type Backend interface {
	rendezvous.Broker
	rendezvous.StatusChecker
	CreateRequest(ctx context.Context, in dtos.CreateRequestRequest) (*dtos.RequestResponse, error)
	GetRequest(ctx context.Context, requestID uuid.UUID) (*dtos.RequestResponse, error)
	ListRequests(ctx context.Context, status string) ([]dtos.RequestResponse, error)
	AcceptRequest(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error)
	RejectRequest(ctx context.Context, requestID uuid.UUID) error
	GetMeeting(ctx context.Context, meetingID uuid.UUID) (*dtos.MeetingResponse, error)
	EndMeeting(ctx context.Context, meetingID uuid.UUID) (*dtos.EndMeetingResponse, error)
	AbandonMeeting(ctx context.Context, meetingID uuid.UUID) (*dtos.EndMeetingResponse, error)
}

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseJoining   Phase = "joining"
	PhaseWaiting   Phase = "waiting"
	PhaseInSession Phase = "in_session"
	PhaseEnding    Phase = "ending"
)

type Options struct {
	PollInterval time.Duration
	// RendezvousTimeout gives up waiting for the peer; zero waits forever.
	RendezvousTimeout time.Duration
	// EndOnAbandon ends a meeting that never went live when its rendezvous is abandoned.
	EndOnAbandon   bool
	RequestTimeout time.Duration
}

type Orchestrator struct {
	role     models.Role
	backend  Backend
	media    mediatransport.Transport
	poller   *rendezvous.Poller
	opts     Options
	validate *validator.Validate
	log      zerolog.Logger
	now      func() time.Time

	base       context.Context
	cancelBase context.CancelFunc

	mu          sync.Mutex
	phase       Phase
	run         *rendezvousRun
	session     *liveSession
	subscribers []chan Event
	closed      bool
}

type rendezvousRun struct {
	meetingID   uuid.UUID
	cancel      context.CancelFunc
	done        chan struct{}
	skipAbandon atomic.Bool
}

type liveSession struct {
	meetingID uuid.UUID
	cancel    context.CancelFunc
}

func New(role models.Role, backend Backend, media mediatransport.Transport, opts Options, log zerolog.Logger) (*Orchestrator, error) {
	if !role.Valid() {
		return nil, models.ErrInvalidRole
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	log = log.With().Str("component", "orchestrator").Str("role", string(role)).Logger()
	base, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		role:       role,
		backend:    backend,
		media:      media,
		poller:     rendezvous.NewPoller(backend, backend, opts.PollInterval, log),
		opts:       opts,
		validate:   newValidator(),
		log:        log,
		now:        time.Now,
		base:       base,
		cancelBase: cancel,
		phase:      PhaseIdle,
	}, nil
}

func (o *Orchestrator) Role() models.Role {
	return o.role
}

func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Close stops any rendezvous, leaves the media channel and closes subscriber channels.
// It does not end the meeting on the server.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	run := o.run
	o.mu.Unlock()
	if run != nil {
		run.skipAbandon.Store(true)
		run.cancel()
	}
	o.cancelBase()
	if run != nil {
		<-run.done
	}
	o.teardown()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	for _, sub := range o.subscribers {
		close(sub)
	}
	o.subscribers = nil
	o.phase = PhaseIdle
}

func (o *Orchestrator) requireRole(role models.Role, reason string) error {
	if o.role != role {
		return apperrors.Forbidden(reason)
	}
	return nil
}

func (o *Orchestrator) setPhase(phase Phase) {
	o.mu.Lock()
	o.phase = phase
	o.mu.Unlock()
}

// fail reports err to subscribers and hands it back for returning.
func (o *Orchestrator) fail(err error) error {
	o.publish(Event{Type: EventError, Message: apperrors.UserMessage(err), Err: err})
	return err
}
