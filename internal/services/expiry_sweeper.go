package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/metrics"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/repositories"
)

const sweeperLockName = "openconsult:expiry-sweeper"

var errNotExpired = errors.New("meeting no longer expired")

// Locker keeps concurrent server instances from sweeping the same meetings.
// A nil release with a nil error means another instance holds the lock.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), err error)
}

// ExpiryPolicy decides when an unfinished meeting is given up on.
type ExpiryPolicy struct {
	// OneSidedWait bounds how long a single joined party waits for the other.
	OneSidedWait time.Duration
	// NoShow bounds how long after its start a meeting may sit with nobody joined.
	NoShow       time.Duration
}

// Expire returns the cancel reason if meeting should be cancelled at now.
func (p ExpiryPolicy) Expire(meeting *models.Meeting, now time.Time) (string, bool) {
	switch meeting.Status {
	case models.MeetingStatusWaiting:
		joinedAt := meeting.LearnerJoinedAt
		if joinedAt == nil {
			joinedAt = meeting.CounsellorJoinedAt
		}
		if joinedAt != nil && p.OneSidedWait > 0 && now.Sub(*joinedAt) > p.OneSidedWait {
			return models.CancelReasonPeerNoShow, true
		}
	case models.MeetingStatusPending:
		reference := meeting.CreatedAt
		if meeting.ScheduledAt != nil {
			reference = *meeting.ScheduledAt
		}
		if p.NoShow > 0 && now.Sub(reference) > p.NoShow {
			return models.CancelReasonNoShow, true
		}
	}
	return "", false
}

// ExpirySweeper periodically cancels meetings that were abandoned before they started.
type ExpirySweeper struct {
	meetings  repositories.MeetingStore
	policy    ExpiryPolicy
	locker    Locker
	interval  time.Duration
	log       zerolog.Logger
	now       func() time.Time
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewExpirySweeper creates a sweeper. locker may be nil for a single instance deployment.
func NewExpirySweeper(
	meetings repositories.MeetingStore,
	policy ExpiryPolicy,
	locker Locker,
	interval time.Duration,
	log zerolog.Logger,
) *ExpirySweeper {
	return &ExpirySweeper{
		meetings: meetings,
		policy:   policy,
		locker:   locker,
		interval: interval,
		log:      log.With().Str("component", "expiry-sweeper").Logger(),
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop in background. Only the first call has an effect.
func (s *ExpirySweeper) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.run(ctx)
		s.log.Info().Dur("interval", s.interval).Msg("expiry sweeper started")
	})
}

// Stop shuts the loop down and waits for an in-flight sweep to finish.
func (s *ExpirySweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.log.Info().Msg("expiry sweeper stopped")
	})
}

func (s *ExpirySweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns how many meetings were cancelled.
func (s *ExpirySweeper) Sweep(ctx context.Context) int {
	if s.locker != nil {
		release, err := s.locker.TryLock(ctx, sweeperLockName, s.interval)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to take sweeper lock")
			return 0
		}
		if release == nil {
			s.log.Debug().Msg("sweeper lock held elsewhere, skipping")
			return 0
		}
		defer release()
	}

	open, err := s.meetings.ListOpen(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list open meetings")
		return 0
	}

	now := s.now()
	cancelled := 0
	for _, meeting := range open {
		if _, expired := s.policy.Expire(meeting, now); !expired {
			continue
		}

		var (
			from   models.MeetingStatus
			reason string
		)
		_, err := s.meetings.Update(ctx, meeting.ID, func(m *models.Meeting) error {
			var expired bool
			// state may have moved since the list was read
			reason, expired = s.policy.Expire(m, now)
			if !expired {
				return errNotExpired
			}
			from = m.Status
			return m.Cancel(reason, now)
		})
		if errors.Is(err, errNotExpired) {
			continue
		}
		if err != nil {
			s.log.Warn().Err(err).Str("meeting_id", meeting.ID.String()).Msg("failed to expire meeting")
			continue
		}

		cancelled++
		metrics.RecordTransition(string(from), string(models.MeetingStatusCancelled))
		metrics.ExpiredMeetings.WithLabelValues(reason).Inc()
		s.log.Info().
			Str("meeting_id", meeting.ID.String()).
			Str("reason", reason).
			Msg("meeting expired")
	}
	return cancelled
}

