package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

type MockLocker struct {
	TryLockFunc func(ctx context.Context, name string, ttl time.Duration) (func(), error)
}

func (m *MockLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	return m.TryLockFunc(ctx, name, ttl)
}

func TestExpiryPolicy(t *testing.T) {
	policy := ExpiryPolicy{OneSidedWait: 15 * time.Minute, NoShow: 30 * time.Minute}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	tests := []struct {
		name    string
		meeting models.Meeting
		reason  string
		expired bool
	}{
		{
			name:    "waiting peer within limit",
			meeting: models.Meeting{Status: models.MeetingStatusWaiting, LearnerJoined: true, LearnerJoinedAt: at(-10 * time.Minute)},
		},
		{
			name:    "waiting peer past limit",
			meeting: models.Meeting{Status: models.MeetingStatusWaiting, CounsellorJoined: true, CounsellorJoinedAt: at(-16 * time.Minute)},
			reason:  models.CancelReasonPeerNoShow,
			expired: true,
		},
		{
			name:    "instant nobody joined",
			meeting: models.Meeting{Status: models.MeetingStatusPending, CreatedAt: now.Add(-31 * time.Minute)},
			reason:  models.CancelReasonNoShow,
			expired: true,
		},
		{
			name:    "scheduled start still ahead",
			meeting: models.Meeting{Status: models.MeetingStatusPending, CreatedAt: now.Add(-48 * time.Hour), ScheduledAt: at(time.Hour)},
		},
		{
			name:    "ongoing never expires",
			meeting: models.Meeting{Status: models.MeetingStatusOngoing, CreatedAt: now.Add(-48 * time.Hour)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, expired := policy.Expire(&tt.meeting, now)
			assert.Equal(t, tt.expired, expired)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestSweepCancelsAbandonedMeetings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	waiting := f.acceptedMeeting(t, nil)
	_, err := f.meetings.Join(ctx, f.learner, waiting.ID, "")
	require.NoError(t, err)
	live := f.acceptedMeeting(t, nil)
	_, err = f.meetings.Join(ctx, f.learner, live.ID, "")
	require.NoError(t, err)
	_, err = f.meetings.Join(ctx, f.counsellor, live.ID, "")
	require.NoError(t, err)

	sweeper := NewExpirySweeper(f.store.Meetings(), ExpiryPolicy{OneSidedWait: 15 * time.Minute, NoShow: 30 * time.Minute}, nil, time.Minute, zerolog.Nop())
	sweeper.now = func() time.Time { return f.clock.Add(20 * time.Minute) }

	assert.Equal(t, 1, sweeper.Sweep(ctx))

	stored, err := f.meetings.Get(ctx, f.learner, waiting.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MeetingStatusCancelled, stored.Status)
	assert.Equal(t, models.CancelReasonPeerNoShow, stored.CancelReason)

	stored, err = f.meetings.Get(ctx, f.learner, live.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MeetingStatusOngoing, stored.Status)

	assert.Equal(t, 0, sweeper.Sweep(ctx))
}

func TestSweepSkipsWhenLockHeld(t *testing.T) {
	f := newFixture(t)
	f.acceptedMeeting(t, nil)

	locker := &MockLocker{TryLockFunc: func(ctx context.Context, name string, ttl time.Duration) (func(), error) {
		return nil, nil
	}}
	sweeper := NewExpirySweeper(f.store.Meetings(), ExpiryPolicy{NoShow: time.Minute}, locker, time.Minute, zerolog.Nop())
	sweeper.now = func() time.Time { return f.clock.Add(time.Hour) }
	assert.Equal(t, 0, sweeper.Sweep(context.Background()))

	released := false
	locker.TryLockFunc = func(ctx context.Context, name string, ttl time.Duration) (func(), error) {
		assert.Equal(t, sweeperLockName, name)
		return func() { released = true }, nil
	}
	assert.Equal(t, 1, sweeper.Sweep(context.Background()))
	assert.True(t, released)
}

func TestSweeperStartStop(t *testing.T) {
	f := newFixture(t)
	sweeper := NewExpirySweeper(f.store.Meetings(), ExpiryPolicy{}, nil, 10*time.Millisecond, zerolog.Nop())
	sweeper.Start(context.Background())
	sweeper.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	sweeper.Stop()
	sweeper.Stop()
}
