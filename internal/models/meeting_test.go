package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAcceptedMeeting(t *testing.T, now time.Time) *Meeting {
	t.Helper()
	req := &ConsultationRequest{
		ID:           uuid.New(),
		LearnerID:    uuid.New(),
		CounsellorID: uuid.New(),
		Kind:         RequestKindInstant,
		Message:      "need help with calculus",
		Status:       RequestStatusPending,
		CreatedAt:    now,
	}
	meeting, err := req.Accept(now)
	require.NoError(t, err)
	return meeting
}

func TestAcceptCreatesPendingMeeting(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	meeting := newAcceptedMeeting(t, now)

	assert.Equal(t, MeetingStatusPending, meeting.Status)
	assert.False(t, meeting.LearnerJoined)
	assert.False(t, meeting.CounsellorJoined)
	assert.Nil(t, meeting.WaitingFor())
}

func TestRequestDecidedOnce(t *testing.T) {
	now := time.Now()
	req := &ConsultationRequest{ID: uuid.New(), Status: RequestStatusPending}

	require.NoError(t, req.Reject(now))
	assert.Equal(t, RequestStatusRejected, req.Status)

	_, err := req.Accept(now)
	assert.ErrorIs(t, err, ErrRequestDecided)
	assert.ErrorIs(t, req.Reject(now), ErrRequestDecided)
}

func TestMarkJoinedRendezvous(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	meeting := newAcceptedMeeting(t, now)

	changed, err := meeting.MarkJoined(RoleLearner, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, MeetingStatusWaiting, meeting.Status)
	require.NotNil(t, meeting.WaitingFor())
	assert.Equal(t, RoleCounsellor, *meeting.WaitingFor())

	changed, err = meeting.MarkJoined(RoleLearner, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, changed, "second join for the same role must not change state")
	assert.Equal(t, now.Add(time.Minute), *meeting.LearnerJoinedAt)

	changed, err = meeting.MarkJoined(RoleCounsellor, now.Add(3*time.Minute))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, MeetingStatusOngoing, meeting.Status)
	require.NotNil(t, meeting.StartedAt)
	assert.Equal(t, now.Add(3*time.Minute), *meeting.StartedAt)
}

func TestEndComputesDuration(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	meeting := newAcceptedMeeting(t, now)
	_, _ = meeting.MarkJoined(RoleLearner, now)
	_, _ = meeting.MarkJoined(RoleCounsellor, now)

	require.NoError(t, meeting.End(now.Add(25*time.Minute)))
	assert.Equal(t, MeetingStatusCompleted, meeting.Status)
	assert.Equal(t, 1500, meeting.DurationSeconds)

	assert.ErrorIs(t, meeting.End(now.Add(26*time.Minute)), ErrMeetingTerminal)
	_, err := meeting.MarkJoined(RoleLearner, now.Add(27*time.Minute))
	assert.ErrorIs(t, err, ErrMeetingTerminal)
}

func TestEndBeforeStartCancels(t *testing.T) {
	now := time.Now()
	meeting := newAcceptedMeeting(t, now)
	_, _ = meeting.MarkJoined(RoleLearner, now)

	require.NoError(t, meeting.End(now.Add(time.Minute)))
	assert.Equal(t, MeetingStatusCancelled, meeting.Status)
	assert.Equal(t, CancelReasonEndedBeforeStart, meeting.CancelReason)
	assert.Zero(t, meeting.DurationSeconds)
	assert.Nil(t, meeting.WaitingFor())
}

func TestOngoingOnlyWithBothFlags(t *testing.T) {
	roles := [][]Role{
		{RoleLearner},
		{RoleCounsellor},
		{RoleLearner, RoleLearner},
		{RoleCounsellor, RoleLearner},
		{RoleLearner, RoleCounsellor, RoleCounsellor},
	}
	now := time.Now()
	for _, seq := range roles {
		meeting := newAcceptedMeeting(t, now)
		for _, role := range seq {
			_, err := meeting.MarkJoined(role, now)
			require.NoError(t, err)
			if meeting.Status == MeetingStatusOngoing {
				assert.True(t, meeting.BothJoined(), "sequence %v", seq)
			}
		}
	}
}

func TestMarkJoinedRejectsUnknownRole(t *testing.T) {
	meeting := newAcceptedMeeting(t, time.Now())
	_, err := meeting.MarkJoined(Role("observer"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from  MeetingStatus
		to    MeetingStatus
		valid bool
	}{
		{MeetingStatusPending, MeetingStatusWaiting, true},
		{MeetingStatusPending, MeetingStatusOngoing, true},
		{MeetingStatusPending, MeetingStatusCompleted, false},
		{MeetingStatusWaiting, MeetingStatusOngoing, true},
		{MeetingStatusWaiting, MeetingStatusCancelled, true},
		{MeetingStatusOngoing, MeetingStatusCompleted, true},
		{MeetingStatusOngoing, MeetingStatusCancelled, false},
		{MeetingStatusCompleted, MeetingStatusOngoing, false},
		{MeetingStatusCancelled, MeetingStatusWaiting, false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.from, tt.to); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}
