package models

import (
	"time"

	"github.com/google/uuid"
)

type MeetingStatus string

const (
	MeetingStatusPending   MeetingStatus = "pending"
	MeetingStatusWaiting   MeetingStatus = "waiting"
	MeetingStatusOngoing   MeetingStatus = "ongoing"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusCompleted || s == MeetingStatusCancelled
}

// Cancel reasons recorded on the meeting.
const (
	CancelReasonEndedBeforeStart = "ended_before_start"
	CancelReasonPeerNoShow       = "peer_no_show"
	CancelReasonNoShow           = "no_show"
)

// Meeting is the session record created when a request is accepted.
type Meeting struct {
	ID           uuid.UUID  `db:"id"`
	RequestID    uuid.UUID  `db:"request_id"`
	LearnerID    uuid.UUID  `db:"learner_id"`
	CounsellorID uuid.UUID  `db:"counsellor_id"`
	ScheduledAt  *time.Time `db:"scheduled_at"`

	Status           MeetingStatus `db:"status"`
	LearnerJoined    bool          `db:"learner_joined"`
	CounsellorJoined bool          `db:"counsellor_joined"`

	LearnerJoinedAt    *time.Time `db:"learner_joined_at"`
	CounsellorJoinedAt *time.Time `db:"counsellor_joined_at"`

	StartedAt       *time.Time `db:"started_at"`
	EndedAt         *time.Time `db:"ended_at"`
	DurationSeconds int        `db:"duration_seconds"`
	CancelReason    string     `db:"cancel_reason"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// RoleOf resolves which side of the meeting userID is on.
func (m *Meeting) RoleOf(userID uuid.UUID) (Role, bool) {
	switch userID {
	case m.LearnerID:
		return RoleLearner, true
	case m.CounsellorID:
		return RoleCounsellor, true
	}
	return "", false
}

func (m *Meeting) Joined(role Role) bool {
	if role == RoleLearner {
		return m.LearnerJoined
	}
	return m.CounsellorJoined
}

func (m *Meeting) BothJoined() bool {
	return m.LearnerJoined && m.CounsellorJoined
}

// WaitingFor returns the role that has not joined yet, if exactly one side is present.
func (m *Meeting) WaitingFor() *Role {
	if m.Status.IsTerminal() || m.BothJoined() {
		return nil
	}
	var waiting Role
	switch {
	case m.LearnerJoined:
		waiting = RoleCounsellor
	case m.CounsellorJoined:
		waiting = RoleLearner
	default:
		return nil
	}
	return &waiting
}

// MarkJoined flips the flag for role and moves the meeting towards ONGOING.
// Repeating the call for a role that already joined changes nothing and reports false.
func (m *Meeting) MarkJoined(role Role, now time.Time) (bool, error) {
	if !role.Valid() {
		return false, ErrInvalidRole
	}
	if m.Status.IsTerminal() {
		return false, ErrMeetingTerminal
	}
	if m.Joined(role) {
		return false, nil
	}

	if role == RoleLearner {
		m.LearnerJoined = true
		m.LearnerJoinedAt = &now
	} else {
		m.CounsellorJoined = true
		m.CounsellorJoinedAt = &now
	}

	next := MeetingStatusWaiting
	if m.BothJoined() {
		next = MeetingStatusOngoing
	}
	if err := m.transition(next, now); err != nil {
		return false, err
	}
	if next == MeetingStatusOngoing {
		m.StartedAt = &now
	}
	return true, nil
}

// End finishes an ongoing meeting, or cancels one that never started.
func (m *Meeting) End(now time.Time) error {
	switch m.Status {
	case MeetingStatusOngoing:
		if err := m.transition(MeetingStatusCompleted, now); err != nil {
			return err
		}
		m.EndedAt = &now
		if m.StartedAt != nil {
			m.DurationSeconds = int(now.Sub(*m.StartedAt).Seconds())
		}
		return nil
	case MeetingStatusPending, MeetingStatusWaiting:
		return m.Cancel(CancelReasonEndedBeforeStart, now)
	default:
		return ErrMeetingTerminal
	}
}

func (m *Meeting) Cancel(reason string, now time.Time) error {
	if m.Status.IsTerminal() {
		return ErrMeetingTerminal
	}
	if err := m.transition(MeetingStatusCancelled, now); err != nil {
		return err
	}
	m.EndedAt = &now
	m.DurationSeconds = 0
	m.CancelReason = reason
	return nil
}

func (m *Meeting) transition(to MeetingStatus, now time.Time) error {
	if m.Status == to {
		m.UpdatedAt = now
		return nil
	}
	if !ValidTransition(m.Status, to) {
		return ErrInvalidTransition
	}
	m.Status = to
	m.UpdatedAt = now
	return nil
}
