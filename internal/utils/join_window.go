package utils

import (
	"math"
	"time"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

// EarlyJoinWindow is how long before a scheduled start a party may join.
const EarlyJoinWindow = 5 * time.Minute

// CanJoin reports whether a join attempt is inside the permitted window.
// Instant meetings (scheduledAt == nil) are always joinable; being late never blocks.
func CanJoin(now time.Time, scheduledAt *time.Time, earlyWindow time.Duration) bool {
	if scheduledAt == nil {
		return true
	}
	return scheduledAt.Sub(now) <= earlyWindow
}

// JoinWindow is the outcome of evaluating a join attempt against a meeting.
type JoinWindow struct {
	Allowed          bool
	Terminal         bool
	TooEarly         bool
	MinutesRemaining int
}

// EvaluateJoinWindow combines the terminal check with CanJoin. MinutesRemaining counts
// whole minutes, rounded up, until the scheduled start.
func EvaluateJoinWindow(now time.Time, status models.MeetingStatus, scheduledAt *time.Time) JoinWindow {
	if status.IsTerminal() {
		return JoinWindow{Terminal: true}
	}
	if CanJoin(now, scheduledAt, EarlyJoinWindow) {
		return JoinWindow{Allowed: true}
	}
	remaining := scheduledAt.Sub(now)
	return JoinWindow{
		TooEarly:         true,
		MinutesRemaining: int(math.Ceil(remaining.Minutes())),
	}
}

// FormatTimeInTimezone renders t in the named IANA zone.
func FormatTimeInTimezone(t time.Time, timezone string) (string, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format("Mon, 02 Jan 2006 15:04 MST"), nil
}
