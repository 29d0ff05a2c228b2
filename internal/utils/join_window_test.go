package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

func TestCanJoin(t *testing.T) {
	start := time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		now         time.Time
		scheduledAt *time.Time
		want        bool
	}{
		{"instant meeting", start, nil, true},
		{"ten minutes early", start.Add(-10 * time.Minute), &start, false},
		{"just outside window", start.Add(-5*time.Minute - time.Second), &start, false},
		{"window boundary is inclusive", start.Add(-5 * time.Minute), &start, true},
		{"four minutes early", start.Add(-4 * time.Minute), &start, true},
		{"on time", start, &start, true},
		{"late", start.Add(40 * time.Minute), &start, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanJoin(tt.now, tt.scheduledAt, EarlyJoinWindow))
		})
	}
}

func TestEvaluateJoinWindow(t *testing.T) {
	start := time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC)

	early := EvaluateJoinWindow(start.Add(-10*time.Minute), models.MeetingStatusPending, &start)
	assert.False(t, early.Allowed)
	assert.True(t, early.TooEarly)
	assert.Equal(t, 10, early.MinutesRemaining)

	partial := EvaluateJoinWindow(start.Add(-9*time.Minute-30*time.Second), models.MeetingStatusPending, &start)
	assert.Equal(t, 10, partial.MinutesRemaining)

	ok := EvaluateJoinWindow(start.Add(-4*time.Minute), models.MeetingStatusWaiting, &start)
	assert.True(t, ok.Allowed)

	done := EvaluateJoinWindow(start, models.MeetingStatusCompleted, nil)
	assert.False(t, done.Allowed)
	assert.True(t, done.Terminal)
}

func TestFormatTimeInTimezone(t *testing.T) {
	ts := time.Date(2026, 5, 4, 10, 17, 0, 0, time.UTC)
	got, err := FormatTimeInTimezone(ts, "Asia/Kolkata")
	assert.NoError(t, err)
	assert.Contains(t, got, "15:47")

	_, err = FormatTimeInTimezone(ts, "Mars/Olympus")
	assert.Error(t, err)
}
