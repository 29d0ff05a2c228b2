package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

// MeetingRepository is the postgres MeetingStore.
type MeetingRepository struct {
	db *sql.DB
}

func NewMeetingRepository(db *sql.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

const meetingColumns = `
	id,
	request_id,
	learner_id,
	counsellor_id,
	scheduled_at,
	status,
	learner_joined,
	counsellor_joined,
	learner_joined_at,
	counsellor_joined_at,
	started_at,
	ended_at,
	duration_seconds,
	cancel_reason,
	created_at,
	updated_at
`

func scanMeeting(row rowScanner) (*models.Meeting, error) {
	var meeting models.Meeting
	err := row.Scan(
		&meeting.ID,
		&meeting.RequestID,
		&meeting.LearnerID,
		&meeting.CounsellorID,
		&meeting.ScheduledAt,
		&meeting.Status,
		&meeting.LearnerJoined,
		&meeting.CounsellorJoined,
		&meeting.LearnerJoinedAt,
		&meeting.CounsellorJoinedAt,
		&meeting.StartedAt,
		&meeting.EndedAt,
		&meeting.DurationSeconds,
		&meeting.CancelReason,
		&meeting.CreatedAt,
		&meeting.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

func insertMeeting(ctx context.Context, db execer, meeting *models.Meeting) error {
	const query = `
	INSERT INTO meetings (
		id,
		request_id,
		learner_id,
		counsellor_id,
		scheduled_at,
		status,
		created_at,
		updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := db.ExecContext(
		ctx,
		query,
		meeting.ID,
		meeting.RequestID,
		meeting.LearnerID,
		meeting.CounsellorID,
		meeting.ScheduledAt,
		meeting.Status,
		meeting.CreatedAt,
		meeting.UpdatedAt,
	)
	return err
}

// Get meeting by ID
func (r *MeetingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Meeting, error) {
	query := `SELECT` + meetingColumns + `FROM meetings WHERE id = $1`
	return scanMeeting(r.db.QueryRowContext(ctx, query, id))
}

// Get meeting created for a request
func (r *MeetingRepository) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Meeting, error) {
	query := `SELECT` + meetingColumns + `FROM meetings WHERE request_id = $1 LIMIT 1`
	return scanMeeting(r.db.QueryRowContext(ctx, query, requestID))
}

// Update locks the meeting row, applies fn and writes back every mutable column.
func (r *MeetingRepository) Update(ctx context.Context, id uuid.UUID, fn MeetingMutation) (*models.Meeting, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `SELECT` + meetingColumns + `FROM meetings WHERE id = $1 FOR UPDATE`
	meeting, err := scanMeeting(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err = fn(meeting); err != nil {
		return nil, err
	}

	const update = `
	UPDATE meetings
	SET
		status = $1,
		learner_joined = $2,
		counsellor_joined = $3,
		learner_joined_at = $4,
		counsellor_joined_at = $5,
		started_at = $6,
		ended_at = $7,
		duration_seconds = $8,
		cancel_reason = $9,
		updated_at = $10
	WHERE id = $11
	`
	_, err = tx.ExecContext(
		ctx,
		update,
		meeting.Status,
		meeting.LearnerJoined,
		meeting.CounsellorJoined,
		meeting.LearnerJoinedAt,
		meeting.CounsellorJoinedAt,
		meeting.StartedAt,
		meeting.EndedAt,
		meeting.DurationSeconds,
		meeting.CancelReason,
		meeting.UpdatedAt,
		meeting.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update meeting: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return meeting, nil
}

// ListOpen returns pending and waiting meetings for the expiry sweeper.
func (r *MeetingRepository) ListOpen(ctx context.Context) ([]*models.Meeting, error) {
	query := `SELECT` + meetingColumns + `FROM meetings WHERE status IN ('pending', 'waiting')`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*models.Meeting, 0)
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, meeting)
	}
	return result, rows.Err()
}
