package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

// RequestRepository is the postgres RequestStore.
type RequestRepository struct {
	db *sql.DB
}

func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `
	id,
	learner_id,
	counsellor_id,
	kind,
	scheduled_at,
	message,
	status,
	meeting_id,
	decided_at,
	created_at,
	updated_at
`

func scanRequest(row rowScanner) (*models.ConsultationRequest, error) {
	var req models.ConsultationRequest
	err := row.Scan(
		&req.ID,
		&req.LearnerID,
		&req.CounsellorID,
		&req.Kind,
		&req.ScheduledAt,
		&req.Message,
		&req.Status,
		&req.MeetingID,
		&req.DecidedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create a new consultation request
func (r *RequestRepository) Create(ctx context.Context, req *models.ConsultationRequest) error {
	const query = `
	INSERT INTO consultation_requests (
		id,
		learner_id,
		counsellor_id,
		kind,
		scheduled_at,
		message,
		status,
		created_at,
		updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		req.ID,
		req.LearnerID,
		req.CounsellorID,
		req.Kind,
		req.ScheduledAt,
		req.Message,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

// Get request by ID
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ConsultationRequest, error) {
	query := `SELECT` + requestColumns + `FROM consultation_requests WHERE id = $1`
	return scanRequest(r.db.QueryRowContext(ctx, query, id))
}

func (r *RequestRepository) ListForCounsellor(ctx context.Context, counsellorID uuid.UUID, status models.RequestStatus) ([]*models.ConsultationRequest, error) {
	query := `SELECT` + requestColumns + `
	FROM consultation_requests
	WHERE counsellor_id = $1 AND ($2 = '' OR status = $2)
	ORDER BY created_at DESC
	`
	return r.list(ctx, query, counsellorID, string(status))
}

func (r *RequestRepository) ListForLearner(ctx context.Context, learnerID uuid.UUID) ([]*models.ConsultationRequest, error) {
	query := `SELECT` + requestColumns + `
	FROM consultation_requests
	WHERE learner_id = $1
	ORDER BY created_at DESC
	`
	return r.list(ctx, query, learnerID)
}

func (r *RequestRepository) list(ctx context.Context, query string, args ...any) ([]*models.ConsultationRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*models.ConsultationRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

// Decide locks the request row, applies fn and persists the decision and any meeting in one transaction.
func (r *RequestRepository) Decide(ctx context.Context, id uuid.UUID, fn DecideFunc) (*models.ConsultationRequest, *models.Meeting, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `SELECT` + requestColumns + `FROM consultation_requests WHERE id = $1 FOR UPDATE`
	req, err := scanRequest(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, nil, err
	}

	meeting, err := fn(req)
	if err != nil {
		return nil, nil, err
	}

	if meeting != nil {
		if err = insertMeeting(ctx, tx, meeting); err != nil {
			if isUniqueViolation(err) {
				err = ErrAlreadyExists
			}
			return nil, nil, err
		}
	}

	const update = `
	UPDATE consultation_requests
	SET status = $1, meeting_id = $2, decided_at = $3, updated_at = $4
	WHERE id = $5
	`
	if _, err = tx.ExecContext(ctx, update, req.Status, req.MeetingID, req.DecidedAt, req.UpdatedAt, req.ID); err != nil {
		return nil, nil, fmt.Errorf("update request: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, err
	}
	return req, meeting, nil
}
