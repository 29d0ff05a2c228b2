package services

import (
	"errors"

	"github.com/google/uuid"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/repositories"
)

// Caller is the authenticated identity behind a service call.
type Caller struct {
	UserID uuid.UUID
	Role   models.Role
}

// translate maps store and model errors onto the application taxonomy.
func translate(err error, subject string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperrors.NotFound(subject + " not found")
	case errors.Is(err, models.ErrRequestDecided):
		return apperrors.AlreadyDecided()
	case errors.Is(err, models.ErrMeetingTerminal), errors.Is(err, models.ErrInvalidTransition):
		return apperrors.Wrap(apperrors.KindConflict, apperrors.CodeAlreadyTerminal, "meeting already ended", err)
	case errors.Is(err, models.ErrInvalidRole):
		return apperrors.Validation("invalid role")
	default:
		return apperrors.Internal(err)
	}
}

func terminalError(status models.MeetingStatus) error {
	return apperrors.AlreadyTerminal("already " + string(status))
}
