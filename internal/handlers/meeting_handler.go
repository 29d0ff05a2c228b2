package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/responses"
	"github.com/preetsinghmakkar/OpenConsult/internal/services"
)

type MeetingService interface {
	Join(ctx context.Context, caller services.Caller, meetingID uuid.UUID, requested models.Role) (*models.JoinAttempt, error)
	Status(ctx context.Context, caller services.Caller, meetingID uuid.UUID) (models.MeetingState, error)
	Get(ctx context.Context, caller services.Caller, meetingID uuid.UUID) (*models.Meeting, error)
	End(ctx context.Context, caller services.Caller, meetingID uuid.UUID) (*models.Meeting, error)
	Abandon(ctx context.Context, caller services.Caller, meetingID uuid.UUID) (*models.Meeting, error)
}

type MeetingHandler struct {
	service MeetingService
	log     zerolog.Logger
}

func NewMeetingHandler(service MeetingService, log zerolog.Logger) *MeetingHandler {
	return &MeetingHandler{service: service, log: log}
}

// Join handles POST /meetings/:id/join
func (h *MeetingHandler) Join(c *gin.Context) {
	caller, ok := callerFrom(c, h.log)
	if !ok {
		return
	}
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}

	var req dtos.JoinMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		responses.WriteError(c, apperrors.Wrap(apperrors.KindValidation, apperrors.CodeInvalidRequest, "invalid request body", err), h.log)
		return
	}

	attempt, err := h.service.Join(c.Request.Context(), caller, id, models.Role(req.Role))
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, dtos.NewJoinMeetingResponse(attempt))
}

// Status handles GET /meetings/:id/status
func (h *MeetingHandler) Status(c *gin.Context) {
	caller, ok := callerFrom(c, h.log)
	if !ok {
		return
	}
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}

	state, err := h.service.Status(c.Request.Context(), caller, id)
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, dtos.NewMeetingStatusResponse(state))
}

// Get handles GET /meetings/:id
func (h *MeetingHandler) Get(c *gin.Context) {
	caller, ok := callerFrom(c, h.log)
	if !ok {
		return
	}
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}

	meeting, err := h.service.Get(c.Request.Context(), caller, id)
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, dtos.NewMeetingResponse(meeting))
}

// End handles POST /meetings/:id/end
func (h *MeetingHandler) End(c *gin.Context) {
	caller, ok := callerFrom(c, h.log)
	if !ok {
		return
	}
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}

	meeting, err := h.service.End(c.Request.Context(), caller, id)
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, dtos.EndMeetingResponse{
		MeetingID:       meeting.ID,
		Status:          string(meeting.Status),
		DurationSeconds: meeting.DurationSeconds,
	})
}

// Abandon handles POST /meetings/:id/abandon
func (h *MeetingHandler) Abandon(c *gin.Context) {
	caller, ok := callerFrom(c, h.log)
	if !ok {
		return
	}
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}

	meeting, err := h.service.Abandon(c.Request.Context(), caller, id)
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, dtos.EndMeetingResponse{
		MeetingID:       meeting.ID,
		Status:          string(meeting.Status),
		DurationSeconds: meeting.DurationSeconds,
	})
}
