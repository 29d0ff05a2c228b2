package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
	"github.com/preetsinghmakkar/OpenConsult/internal/middlewares"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/responses"
	"github.com/preetsinghmakkar/OpenConsult/internal/services"
)

type RequestService interface {
	Create(ctx context.Context, caller services.Caller, in services.CreateRequestInput) (*models.ConsultationRequest, error)
	Get(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.ConsultationRequest, error)
	List(ctx context.Context, caller services.Caller, status models.RequestStatus) ([]*models.ConsultationRequest, error)
	Accept(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.ConsultationRequest, *models.Meeting, error)
	Reject(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.ConsultationRequest, error)
}

type RequestHandler struct {
	service RequestService
	log     zerolog.Logger
}

func NewRequestHandler(service RequestService, log zerolog.Logger) *RequestHandler {
	return &RequestHandler{service: service, log: log}
}

// Create handles POST /requests
func (h *RequestHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c, h.log)
	if !ok {
		return
	}

	var req dtos.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.WriteError(c, apperrors.Wrap(apperrors.KindValidation, apperrors.CodeInvalidRequest, "invalid request body", err), h.log)
		return
	}
	counsellorID, err := uuid.Parse(req.CounsellorID)
	if err != nil {
		responses.WriteError(c, apperrors.Validation("invalid counsellor_id"), h.log)
		return
	}

	var scheduledAt *time.Time
	if req.ScheduledAt != nil {
		t := req.ScheduledAt.UTC()
		scheduledAt = &t
	}

	created, err := h.service.Create(c.Request.Context(), caller, services.CreateRequestInput{
		CounsellorID: counsellorID,
		Kind:         models.RequestKind(req.Kind),
		ScheduledAt:  scheduledAt,
		Message:      req.Message,
	})
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusCreated, dtos.NewRequestResponse(created))
}

// Get handles GET /requests/:id, the one-shot status fetch
func (h *RequestHandler) Get(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}

	req, err := h.service.Get(c.Request.Context(), caller, id)
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, dtos.NewRequestResponse(req))
}

// List handles GET /requests?status=pending
func (h *RequestHandler) List(c *gin.Context) {
	caller, ok := callerFrom(c, h.log)
	if !ok {
		return
	}

	var query dtos.ListRequestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.WriteError(c, apperrors.Wrap(apperrors.KindValidation, apperrors.CodeInvalidRequest, "invalid status filter", err), h.log)
		return
	}

	reqs, err := h.service.List(c.Request.Context(), caller, models.RequestStatus(query.Status))
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, dtos.NewListRequestsResponse(reqs))
}

// Accept handles POST /requests/:id/accept
func (h *RequestHandler) Accept(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}

	req, meeting, err := h.service.Accept(c.Request.Context(), caller, id)
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, dtos.AcceptRequestResponse{
		Request:   dtos.NewRequestResponse(req),
		MeetingID: meeting.ID,
	})
}

// Reject handles POST /requests/:id/reject
func (h *RequestHandler) Reject(c *gin.Context) {
	caller, id, ok := h.callerAndID(c)
	if !ok {
		return
	}

	req, err := h.service.Reject(c.Request.Context(), caller, id)
	if err != nil {
		responses.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, dtos.NewRequestResponse(req))
}

func (h *RequestHandler) callerAndID(c *gin.Context) (services.Caller, uuid.UUID, bool) {
	caller, ok := callerFrom(c, h.log)
	if !ok {
		return services.Caller{}, uuid.Nil, false
	}
	id, ok := pathID(c, h.log)
	return caller, id, ok
}

func callerFrom(c *gin.Context, log zerolog.Logger) (services.Caller, bool) {
	caller, ok := middlewares.GetCaller(c)
	if !ok {
		responses.WriteError(c, apperrors.Forbidden("authentication required"), log)
		return services.Caller{}, false
	}
	return caller, true
}

func pathID(c *gin.Context, log zerolog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// a malformed id can never match a record
		responses.WriteError(c, apperrors.NotFound("not found"), log)
		return uuid.Nil, false
	}
	return id, true
}
