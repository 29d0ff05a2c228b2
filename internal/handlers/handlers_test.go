package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
	"github.com/preetsinghmakkar/OpenConsult/internal/middlewares"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/services"
)

type MockMeetingService struct {
	JoinFunc   func(ctx context.Context, caller services.Caller, meetingID uuid.UUID, requested models.Role) (*models.JoinAttempt, error)
	StatusFunc func(ctx context.Context, caller services.Caller, meetingID uuid.UUID) (models.MeetingState, error)
	GetFunc    func(ctx context.Context, caller services.Caller, meetingID uuid.UUID) (*models.Meeting, error)
	EndFunc    func(ctx context.Context, caller services.Caller, meetingID uuid.UUID) (*models.Meeting, error)

	AbandonFunc func(ctx context.Context, caller services.Caller, meetingID uuid.UUID) (*models.Meeting, error)
}

func (m *MockMeetingService) Join(ctx context.Context, caller services.Caller, meetingID uuid.UUID, requested models.Role) (*models.JoinAttempt, error) {
	return m.JoinFunc(ctx, caller, meetingID, requested)
}

func (m *MockMeetingService) Status(ctx context.Context, caller services.Caller, meetingID uuid.UUID) (models.MeetingState, error) {
	return m.StatusFunc(ctx, caller, meetingID)
}

func (m *MockMeetingService) Get(ctx context.Context, caller services.Caller, meetingID uuid.UUID) (*models.Meeting, error) {
	return m.GetFunc(ctx, caller, meetingID)
}

func (m *MockMeetingService) End(ctx context.Context, caller services.Caller, meetingID uuid.UUID) (*models.Meeting, error) {
	return m.EndFunc(ctx, caller, meetingID)
}

func (m *MockMeetingService) Abandon(ctx context.Context, caller services.Caller, meetingID uuid.UUID) (*models.Meeting, error) {
	return m.AbandonFunc(ctx, caller, meetingID)
}

type MockRequestService struct {
	CreateFunc func(ctx context.Context, caller services.Caller, in services.CreateRequestInput) (*models.ConsultationRequest, error)
	GetFunc    func(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.ConsultationRequest, error)
	ListFunc   func(ctx context.Context, caller services.Caller, status models.RequestStatus) ([]*models.ConsultationRequest, error)
	AcceptFunc func(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.ConsultationRequest, *models.Meeting, error)
	RejectFunc func(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.ConsultationRequest, error)
}

func (m *MockRequestService) Create(ctx context.Context, caller services.Caller, in services.CreateRequestInput) (*models.ConsultationRequest, error) {
	return m.CreateFunc(ctx, caller, in)
}

func (m *MockRequestService) Get(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.ConsultationRequest, error) {
	return m.GetFunc(ctx, caller, id)
}

func (m *MockRequestService) List(ctx context.Context, caller services.Caller, status models.RequestStatus) ([]*models.ConsultationRequest, error) {
	return m.ListFunc(ctx, caller, status)
}

func (m *MockRequestService) Accept(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.ConsultationRequest, *models.Meeting, error) {
	return m.AcceptFunc(ctx, caller, id)
}

func (m *MockRequestService) Reject(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.ConsultationRequest, error) {
	return m.RejectFunc(ctx, caller, id)
}

var testCaller = services.Caller{UserID: uuid.New(), Role: models.RoleLearner}

func setupRouter(requests RequestService, meetings MeetingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middlewares.UserIDKey, testCaller.UserID)
		c.Set(middlewares.RoleKey, testCaller.Role)
		c.Next()
	})

	rh := NewRequestHandler(requests, zerolog.Nop())
	mh := NewMeetingHandler(meetings, zerolog.Nop())
	router.POST("/requests", rh.Create)
	router.GET("/requests", rh.List)
	router.POST("/meetings/:id/join", mh.Join)
	router.GET("/meetings/:id/status", mh.Status)
	router.POST("/meetings/:id/end", mh.End)
	router.POST("/meetings/:id/abandon", mh.Abandon)
	return router
}

func TestJoinHandlerTooEarly(t *testing.T) {
	meetingID := uuid.New()
	svc := &MockMeetingService{
		JoinFunc: func(ctx context.Context, caller services.Caller, id uuid.UUID, requested models.Role) (*models.JoinAttempt, error) {
			assert.Equal(t, testCaller, caller)
			assert.Equal(t, meetingID, id)
			assert.Equal(t, models.RoleLearner, requested)
			return nil, apperrors.TooEarly(9)
		},
	}
	router := setupRouter(&MockRequestService{}, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/meetings/"+meetingID.String()+"/join", strings.NewReader(`{"role":"learner"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body dtos.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "TIMING", body.Error.Kind)
	assert.Equal(t, "TOO_EARLY", body.Error.Code)
	assert.Equal(t, 9, body.Error.MinutesRemaining)
}

func TestJoinHandlerSuccess(t *testing.T) {
	waiting := models.RoleCounsellor
	svc := &MockMeetingService{
		JoinFunc: func(ctx context.Context, caller services.Caller, id uuid.UUID, requested models.Role) (*models.JoinAttempt, error) {
			assert.Empty(t, requested)
			return &models.JoinAttempt{
				Allowed:       true,
				MeetingID:     id,
				MeetingStatus: models.MeetingStatusWaiting,
				WaitingFor:    &waiting,
				Credential:    &models.TransportCredential{Provider: "signaling", Token: "tok", ChannelID: "meeting-x"},
			}, nil
		},
	}
	router := setupRouter(&MockRequestService{}, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/meetings/"+uuid.NewString()+"/join", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body dtos.JoinMeetingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Allowed)
	assert.Equal(t, "counsellor", body.WaitingFor)
	assert.Equal(t, "tok", body.TransportCredential.Token)
}

func TestMalformedMeetingIDIsNotFound(t *testing.T) {
	router := setupRouter(&MockRequestService{}, &MockMeetingService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/meetings/not-a-uuid/status", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRequestBindingValidation(t *testing.T) {
	called := false
	svc := &MockRequestService{
		CreateFunc: func(ctx context.Context, caller services.Caller, in services.CreateRequestInput) (*models.ConsultationRequest, error) {
			called = true
			return nil, nil
		},
	}
	router := setupRouter(svc, &MockMeetingService{})

	bodies := []string{
		`{"counsellor_id":"` + uuid.NewString() + `","kind":"instant"}`,
		`{"counsellor_id":"` + uuid.NewString() + `","kind":"scheduled","message":"hi"}`,
		`{"counsellor_id":"nope","kind":"instant","message":"hi"}`,
		`{"counsellor_id":"` + uuid.NewString() + `","kind":"later","message":"hi"}`,
	}
	for _, body := range bodies {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.False(t, called)
}

func TestEndHandlerReturnsDuration(t *testing.T) {
	svc := &MockMeetingService{
		EndFunc: func(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.Meeting, error) {
			return &models.Meeting{ID: id, Status: models.MeetingStatusCompleted, DurationSeconds: 1500}, nil
		},
	}
	router := setupRouter(&MockRequestService{}, svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/meetings/"+uuid.NewString()+"/end", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body dtos.EndMeetingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1500, body.DurationSeconds)
	assert.Equal(t, "completed", body.Status)
}

func TestAbandonHandlerConflictOnStartedMeeting(t *testing.T) {
	svc := &MockMeetingService{
		AbandonFunc: func(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.Meeting, error) {
			return nil, apperrors.AlreadyStarted()
		},
	}
	router := setupRouter(&MockRequestService{}, svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/meetings/"+uuid.NewString()+"/abandon", nil))

	require.Equal(t, http.StatusConflict, w.Code)
	var body dtos.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(apperrors.CodeAlreadyStarted), body.Error.Code)
}
