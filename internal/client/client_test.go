package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1", "token-123", 2*time.Second, zerolog.Nop())
}

func TestJoinSendsRoleAndBearer(t *testing.T) {
	meetingID := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/meetings/"+meetingID.String()+"/join", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		var body dtos.JoinMeetingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "learner", body.Role)

		writeJSON(w, http.StatusOK, dtos.JoinMeetingResponse{
			Allowed:       true,
			MeetingID:     meetingID,
			MeetingStatus: "waiting",
			WaitingFor:    "counsellor",
			TransportCredential: &dtos.CredentialResponse{
				Provider:  "signaling",
				Token:     "tok",
				ChannelID: "meeting-" + meetingID.String(),
			},
		})
	})

	attempt, err := c.Join(context.Background(), meetingID, models.RoleLearner)
	require.NoError(t, err)
	assert.True(t, attempt.Allowed)
	assert.Equal(t, models.MeetingStatusWaiting, attempt.MeetingStatus)
	require.NotNil(t, attempt.WaitingFor)
	assert.Equal(t, models.RoleCounsellor, *attempt.WaitingFor)
	require.NotNil(t, attempt.Credential)
	assert.Equal(t, "tok", attempt.Credential.Token)
}

func TestErrorEnvelopeIsDecoded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, dtos.ErrorResponse{
			Error: dtos.ErrorDetail{
				Kind:             "TIMING",
				Code:             "TOO_EARLY",
				Message:          "too early",
				MinutesRemaining: 10,
			},
		})
	})

	_, err := c.Join(context.Background(), uuid.New(), models.RoleLearner)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindTiming, appErr.Kind)
	assert.Equal(t, apperrors.CodeTooEarly, appErr.Code)
	assert.Equal(t, 10, appErr.MinutesRemaining)
}

func TestEmptyErrorBodyFallsBackToStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.MeetingStatus(context.Background(), uuid.New())
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestUnreachableBackendIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, "", time.Second, zerolog.Nop())
	_, err := c.MeetingStatus(context.Background(), uuid.New())
	assert.Equal(t, apperrors.KindNetwork, apperrors.KindOf(err))
}

func TestCancelledContextIsNotNetwork(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dtos.MeetingStatusResponse{Status: "waiting"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.MeetingStatus(ctx, uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListAndAccept(t *testing.T) {
	requestID := uuid.New()
	meetingID := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/requests":
			assert.Equal(t, "pending", r.URL.Query().Get("status"))
			writeJSON(w, http.StatusOK, dtos.ListRequestsResponse{
				Requests: []dtos.RequestResponse{{ID: requestID, Status: "pending", Kind: "instant"}},
			})
		case "/api/v1/requests/" + requestID.String() + "/accept":
			writeJSON(w, http.StatusOK, dtos.AcceptRequestResponse{
				Request:   dtos.RequestResponse{ID: requestID, Status: "accepted"},
				MeetingID: meetingID,
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	pending, err := c.ListRequests(context.Background(), "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, requestID, pending[0].ID)

	got, err := c.AcceptRequest(context.Background(), requestID)
	require.NoError(t, err)
	assert.Equal(t, meetingID, got)
}

func TestEndMeetingReturnsDuration(t *testing.T) {
	meetingID := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dtos.EndMeetingResponse{MeetingID: meetingID, Status: "completed", DurationSeconds: 1500})
	})

	resp, err := c.EndMeeting(context.Background(), meetingID)
	require.NoError(t, err)
	assert.Equal(t, 1500, resp.DurationSeconds)
}

func TestAbandonMeetingDecodesAlreadyStarted(t *testing.T) {
	meetingID := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/meetings/"+meetingID.String()+"/abandon", r.URL.Path)
		writeJSON(w, http.StatusConflict, dtos.ErrorResponse{Error: dtos.ErrorDetail{
			Kind:    string(apperrors.KindConflict),
			Code:    string(apperrors.CodeAlreadyStarted),
			Message: "meeting already started",
		}})
	})

	_, err := c.AbandonMeeting(context.Background(), meetingID)
	assert.Equal(t, apperrors.CodeAlreadyStarted, apperrors.CodeOf(err))
}
