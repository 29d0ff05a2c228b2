// Package client talks to the consultation backend over REST on behalf of one device.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/responses"
)

// Client is the backend API client. Every call is a single attempt.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

func New(baseURL, accessToken string, timeout time.Duration, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "consultctl/1.0")
	if accessToken != "" {
		httpClient.SetAuthToken(accessToken)
	}

	return &Client{
		http: httpClient,
		log:  log.With().Str("component", "api-client").Logger(),
	}
}

func (c *Client) CreateRequest(ctx context.Context, in dtos.CreateRequestRequest) (*dtos.RequestResponse, error) {
	var result dtos.RequestResponse
	if err := c.do(ctx, http.MethodPost, "/requests", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetRequest(ctx context.Context, requestID uuid.UUID) (*dtos.RequestResponse, error) {
	var result dtos.RequestResponse
	if err := c.do(ctx, http.MethodGet, "/requests/"+requestID.String(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListRequests returns the caller's requests, optionally filtered by status.
func (c *Client) ListRequests(ctx context.Context, status string) ([]dtos.RequestResponse, error) {
	path := "/requests"
	if status != "" {
		path += "?status=" + status
	}
	var result dtos.ListRequestsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Requests, nil
}

// AcceptRequest accepts a pending request and returns the new meeting's id.
func (c *Client) AcceptRequest(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error) {
	var result dtos.AcceptRequestResponse
	if err := c.do(ctx, http.MethodPost, "/requests/"+requestID.String()+"/accept", nil, &result); err != nil {
		return uuid.Nil, err
	}
	return result.MeetingID, nil
}

func (c *Client) RejectRequest(ctx context.Context, requestID uuid.UUID) error {
	var result dtos.RequestResponse
	return c.do(ctx, http.MethodPost, "/requests/"+requestID.String()+"/reject", nil, &result)
}

// Join asks the backend to record presence for role and returns the outcome.
func (c *Client) Join(ctx context.Context, meetingID uuid.UUID, role models.Role) (*models.JoinAttempt, error) {
	var result dtos.JoinMeetingResponse
	body := dtos.JoinMeetingRequest{Role: string(role)}
	if err := c.do(ctx, http.MethodPost, "/meetings/"+meetingID.String()+"/join", body, &result); err != nil {
		return nil, err
	}
	return result.ToModel(), nil
}

// MeetingStatus is the poll target of the rendezvous.
func (c *Client) MeetingStatus(ctx context.Context, meetingID uuid.UUID) (models.MeetingState, error) {
	var result dtos.MeetingStatusResponse
	if err := c.do(ctx, http.MethodGet, "/meetings/"+meetingID.String()+"/status", nil, &result); err != nil {
		return models.MeetingState{}, err
	}
	return result.ToModel(), nil
}

func (c *Client) GetMeeting(ctx context.Context, meetingID uuid.UUID) (*dtos.MeetingResponse, error) {
	var result dtos.MeetingResponse
	if err := c.do(ctx, http.MethodGet, "/meetings/"+meetingID.String(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) EndMeeting(ctx context.Context, meetingID uuid.UUID) (*dtos.EndMeetingResponse, error) {
	var result dtos.EndMeetingResponse
	if err := c.do(ctx, http.MethodPost, "/meetings/"+meetingID.String()+"/end", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AbandonMeeting cancels a meeting that has not started. An ongoing meeting
// answers ALREADY_STARTED and is left alone.
func (c *Client) AbandonMeeting(ctx context.Context, meetingID uuid.UUID) (*dtos.EndMeetingResponse, error) {
	var result dtos.EndMeetingResponse
	if err := c.do(ctx, http.MethodPost, "/meetings/"+meetingID.String()+"/abandon", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do executes one request. Transport failures become NETWORK errors, error
// envelopes are decoded back into *apperrors.Error, and caller cancellation
// is returned as the context error.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var errBody dtos.ErrorResponse
	req := c.http.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&errBody)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("backend unreachable")
		return apperrors.Network(err)
	}

	if resp.IsError() {
		if errBody.Error.Code != "" {
			return responses.FromResponse(errBody.Error)
		}
		return statusError(resp.StatusCode())
	}
	return nil
}

func statusError(status int) error {
	reason := fmt.Sprintf("unexpected status %d", status)
	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(reason)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.Forbidden(reason)
	case status == http.StatusConflict:
		return apperrors.New(apperrors.KindConflict, apperrors.CodeAlreadyTerminal, reason)
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		return apperrors.Network(fmt.Errorf("%s", reason))
	case status >= 400 && status < 500:
		return apperrors.Validation(reason)
	default:
		return apperrors.Internal(fmt.Errorf("%s", reason))
	}
}
