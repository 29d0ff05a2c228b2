package orchestrator

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/rendezvous"
)

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// newValidator checks the same binding tags gin applies on the server.
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (o *Orchestrator) StartInstantRequest(ctx context.Context, counsellorID uuid.UUID, message string) (*dtos.RequestResponse, error) {
	return o.startRequest(ctx, counsellorID, dtos.CreateRequestRequest{
		Kind:    string(models.RequestKindInstant),
		Message: message,
	})
}

func (o *Orchestrator) StartScheduledRequest(ctx context.Context, counsellorID uuid.UUID, scheduledAt time.Time, message string) (*dtos.RequestResponse, error) {
	var at *time.Time
	if !scheduledAt.IsZero() {
		utc := scheduledAt.UTC()
		at = &utc
	}
	return o.startRequest(ctx, counsellorID, dtos.CreateRequestRequest{
		Kind:        string(models.RequestKindScheduled),
		ScheduledAt: at,
		Message:     message,
	})
}

func (o *Orchestrator) startRequest(ctx context.Context, counsellorID uuid.UUID, in dtos.CreateRequestRequest) (*dtos.RequestResponse, error) {
	if err := o.requireRole(models.RoleLearner, "only learners can request a consultation"); err != nil {
		return nil, o.fail(err)
	}
	if counsellorID == uuid.Nil {
		return nil, o.fail(apperrors.Validation("counsellor_id is required"))
	}
	in.CounsellorID = counsellorID.String()
	in.Message = strings.TrimSpace(in.Message)
	if err := o.preflight(in); err != nil {
		return nil, o.fail(err)
	}

	resp, err := o.backend.CreateRequest(ctx, in)
	if err != nil {
		return nil, o.fail(err)
	}

	o.log.Info().Str("request_id", resp.ID.String()).Str("kind", in.Kind).Msg("consultation requested")
	o.publish(Event{Type: EventRequestCreated, RequestID: resp.ID, Status: resp.Status, Message: "Request sent."})
	return resp, nil
}

func (o *Orchestrator) preflight(in dtos.CreateRequestRequest) error {
	if err := o.validate.Struct(in); err != nil {
		return apperrors.Validation(validationReason(err))
	}
	if in.ScheduledAt != nil && !in.ScheduledAt.After(o.now()) {
		return apperrors.Validation("scheduled_at must be in the future")
	}
	return nil
}

func validationReason(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request"
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required", "required_if":
		return fe.Field() + " is required"
	case "excluded_if":
		return fe.Field() + " is not allowed for instant requests"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "uuid":
		return fe.Field() + " must be a valid id"
	}
	return fe.Field() + " is invalid"
}

// CheckRequest fetches a request's status once.
func (o *Orchestrator) CheckRequest(ctx context.Context, requestID uuid.UUID) (*dtos.RequestResponse, error) {
	resp, err := o.backend.GetRequest(ctx, requestID)
	if err != nil {
		return nil, o.fail(err)
	}

	event := Event{
		Type:      EventRequestStatus,
		RequestID: resp.ID,
		Status:    resp.Status,
		Message:   requestStatusMessage(resp.Status),
	}
	if resp.MeetingID != nil {
		event.MeetingID = *resp.MeetingID
	}
	o.publish(event)
	return resp, nil
}

func (o *Orchestrator) PendingRequests(ctx context.Context) ([]dtos.RequestResponse, error) {
	if err := o.requireRole(models.RoleCounsellor, "only counsellors have pending requests"); err != nil {
		return nil, o.fail(err)
	}
	pending, err := o.backend.ListRequests(ctx, string(models.RequestStatusPending))
	if err != nil {
		return nil, o.fail(err)
	}
	return pending, nil
}

// RespondToRequest accepts or rejects a pending request. Accepting starts the
// counsellor's rendezvous for the new meeting right away.
func (o *Orchestrator) RespondToRequest(ctx context.Context, requestID uuid.UUID, decision Decision) (uuid.UUID, <-chan rendezvous.Update, error) {
	if err := o.requireRole(models.RoleCounsellor, "only counsellors can respond to requests"); err != nil {
		return uuid.Nil, nil, o.fail(err)
	}

	switch decision {
	case DecisionReject:
		if err := o.backend.RejectRequest(ctx, requestID); err != nil {
			return uuid.Nil, nil, o.fail(err)
		}
		o.log.Info().Str("request_id", requestID.String()).Msg("request rejected")
		o.publish(Event{Type: EventRequestDecided, RequestID: requestID, Status: string(models.RequestStatusRejected), Message: "Request declined."})
		return uuid.Nil, nil, nil

	case DecisionAccept:
		meetingID, err := o.backend.AcceptRequest(ctx, requestID)
		if err != nil {
			return uuid.Nil, nil, o.fail(err)
		}
		o.log.Info().Str("request_id", requestID.String()).Str("meeting_id", meetingID.String()).Msg("request accepted")
		o.publish(Event{
			Type:      EventRequestDecided,
			RequestID: requestID,
			MeetingID: meetingID,
			Status:    string(models.RequestStatusAccepted),
			Message:   "Request accepted.",
		})

		updates, err := o.BeginRendezvous(ctx, meetingID)
		if err != nil {
			return meetingID, nil, err
		}
		return meetingID, updates, nil
	}

	return uuid.Nil, nil, o.fail(apperrors.Validation("decision must be accept or reject"))
}
