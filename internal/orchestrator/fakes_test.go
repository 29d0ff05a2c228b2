package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
	"github.com/preetsinghmakkar/OpenConsult/internal/mediatransport"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

// FakeBackend keeps meetings in memory and applies the real model transitions.
type FakeBackend struct {
	mu       sync.Mutex
	meetings map[uuid.UUID]*models.Meeting
	requests map[uuid.UUID]*models.ConsultationRequest

	createCalls atomic.Int32
	joinCalls   atomic.Int32
	statusCalls atomic.Int32
	endCalls    atomic.Int32

	abandonCalls atomic.Int32
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		meetings: make(map[uuid.UUID]*models.Meeting),
		requests: make(map[uuid.UUID]*models.ConsultationRequest),
	}
}

func (f *FakeBackend) AddMeeting(scheduledAt *time.Time) *models.Meeting {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	m := &models.Meeting{
		ID:           uuid.New(),
		RequestID:    uuid.New(),
		LearnerID:    uuid.New(),
		CounsellorID: uuid.New(),
		ScheduledAt:  scheduledAt,
		Status:       models.MeetingStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.meetings[m.ID] = m
	return m
}

func (f *FakeBackend) AddRequest() *models.ConsultationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	req := &models.ConsultationRequest{
		ID:           uuid.New(),
		LearnerID:    uuid.New(),
		CounsellorID: uuid.New(),
		Kind:         models.RequestKindInstant,
		Message:      "help",
		Status:       models.RequestStatusPending,
		CreatedAt:    time.Now(),
	}
	f.requests[req.ID] = req
	return req
}

func (f *FakeBackend) Meeting(id uuid.UUID) models.Meeting {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.meetings[id]
}

func (f *FakeBackend) CreateRequest(ctx context.Context, in dtos.CreateRequestRequest) (*dtos.RequestResponse, error) {
	f.createCalls.Add(1)
	req := f.AddRequest()
	req.Kind = models.RequestKind(in.Kind)
	req.ScheduledAt = in.ScheduledAt
	req.Message = in.Message
	resp := dtos.NewRequestResponse(req)
	return &resp, nil
}

func (f *FakeBackend) GetRequest(ctx context.Context, requestID uuid.UUID) (*dtos.RequestResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[requestID]
	if !ok {
		return nil, apperrors.NotFound("request not found")
	}
	resp := dtos.NewRequestResponse(req)
	return &resp, nil
}

func (f *FakeBackend) ListRequests(ctx context.Context, status string) ([]dtos.RequestResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dtos.RequestResponse
	for _, req := range f.requests {
		if status == "" || string(req.Status) == status {
			out = append(out, dtos.NewRequestResponse(req))
		}
	}
	return out, nil
}

func (f *FakeBackend) AcceptRequest(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error) {
	m, err := f.decide(requestID, true)
	if err != nil {
		return uuid.Nil, err
	}
	return m.ID, nil
}

func (f *FakeBackend) RejectRequest(ctx context.Context, requestID uuid.UUID) error {
	_, err := f.decide(requestID, false)
	return err
}

func (f *FakeBackend) decide(requestID uuid.UUID, accept bool) (*models.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[requestID]
	if !ok {
		return nil, apperrors.NotFound("request not found")
	}
	if req.Status != models.RequestStatusPending {
		return nil, apperrors.AlreadyDecided()
	}
	now := time.Now()
	req.DecidedAt = &now
	if !accept {
		req.Status = models.RequestStatusRejected
		return nil, nil
	}
	req.Status = models.RequestStatusAccepted
	m := &models.Meeting{
		ID:           uuid.New(),
		RequestID:    req.ID,
		LearnerID:    req.LearnerID,
		CounsellorID: req.CounsellorID,
		ScheduledAt:  req.ScheduledAt,
		Status:       models.MeetingStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	req.MeetingID = &m.ID
	f.meetings[m.ID] = m
	return m, nil
}

func (f *FakeBackend) Join(ctx context.Context, meetingID uuid.UUID, role models.Role) (*models.JoinAttempt, error) {
	f.joinCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetings[meetingID]
	if !ok {
		return nil, apperrors.NotFound("meeting not found")
	}
	if _, err := m.MarkJoined(role, time.Now()); err != nil {
		if errors.Is(err, models.ErrMeetingTerminal) {
			return nil, apperrors.AlreadyTerminal("already " + string(m.Status))
		}
		return nil, apperrors.Internal(err)
	}
	return &models.JoinAttempt{
		Allowed:       true,
		MeetingID:     m.ID,
		MeetingStatus: m.Status,
		WaitingFor:    m.WaitingFor(),
		Credential: &models.TransportCredential{
			Provider:  "signaling",
			Token:     "token-" + string(role),
			ChannelID: "meeting-" + m.ID.String(),
		},
	}, nil
}

func (f *FakeBackend) MeetingStatus(ctx context.Context, meetingID uuid.UUID) (models.MeetingState, error) {
	f.statusCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetings[meetingID]
	if !ok {
		return models.MeetingState{}, apperrors.NotFound("meeting not found")
	}
	return m.State(), nil
}

func (f *FakeBackend) GetMeeting(ctx context.Context, meetingID uuid.UUID) (*dtos.MeetingResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetings[meetingID]
	if !ok {
		return nil, apperrors.NotFound("meeting not found")
	}
	resp := dtos.NewMeetingResponse(m)
	return &resp, nil
}

func (f *FakeBackend) EndMeeting(ctx context.Context, meetingID uuid.UUID) (*dtos.EndMeetingResponse, error) {
	f.endCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetings[meetingID]
	if !ok {
		return nil, apperrors.NotFound("meeting not found")
	}
	if err := m.End(time.Now()); err != nil {
		return nil, apperrors.AlreadyTerminal("already " + string(m.Status))
	}
	return &dtos.EndMeetingResponse{MeetingID: m.ID, Status: string(m.Status), DurationSeconds: m.DurationSeconds}, nil
}

func (f *FakeBackend) AbandonMeeting(ctx context.Context, meetingID uuid.UUID) (*dtos.EndMeetingResponse, error) {
	f.abandonCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetings[meetingID]
	if !ok {
		return nil, apperrors.NotFound("meeting not found")
	}
	switch {
	case m.Status.IsTerminal():
		return nil, apperrors.AlreadyTerminal("already " + string(m.Status))
	case m.Status == models.MeetingStatusOngoing:
		return nil, apperrors.AlreadyStarted()
	}
	if err := m.Cancel(models.CancelReasonEndedBeforeStart, time.Now()); err != nil {
		return nil, apperrors.Internal(err)
	}
	return &dtos.EndMeetingResponse{MeetingID: m.ID, Status: string(m.Status)}, nil
}

// FakeTransport records handoffs and lets tests push presence events.
type FakeTransport struct {
	ConnectErr error

	mu       sync.Mutex
	handoffs []mediatransport.Handoff
	events   chan mediatransport.PresenceEvent
	closes   int
}

func (t *FakeTransport) Connect(ctx context.Context, handoff mediatransport.Handoff) (<-chan mediatransport.PresenceEvent, error) {
	if t.ConnectErr != nil {
		return nil, t.ConnectErr
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handoffs = append(t.handoffs, handoff)
	t.events = make(chan mediatransport.PresenceEvent, 4)
	return t.events, nil
}

func (t *FakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.events == nil {
		return mediatransport.ErrNotConnected
	}
	close(t.events)
	t.events = nil
	t.closes++
	return nil
}

func (t *FakeTransport) Push(event mediatransport.PresenceEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events <- event
}

func (t *FakeTransport) Handoffs() []mediatransport.Handoff {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]mediatransport.Handoff(nil), t.handoffs...)
}
