package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

// MemoryStore is a mutex-guarded store implementing RequestStore and MeetingStore.
// Records are copied on the way in and out so callers never share state with it.
type MemoryStore struct {
	mu        sync.RWMutex
	requests  map[uuid.UUID]models.ConsultationRequest
	meetings  map[uuid.UUID]models.Meeting
	byRequest map[uuid.UUID]uuid.UUID
	log       zerolog.Logger
}

func NewMemoryStore(log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		requests:  make(map[uuid.UUID]models.ConsultationRequest),
		meetings:  make(map[uuid.UUID]models.Meeting),
		byRequest: make(map[uuid.UUID]uuid.UUID),
		log:       log.With().Str("component", "memory-store").Logger(),
	}
}

// Requests exposes the store as a RequestStore.
func (s *MemoryStore) Requests() RequestStore {
	return memoryRequests{s}
}

// Meetings exposes the store as a MeetingStore.
func (s *MemoryStore) Meetings() MeetingStore {
	return memoryMeetings{s}
}

type memoryRequests struct{ s *MemoryStore }

func (r memoryRequests) Create(ctx context.Context, req *models.ConsultationRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.requests[req.ID]; exists {
		return ErrAlreadyExists
	}
	r.s.requests[req.ID] = *req
	return nil
}

func (r memoryRequests) GetByID(ctx context.Context, id uuid.UUID) (*models.ConsultationRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &req, nil
}

func (r memoryRequests) ListForCounsellor(ctx context.Context, counsellorID uuid.UUID, status models.RequestStatus) ([]*models.ConsultationRequest, error) {
	return r.list(func(req *models.ConsultationRequest) bool {
		return req.CounsellorID == counsellorID && (status == "" || req.Status == status)
	}), nil
}

func (r memoryRequests) ListForLearner(ctx context.Context, learnerID uuid.UUID) ([]*models.ConsultationRequest, error) {
	return r.list(func(req *models.ConsultationRequest) bool {
		return req.LearnerID == learnerID
	}), nil
}

func (r memoryRequests) list(match func(*models.ConsultationRequest) bool) []*models.ConsultationRequest {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*models.ConsultationRequest, 0)
	for _, req := range r.s.requests {
		req := req
		if match(&req) {
			result = append(result, &req)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (r memoryRequests) Decide(ctx context.Context, id uuid.UUID, fn DecideFunc) (*models.ConsultationRequest, *models.Meeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, nil, ErrNotFound
	}

	meeting, err := fn(&req)
	if err != nil {
		return nil, nil, err
	}
	if meeting != nil {
		if _, exists := r.s.byRequest[req.ID]; exists {
			return nil, nil, ErrAlreadyExists
		}
		r.s.meetings[meeting.ID] = *meeting
		r.s.byRequest[req.ID] = meeting.ID
	}
	r.s.requests[id] = req

	r.s.log.Debug().
		Str("request_id", id.String()).
		Str("status", string(req.Status)).
		Msg("request decided")

	return &req, copyMeeting(meeting), nil
}

type memoryMeetings struct{ s *MemoryStore }

func (m memoryMeetings) GetByID(ctx context.Context, id uuid.UUID) (*models.Meeting, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	meeting, ok := m.s.meetings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &meeting, nil
}

func (m memoryMeetings) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Meeting, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	id, ok := m.s.byRequest[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	meeting := m.s.meetings[id]
	return &meeting, nil
}

func (m memoryMeetings) Update(ctx context.Context, id uuid.UUID, fn MeetingMutation) (*models.Meeting, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	meeting, ok := m.s.meetings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(&meeting); err != nil {
		return nil, err
	}
	m.s.meetings[id] = meeting
	return copyMeeting(&meeting), nil
}

func (m memoryMeetings) ListOpen(ctx context.Context) ([]*models.Meeting, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	result := make([]*models.Meeting, 0)
	for _, meeting := range m.s.meetings {
		meeting := meeting
		if meeting.Status == models.MeetingStatusPending || meeting.Status == models.MeetingStatusWaiting {
			result = append(result, &meeting)
		}
	}
	return result, nil
}

func copyMeeting(meeting *models.Meeting) *models.Meeting {
	if meeting == nil {
		return nil
	}
	c := *meeting
	return &c
}
