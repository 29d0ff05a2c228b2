package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

const pendingBufferSize = 100

// Client represents one party's signaling connection
type Client struct {
	ID              uuid.UUID
	MeetingID       uuid.UUID
	Role            models.Role
	UserID          uuid.UUID
	Conn            *websocket.Conn
	Send            chan interface{}
	Done            chan struct{}
	ConnectionState *ConnectionState
	closeOnce       sync.Once
}

// Hub tracks the relay sessions of all meetings with at least one connected party
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session // key: meeting_id
	log      zerolog.Logger
}

// Session pairs the two connections of one meeting. It only relays; the
// meeting record is owned by the REST API.
type Session struct {
	MeetingID  uuid.UUID
	Learner    *Client
	Counsellor *Client
	StartTime  time.Time
	pending    map[models.Role]*MessageBuffer
	mu         sync.RWMutex
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]*Session),
		log:      log.With().Str("component", "signaling-hub").Logger(),
	}
}

func NewClient(meetingID, userID uuid.UUID, role models.Role, conn *websocket.Conn) *Client {
	return &Client{
		ID:              uuid.New(),
		MeetingID:       meetingID,
		Role:            role,
		UserID:          userID,
		Conn:            conn,
		Send:            make(chan interface{}, 256),
		Done:            make(chan struct{}),
		ConnectionState: NewConnectionState(),
	}
}

func newSession(meetingID uuid.UUID) *Session {
	return &Session{
		MeetingID: meetingID,
		StartTime: time.Now(),
		pending: map[models.Role]*MessageBuffer{
			models.RoleLearner:    NewMessageBuffer(pendingBufferSize),
			models.RoleCounsellor: NewMessageBuffer(pendingBufferSize),
		},
	}
}

// AddClient attaches client to its meeting's session.
// If a connection already exists for this (meeting, role), the old one is closed first.
func (h *Hub) AddClient(client *Client) *Session {
	h.mu.Lock()
	session, exists := h.sessions[client.MeetingID]
	if !exists {
		session = newSession(client.MeetingID)
		h.sessions[client.MeetingID] = session
	}
	h.mu.Unlock()

	session.mu.Lock()
	var previous *Client
	if client.Role == models.RoleLearner {
		previous, session.Learner = session.Learner, client
	} else {
		previous, session.Counsellor = session.Counsellor, client
	}
	session.mu.Unlock()

	if previous != nil && previous.ID != client.ID {
		h.log.Info().
			Str("meeting_id", client.MeetingID.String()).
			Str("role", string(client.Role)).
			Msg("closing duplicate connection")
		previous.Close()
	}

	for _, msg := range session.pending[client.Role].Flush() {
		client.Deliver(msg)
	}
	return session
}

// GetSession gets a session by meeting ID
func (h *Hub) GetSession(meetingID uuid.UUID) *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.sessions[meetingID]
}

// RemoveClient detaches client. A client that was already replaced by a newer
// connection leaves the session untouched. Reports whether it was removed.
func (h *Hub) RemoveClient(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, exists := h.sessions[client.MeetingID]
	if !exists {
		return false
	}

	session.mu.Lock()
	removed := false
	switch {
	case client.Role == models.RoleLearner && session.Learner == client:
		session.Learner = nil
		removed = true
	case client.Role == models.RoleCounsellor && session.Counsellor == client:
		session.Counsellor = nil
		removed = true
	}
	empty := session.Learner == nil && session.Counsellor == nil
	session.mu.Unlock()

	if empty {
		delete(h.sessions, client.MeetingID)
	}
	return removed
}

// SessionCount returns the number of meetings with a live connection.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// BothJoined checks if both parties are connected
func (s *Session) BothJoined() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Learner != nil && s.Counsellor != nil
}

func (s *Session) client(role models.Role) *Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if role == models.RoleLearner {
		return s.Learner
	}
	return s.Counsellor
}

// GetOtherClient gets the other party
func (s *Session) GetOtherClient(role models.Role) *Client {
	return s.client(role.Peer())
}

// SendToRole delivers message to role without blocking.
func (s *Session) SendToRole(role models.Role, message interface{}) bool {
	client := s.client(role)
	if client == nil {
		return false
	}
	return client.Deliver(message)
}

// Relay forwards a signaling frame to the peer of from. Frames for a peer that
// has not connected yet are held until it does.
func (s *Session) Relay(from models.Role, msg dtos.SignalMessage) error {
	peer := from.Peer()
	if s.SendToRole(peer, msg) {
		return nil
	}
	return s.pending[peer].Add(msg)
}

// Broadcast sends a message to both parties
func (s *Session) Broadcast(message interface{}) {
	s.SendToRole(models.RoleLearner, message)
	s.SendToRole(models.RoleCounsellor, message)
}

// Deliver queues message for the write pump. It never blocks.
func (c *Client) Deliver(message interface{}) bool {
	if !c.IsConnected() {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

// Close closes the client connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.Done)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

// IsConnected checks if client is still connected
func (c *Client) IsConnected() bool {
	select {
	case <-c.Done:
		return false
	default:
		return true
	}
}
