package mediatransport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
)

// SignalingTransport connects to the server's websocket relay.
type SignalingTransport struct {
	dialer *websocket.Dialer
	log    zerolog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	closeOnce sync.Once
}

func NewSignalingTransport(log zerolog.Logger) *SignalingTransport {
	return &SignalingTransport{
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		log:    log.With().Str("component", "signaling-transport").Logger(),
	}
}

func (t *SignalingTransport) Connect(ctx context.Context, handoff Handoff) (<-chan PresenceEvent, error) {
	endpoint, err := signalingURL(handoff.Credential)
	if err != nil {
		return nil, err
	}

	conn, _, err := t.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial signaling relay: %w", err)
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	t.log.Info().
		Str("channel_id", handoff.ChannelID).
		Str("role", string(handoff.Role)).
		Msg("connected to signaling relay")

	events := make(chan PresenceEvent, 8)
	go t.readLoop(conn, events)
	return events, nil
}

func (t *SignalingTransport) readLoop(conn *websocket.Conn, events chan<- PresenceEvent) {
	defer close(events)
	for {
		var msg dtos.SignalMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.log.Debug().Err(err).Msg("signaling connection closed")
			}
			select {
			case events <- PresenceEvent{Kind: PresenceDisconnected, At: time.Now()}:
			default:
			}
			return
		}

		event, ok := presenceFrom(msg)
		if !ok {
			continue
		}
		select {
		case events <- event:
		default:
			t.log.Debug().Str("type", msg.Type).Msg("presence event dropped")
		}
	}
}

// Close leaves the call and closes the socket. Safe to call more than once.
func (t *SignalingTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	var err error
	t.closeOnce.Do(func() {
		deadline := time.Now().Add(writeWait)
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.WriteJSON(dtos.SignalMessage{Type: dtos.SignalLeave})
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = conn.Close()
	})
	return err
}

func presenceFrom(msg dtos.SignalMessage) (PresenceEvent, bool) {
	var kind PresenceKind
	switch msg.Type {
	case dtos.SignalPeerJoined:
		kind = PresencePeerJoined
	case dtos.SignalPeerLeft:
		kind = PresencePeerLeft
	case dtos.SignalSessionReady:
		kind = PresenceSessionReady
	default:
		return PresenceEvent{}, false
	}

	role := ""
	if kind == PresenceSessionReady {
		var payload dtos.SessionReadyPayload
		_ = json.Unmarshal(msg.Payload, &payload)
		role = payload.PeerRole
	} else {
		var payload dtos.PresencePayload
		_ = json.Unmarshal(msg.Payload, &payload)
		role = payload.Role
	}
	return PresenceEvent{Kind: kind, Role: models.Role(role), At: time.Now()}, true
}

func signalingURL(cred models.TransportCredential) (string, error) {
	if cred.URL == "" || cred.Token == "" {
		return "", fmt.Errorf("signaling credential is incomplete")
	}
	u, err := url.Parse(cred.URL)
	if err != nil {
		return "", fmt.Errorf("parse signaling url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	q := u.Query()
	q.Set("token", cred.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
