package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
	"github.com/preetsinghmakkar/OpenConsult/internal/metrics"
	"github.com/preetsinghmakkar/OpenConsult/internal/middlewares"
	"github.com/preetsinghmakkar/OpenConsult/internal/responses"
	ws "github.com/preetsinghmakkar/OpenConsult/internal/websocket"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the relay credential is the access check
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SignalingHandler relays WebRTC signaling between the two parties of a meeting.
// Presence on the relay is informational; it never changes the meeting record.
type SignalingHandler struct {
	hub *ws.Hub
	log zerolog.Logger
}

func NewSignalingHandler(hub *ws.Hub, log zerolog.Logger) *SignalingHandler {
	return &SignalingHandler{
		hub: hub,
		log: log.With().Str("component", "signaling").Logger(),
	}
}

// HandleWebSocket handles GET /ws/signal. MUST be behind SignalingAuthMiddleware.
func (h *SignalingHandler) HandleWebSocket(c *gin.Context) {
	auth, err := middlewares.GetSignalingAuth(c)
	if err != nil {
		responses.WriteError(c, apperrors.Internal(err), h.log)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(auth.MeetingID, auth.UserID, auth.Role, conn)
	session := h.hub.AddClient(client)
	metrics.SignalingConnections.Inc()

	h.log.Info().
		Str("meeting_id", auth.MeetingID.String()).
		Str("role", string(auth.Role)).
		Msg("relay connected")

	h.announcePresence(session, client)

	go h.writePump(client)
	go h.readPump(client, session)
}

// announcePresence tells the peer someone arrived and, once both are present,
// sends session_ready to each side exactly once.
func (h *SignalingHandler) announcePresence(session *ws.Session, client *ws.Client) {
	peer := session.GetOtherClient(client.Role)
	if peer == nil {
		return
	}

	peer.Deliver(signal(dtos.SignalPeerJoined, dtos.PresencePayload{
		MeetingID: client.MeetingID.String(),
		Role:      string(client.Role),
	}))
	client.Deliver(signal(dtos.SignalPeerJoined, dtos.PresencePayload{
		MeetingID: client.MeetingID.String(),
		Role:      string(peer.Role),
	}))

	for _, party := range []*ws.Client{client, peer} {
		if !party.ConnectionState.MarkSessionReadySent() {
			continue
		}
		party.Deliver(signal(dtos.SignalSessionReady, dtos.SessionReadyPayload{
			MeetingID: party.MeetingID.String(),
			Role:      string(party.Role),
			PeerRole:  string(party.Role.Peer()),
		}))
	}
}

func (h *SignalingHandler) readPump(client *ws.Client, session *ws.Session) {
	log := h.log.With().
		Str("meeting_id", client.MeetingID.String()).
		Str("role", string(client.Role)).
		Logger()

	defer func() {
		if h.hub.RemoveClient(client) {
			session.SendToRole(client.Role.Peer(), signal(dtos.SignalPeerLeft, dtos.PresencePayload{
				MeetingID: client.MeetingID.String(),
				Role:      string(client.Role),
			}))
		}
		client.Close()
		metrics.SignalingConnections.Dec()
		log.Info().Msg("relay disconnected")
	}()

	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg dtos.SignalMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("unexpected close")
			}
			return
		}

		switch msg.Type {
		case dtos.SignalOffer, dtos.SignalAnswer:
			var payload dtos.SDPPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.SDP == "" {
				log.Warn().Str("type", msg.Type).Msg("dropping frame with empty sdp")
				continue
			}
			h.relay(log, session, client, msg)

		case dtos.SignalICECandidate:
			var payload dtos.ICECandidatePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Candidate == "" {
				log.Warn().Msg("dropping empty ice candidate")
				continue
			}
			h.relay(log, session, client, msg)

		case dtos.SignalLeave:
			return

		case dtos.SignalPing:
			client.Deliver(dtos.SignalMessage{Type: dtos.SignalPong})

		default:
			log.Debug().Str("type", msg.Type).Msg("unknown message type")
		}
	}
}

func (h *SignalingHandler) relay(log zerolog.Logger, session *ws.Session, client *ws.Client, msg dtos.SignalMessage) {
	if err := session.Relay(client.Role, msg); err != nil {
		log.Warn().Err(err).Str("type", msg.Type).Msg("relay frame dropped")
		client.Deliver(signal(dtos.SignalError, gin.H{"message": "peer unavailable"}))
	}
}

func (h *SignalingHandler) writePump(client *ws.Client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case message := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteJSON(message); err != nil {
				h.log.Debug().Err(err).Msg("write failed")
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.Done:
			return
		}
	}
}

func signal(kind string, payload interface{}) dtos.SignalMessage {
	raw, _ := json.Marshal(payload)
	return dtos.SignalMessage{Type: kind, Payload: raw}
}
