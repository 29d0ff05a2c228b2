package mediatransport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/livekit/protocol/auth"
	"github.com/rs/zerolog"
)

// LiveKitTransport hands the credential to an external LiveKit media client.
// It only checks the token and reports the session as ready.
type LiveKitTransport struct {
	log zerolog.Logger

	mu     sync.Mutex
	events chan PresenceEvent
}

func NewLiveKitTransport(log zerolog.Logger) *LiveKitTransport {
	return &LiveKitTransport{log: log.With().Str("component", "livekit-transport").Logger()}
}

func (t *LiveKitTransport) Connect(ctx context.Context, handoff Handoff) (<-chan PresenceEvent, error) {
	verifier, err := auth.ParseAPIToken(handoff.Credential.Token)
	if err != nil {
		return nil, fmt.Errorf("parse livekit token: %w", err)
	}

	t.log.Info().
		Str("url", handoff.Credential.URL).
		Str("room", handoff.ChannelID).
		Str("identity", verifier.Identity()).
		Str("api_key", verifier.APIKey()).
		Msg("livekit session handed off")

	events := make(chan PresenceEvent, 1)
	events <- PresenceEvent{Kind: PresenceSessionReady, Role: handoff.Role, At: time.Now()}

	t.mu.Lock()
	t.events = events
	t.mu.Unlock()
	return events, nil
}

func (t *LiveKitTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.events == nil {
		return ErrNotConnected
	}
	close(t.events)
	t.events = nil
	return nil
}
