// Package mediatransport connects a device to the media channel of a live meeting.
// Presence reported here is for display only and never changes the meeting.
package mediatransport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/transport"
)

var ErrNotConnected = errors.New("media transport not connected")

type PresenceKind string

const (
	PresencePeerJoined   PresenceKind = "peer_joined"
	PresencePeerLeft     PresenceKind = "peer_left"
	PresenceSessionReady PresenceKind = "session_ready"
	PresenceDisconnected PresenceKind = "disconnected"
)

type PresenceEvent struct {
	Kind PresenceKind
	Role models.Role
	At   time.Time
}

// Handoff is everything the media layer needs once the rendezvous is READY.
type Handoff struct {
	Credential models.TransportCredential
	ChannelID  string
	Role       models.Role
}

type Transport interface {
	// Connect joins the channel. The returned channel is closed when the
	// connection ends.
	Connect(ctx context.Context, handoff Handoff) (<-chan PresenceEvent, error)
	Close() error
}

// Router picks the transport matching the credential's provider.
type Router struct {
	log     zerolog.Logger
	factory map[string]func() Transport

	mu     sync.Mutex
	active Transport
}

func NewRouter(log zerolog.Logger) *Router {
	r := &Router{log: log}
	r.factory = map[string]func() Transport{
		transport.ProviderSignaling: func() Transport { return NewSignalingTransport(r.log) },
		transport.ProviderLiveKit:   func() Transport { return NewLiveKitTransport(r.log) },
	}
	return r
}

func (r *Router) Connect(ctx context.Context, handoff Handoff) (<-chan PresenceEvent, error) {
	build, ok := r.factory[handoff.Credential.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported media provider %q", handoff.Credential.Provider)
	}

	next := build()
	events, err := next.Connect(ctx, handoff)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	previous := r.active
	r.active = next
	r.mu.Unlock()
	if previous != nil {
		_ = previous.Close()
	}
	return events, nil
}

func (r *Router) Close() error {
	r.mu.Lock()
	active := r.active
	r.active = nil
	r.mu.Unlock()
	if active == nil {
		return nil
	}
	return active.Close()
}
