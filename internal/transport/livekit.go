package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

// LiveKitIssuer grants room access on a LiveKit deployment.
type LiveKitIssuer struct {
	apiKey    string
	apiSecret string
	wsURL     string
	ttl       time.Duration
}

func NewLiveKitIssuer(apiKey, apiSecret, wsURL string, ttl time.Duration) *LiveKitIssuer {
	return &LiveKitIssuer{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		wsURL:     wsURL,
		ttl:       ttl,
	}
}

// Issue creates a room-join token for the party playing role in meeting.
func (g *LiveKitIssuer) Issue(ctx context.Context, meeting *models.Meeting, role models.Role) (*models.TransportCredential, error) {
	room := ChannelID(meeting.ID)
	identity := fmt.Sprintf("%s:%s", role, participantID(meeting, role))

	at := auth.NewAccessToken(g.apiKey, g.apiSecret)

	canPublish := true
	canSubscribe := true
	canPublishData := true

	grant := &auth.VideoGrant{
		RoomJoin:       true,
		Room:           room,
		CanPublish:     &canPublish,
		CanSubscribe:   &canSubscribe,
		CanPublishData: &canPublishData,
	}

	at.AddGrant(grant).
		SetIdentity(identity).
		SetName(string(role)).
		SetValidFor(g.ttl)

	token, err := at.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("sign livekit token: %w", err)
	}

	return &models.TransportCredential{
		Provider:  ProviderLiveKit,
		Token:     token,
		ChannelID: room,
		URL:       g.wsURL,
		ExpiresAt: time.Now().Add(g.ttl),
	}, nil
}
