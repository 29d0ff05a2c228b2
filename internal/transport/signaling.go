package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

// SignalingClaims scope a websocket connection to one side of one meeting.
type SignalingClaims struct {
	MeetingID uuid.UUID   `json:"meeting_id"`
	UserID    uuid.UUID   `json:"user_id"`
	Role      models.Role `json:"role"`
	jwt.RegisteredClaims
}

// SignalingIssuer signs credentials for the built-in websocket relay.
type SignalingIssuer struct {
	secret    []byte
	publicURL string
	ttl       time.Duration
	now       func() time.Time
}

func NewSignalingIssuer(secret, publicURL string, ttl time.Duration) *SignalingIssuer {
	return &SignalingIssuer{
		secret:    []byte(secret),
		publicURL: publicURL,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *SignalingIssuer) Issue(ctx context.Context, meeting *models.Meeting, role models.Role) (*models.TransportCredential, error) {
	if !role.Valid() {
		return nil, models.ErrInvalidRole
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	userID := participantID(meeting, role)
	claims := SignalingClaims{
		MeetingID: meeting.ID,
		UserID:    userID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{ChannelID(meeting.ID)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign signaling token: %w", err)
	}

	return &models.TransportCredential{
		Provider:  ProviderSignaling,
		Token:     token,
		ChannelID: ChannelID(meeting.ID),
		URL:       s.publicURL,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks a token produced by Issue and returns its claims.
func (s *SignalingIssuer) Verify(token string) (*SignalingClaims, error) {
	claims := &SignalingClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !parsed.Valid || claims.MeetingID == uuid.Nil || claims.UserID == uuid.Nil || !claims.Role.Valid() {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}
