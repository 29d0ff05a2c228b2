// Package transport issues the credentials a party needs to reach the media channel of a meeting.
package transport

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

const (
	ProviderSignaling = "signaling"
	ProviderLiveKit   = "livekit"
)

var ErrInvalidCredential = errors.New("invalid transport credential")

// Issuer produces a credential scoped to one meeting and one role.
type Issuer interface {
	Issue(ctx context.Context, meeting *models.Meeting, role models.Role) (*models.TransportCredential, error)
}

// ChannelID is the media channel name shared by both parties of a meeting.
func ChannelID(meetingID uuid.UUID) string {
	return "meeting-" + meetingID.String()
}

func participantID(meeting *models.Meeting, role models.Role) uuid.UUID {
	if role == models.RoleCounsellor {
		return meeting.CounsellorID
	}
	return meeting.LearnerID
}
