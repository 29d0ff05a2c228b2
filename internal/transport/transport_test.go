package transport

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preetsinghmakkar/OpenConsult/internal/models"
)

func testMeeting() *models.Meeting {
	return &models.Meeting{
		ID:           uuid.New(),
		RequestID:    uuid.New(),
		LearnerID:    uuid.New(),
		CounsellorID: uuid.New(),
		Status:       models.MeetingStatusWaiting,
	}
}

func TestSignalingIssueAndVerify(t *testing.T) {
	issuer := NewSignalingIssuer("signal-secret", "ws://localhost:8080/api/v1/ws/signal", time.Hour)
	meeting := testMeeting()

	cred, err := issuer.Issue(context.Background(), meeting, models.RoleCounsellor)
	require.NoError(t, err)
	assert.Equal(t, ProviderSignaling, cred.Provider)
	assert.Equal(t, "meeting-"+meeting.ID.String(), cred.ChannelID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), cred.ExpiresAt, 5*time.Second)

	claims, err := issuer.Verify(cred.Token)
	require.NoError(t, err)
	assert.Equal(t, meeting.ID, claims.MeetingID)
	assert.Equal(t, meeting.CounsellorID, claims.UserID)
	assert.Equal(t, models.RoleCounsellor, claims.Role)
}

func TestSignalingVerifyRejectsForeignSecret(t *testing.T) {
	meeting := testMeeting()
	cred, err := NewSignalingIssuer("one", "", time.Hour).Issue(context.Background(), meeting, models.RoleLearner)
	require.NoError(t, err)

	_, err = NewSignalingIssuer("two", "", time.Hour).Verify(cred.Token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestSignalingVerifyRejectsExpired(t *testing.T) {
	issuer := NewSignalingIssuer("secret", "", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	cred, err := issuer.Issue(context.Background(), testMeeting(), models.RoleLearner)
	require.NoError(t, err)

	_, err = issuer.Verify(cred.Token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLiveKitIssueGrantsRoom(t *testing.T) {
	issuer := NewLiveKitIssuer("devkey", "0123456789abcdef0123456789abcdef", "ws://livekit:7880", 30*time.Minute)
	meeting := testMeeting()

	cred, err := issuer.Issue(context.Background(), meeting, models.RoleLearner)
	require.NoError(t, err)
	assert.Equal(t, ProviderLiveKit, cred.Provider)
	assert.Equal(t, "ws://livekit:7880", cred.URL)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(cred.Token, claims)
	require.NoError(t, err)
	assert.Equal(t, "devkey", claims["iss"])
	assert.Equal(t, "learner:"+meeting.LearnerID.String(), claims["sub"])

	video, ok := claims["video"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, cred.ChannelID, video["room"])
	assert.Equal(t, true, video["roomJoin"])
}
