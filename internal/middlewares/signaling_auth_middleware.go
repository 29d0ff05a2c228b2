package middlewares

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/repositories"
	"github.com/preetsinghmakkar/OpenConsult/internal/responses"
	"github.com/preetsinghmakkar/OpenConsult/internal/transport"
)

const signalingAuthKey = "signaling_auth"

// SignalingAuthContext holds the authenticated identity of a relay connection
type SignalingAuthContext struct {
	UserID    uuid.UUID
	MeetingID uuid.UUID
	Role      models.Role
}

// SignalingVerifier validates relay credentials.
type SignalingVerifier interface {
	Verify(token string) (*transport.SignalingClaims, error)
}

// SignalingAuthMiddleware authenticates relay websocket connections before upgrade.
// The credential must have been issued by a join, and the meeting must still be open.
func SignalingAuthMiddleware(verifier SignalingVerifier, meetings repositories.MeetingStore, log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "signaling-auth").Logger()

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			responses.WriteError(c, apperrors.New(apperrors.KindAuthorization, apperrors.CodeForbidden, "authentication required"), log)
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			responses.WriteError(c, apperrors.Wrap(apperrors.KindAuthorization, apperrors.CodeForbidden, "invalid or expired credential", err), log)
			return
		}

		meeting, err := meetings.GetByID(c.Request.Context(), claims.MeetingID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				responses.WriteError(c, apperrors.NotFound("meeting not found"), log)
				return
			}
			responses.WriteError(c, apperrors.Internal(err), log)
			return
		}

		// Derive role from the meeting, never from the client
		role, ok := meeting.RoleOf(claims.UserID)
		if !ok || role != claims.Role {
			responses.WriteError(c, apperrors.Forbidden("not a party of this meeting"), log)
			return
		}
		if meeting.Status.IsTerminal() {
			responses.WriteError(c, apperrors.AlreadyTerminal("already "+string(meeting.Status)), log)
			return
		}

		c.Set(signalingAuthKey, &SignalingAuthContext{
			UserID:    claims.UserID,
			MeetingID: meeting.ID,
			Role:      role,
		})
		c.Next()
	}
}

// GetSignalingAuth retrieves the relay identity set by SignalingAuthMiddleware
func GetSignalingAuth(c *gin.Context) (*SignalingAuthContext, error) {
	val, ok := c.Get(signalingAuthKey)
	if !ok {
		return nil, errors.New("signaling authentication context not found")
	}

	auth, ok := val.(*SignalingAuthContext)
	if !ok {
		return nil, errors.New("invalid signaling authentication context type")
	}
	return auth, nil
}
