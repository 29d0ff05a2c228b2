package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/apperrors"
	"github.com/preetsinghmakkar/OpenConsult/internal/models"
	"github.com/preetsinghmakkar/OpenConsult/internal/responses"
	"github.com/preetsinghmakkar/OpenConsult/internal/services"
	"github.com/preetsinghmakkar/OpenConsult/internal/utils"
)

const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// AuthMiddleware validates the bearer access token and stores the caller's
// identity on the context. The role always comes from the token.
func AuthMiddleware(jwtSecret string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			responses.WriteError(c, apperrors.New(apperrors.KindAuthorization, apperrors.CodeForbidden, "authentication required"), log)
			return
		}

		claims, err := utils.ParseAccessToken(strings.TrimSpace(token), jwtSecret)
		if err != nil {
			responses.WriteError(c, apperrors.Wrap(apperrors.KindAuthorization, apperrors.CodeForbidden, "invalid or expired token", err), log)
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// GetCaller returns the identity stored by AuthMiddleware.
func GetCaller(c *gin.Context) (services.Caller, bool) {
	userID, ok := c.Get(UserIDKey)
	if !ok {
		return services.Caller{}, false
	}
	role, ok := c.Get(RoleKey)
	if !ok {
		return services.Caller{}, false
	}

	id, okID := userID.(uuid.UUID)
	r, okRole := role.(models.Role)
	if !okID || !okRole {
		return services.Caller{}, false
	}
	return services.Caller{UserID: id, Role: r}, true
}
