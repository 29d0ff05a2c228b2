package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/handlers"
	"github.com/preetsinghmakkar/OpenConsult/internal/middlewares"
	"github.com/preetsinghmakkar/OpenConsult/internal/repositories"
)

// RegisterPublicEndpoints mounts routes that authenticate without a bearer token.
// The relay socket carries its credential in the query string.
func RegisterPublicEndpoints(
	router *gin.Engine,
	signalingHandler *handlers.SignalingHandler,
	verifier middlewares.SignalingVerifier,
	meetings repositories.MeetingStore,
	log zerolog.Logger,
) {
	if signalingHandler == nil || verifier == nil {
		return
	}

	public := router.Group("/api/v1")

	wsAuth := middlewares.SignalingAuthMiddleware(verifier, meetings, log)
	public.GET("/ws/signal", wsAuth, signalingHandler.HandleWebSocket)
}
