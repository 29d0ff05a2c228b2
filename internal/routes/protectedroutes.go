package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/preetsinghmakkar/OpenConsult/internal/handlers"
	"github.com/preetsinghmakkar/OpenConsult/internal/middlewares"
)

func RegisterProtectedEndpoints(
	router *gin.Engine,
	requestHandler *handlers.RequestHandler,
	meetingHandler *handlers.MeetingHandler,
	jwtSecret string,
	log zerolog.Logger,
) {
	protected := router.Group("/api/v1")
	protected.Use(middlewares.AuthMiddleware(jwtSecret, log))

	protected.POST("/requests", requestHandler.Create)
	protected.GET("/requests", requestHandler.List)
	protected.GET("/requests/:id", requestHandler.Get)
	protected.POST("/requests/:id/accept", requestHandler.Accept)
	protected.POST("/requests/:id/reject", requestHandler.Reject)

	protected.POST("/meetings/:id/join", meetingHandler.Join)
	protected.GET("/meetings/:id/status", meetingHandler.Status)
	protected.GET("/meetings/:id", meetingHandler.Get)
	protected.POST("/meetings/:id/end", meetingHandler.End)
	protected.POST("/meetings/:id/abandon", meetingHandler.Abandon)
}
