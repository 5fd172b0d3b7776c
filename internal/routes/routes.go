package routes

import (
	"github.com/gin-gonic/gin"

	"servio_backend/internal/handlers"
	"servio_backend/internal/logger"
	"servio_backend/ws"
)

// AppHandlers bundles the HTTP handlers the router registers.
type AppHandlers struct {
	AuthHandler         *handlers.AuthHandler
	BookingHandler      *handlers.BookingHandler
	NotificationHandler *handlers.NotificationHandler
	HealthHandler       *handlers.HealthHandler
}

// RegisterRoutes registers all HTTP and WebSocket routes.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *AppHandlers,
	wsHandler *ws.Handler,
) {
	appHandlers.HealthHandler.RegisterRoutes(ginRouter)

	api := ginRouter.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.BookingHandler.RegisterRoutes(api)
		appHandlers.NotificationHandler.RegisterRoutes(api)
	}

	// The WebSocket endpoint authenticates during the handshake itself,
	// after the upgrade, so no HTTP auth middleware here.
	ginRouter.GET("/ws", wsHandler.Serve)
	logger.Info("WebSocket route /ws registered")
}
