package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"servio_backend/ws"
)

type HealthHandler struct {
	registry *ws.Registry
}

func NewHealthHandler(registry *ws.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

func (h *HealthHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"healthy":           true,
		"activeConnections": h.registry.ActiveConnectionCount(),
	})
}
