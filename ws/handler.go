package ws

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"servio_backend/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin checks are handled by the deployment proxy
	},
}

// Handler terminates websocket upgrade requests. Authentication failures
// are reported to the client as an immediate close with a specific
// reason, never as a server error elsewhere.
type Handler struct {
	registry *Registry
	authn    *Authenticator
}

func NewHandler(registry *Registry, authn *Authenticator) *Handler {
	return &Handler{registry: registry, authn: authn}
}

// Serve handles GET /ws.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "remote", c.ClientIP(), "error", err)
		return
	}

	principal, rejection := h.authn.Authenticate(c.Request)
	if rejection != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(rejection.Code, rejection.Reason), deadline)
		_ = conn.Close()
		return
	}

	connID := newConnectionID()
	h.registry.AddConnection(connID, principal.UserID, principal.Role, conn)

	welcome := NewFrame(FrameConnectionEstablished, "Connected to Servio notifications")
	if err := h.registry.sendTo(connID, welcome); err != nil {
		// Registration stands: the connection may still be usable for
		// receiving even when the welcome write failed.
		logger.Error("failed to send welcome frame", "conn_id", connID, "error", err)
	}

	sess := &session{registry: h.registry, conn: conn, connID: connID, userID: principal.UserID}
	go sess.readLoop()
}

// newConnectionID builds an id unique for the process lifetime; ids are
// never reused after removal.
func newConnectionID() string {
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
