package ws

import (
	"encoding/json"

	"github.com/gorilla/websocket"

	"servio_backend/internal/logger"
)

// inboundMessage is the only client→server shape the channel recognizes.
// Anything else is accepted, logged and ignored: this is a liveness-only
// channel, business commands do not travel over it.
type inboundMessage struct {
	Type string `json:"type"`
}

type session struct {
	registry *Registry
	conn     *websocket.Conn
	connID   string
	userID   string
}

// readLoop pumps inbound frames until the connection errors or closes,
// then deregisters through the reverse socket index.
func (s *session) readLoop() {
	defer s.teardown()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("connection closed by peer", "conn_id", s.connID, "user_id", s.userID)
			} else {
				logger.Warn("websocket read error", "conn_id", s.connID, "user_id", s.userID, "error", err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			// Keep the connection: a garbled frame still proves liveness.
			logger.Warn("malformed inbound frame", "conn_id", s.connID, "payload", string(raw), "error", err)
			s.registry.UpdateActivity(s.connID)
			continue
		}

		switch msg.Type {
		case "ping":
			s.registry.UpdateActivity(s.connID)
			pong := NewFrame(FramePong, "pong")
			if err := s.registry.sendTo(s.connID, pong); err != nil {
				logger.Error("failed to send pong", "conn_id", s.connID, "error", err)
			}
		default:
			s.registry.UpdateActivity(s.connID)
			logger.Debug("ignoring inbound message", "conn_id", s.connID, "type", msg.Type)
		}
	}
}

func (s *session) teardown() {
	connID, ok := s.registry.FindConnectionIDBySocket(s.conn)
	if !ok {
		// The socket was already evicted (sweep, failed send) or was
		// never the handle we registered. Non-fatal inconsistency.
		logger.Warn("socket has no registry entry on close", "conn_id", s.connID, "user_id", s.userID)
	} else {
		s.registry.RemoveConnection(connID)
	}
	_ = s.conn.Close()
}
