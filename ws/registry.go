package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"servio_backend/internal/logger"
	"servio_backend/internal/models"
)

// Socket is the transport handle a connection writes to. *websocket.Conn
// satisfies it; tests substitute fakes.
type Socket interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Connection is one live socket. The socket handle is owned exclusively
// by the connection; all writes go through writeFrame so that the pong
// path and dispatcher pushes never interleave on the wire.
type Connection struct {
	ID     string
	UserID string
	Role   models.UserRole

	sock         Socket
	lastActivity time.Time

	writeMu sync.Mutex
}

func (c *Connection) writeBytes(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.sock.WriteMessage(websocket.TextMessage, payload)
}

func (c *Connection) closeWith(code int, reason string) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline := time.Now().Add(time.Second)
	if err := c.sock.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline); err != nil {
		logger.Debug("failed to write close frame", "conn_id", c.ID, "error", err)
	}
	if err := c.sock.Close(); err != nil {
		logger.Debug("failed to close socket", "conn_id", c.ID, "error", err)
	}
}

// Config carries the idle-sweep tuning. Zero values fall back to the
// defaults from the source system: sweep every 5 minutes, evict after 30
// minutes without activity.
type Config struct {
	SweepInterval time.Duration
	IdleTimeout   time.Duration
}

const (
	defaultSweepInterval = 5 * time.Minute
	defaultIdleTimeout   = 30 * time.Minute
)

// Registry holds the live connection state: connection id → Connection,
// user id → set of that user's connection ids, and the reverse
// socket → connection id index session handlers use to recover identity
// in close callbacks. All three structures are guarded by one mutex; no
// socket write or database call happens while it is held.
type Registry struct {
	mu        sync.RWMutex
	conns     map[string]*Connection
	userConns map[string]map[string]struct{}
	bySocket  map[Socket]string

	sweepInterval time.Duration
	idleTimeout   time.Duration

	stopSweep    chan struct{}
	sweepDone    chan struct{}
	sweepStarted bool
	stopOnce     sync.Once
}

func NewRegistry(cfg Config) *Registry {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	return &Registry{
		conns:         make(map[string]*Connection),
		userConns:     make(map[string]map[string]struct{}),
		bySocket:      make(map[Socket]string),
		sweepInterval: cfg.SweepInterval,
		idleTimeout:   cfg.IdleTimeout,
		stopSweep:     make(chan struct{}),
		sweepDone:     make(chan struct{}),
	}
}

// AddConnection registers a new live connection. The caller guarantees
// connection id uniqueness (ids carry a timestamp plus random suffix).
func (r *Registry) AddConnection(connID, userID string, role models.UserRole, sock Socket) {
	conn := &Connection{
		ID:           connID,
		UserID:       userID,
		Role:         role,
		sock:         sock,
		lastActivity: time.Now(),
	}

	r.mu.Lock()
	r.conns[connID] = conn
	set, ok := r.userConns[userID]
	if !ok {
		set = make(map[string]struct{})
		r.userConns[userID] = set
	}
	set[connID] = struct{}{}
	r.bySocket[sock] = connID
	total := len(r.conns)
	r.mu.Unlock()

	logger.Info("connection registered", "conn_id", connID, "user_id", userID, "role", role, "total", total)
}

// RemoveConnection removes the connection from all maps. Idempotent: an
// unknown id is a no-op. The user's connection set is dropped entirely
// once empty.
func (r *Registry) RemoveConnection(connID string) {
	r.mu.Lock()
	conn, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, connID)
	delete(r.bySocket, conn.sock)
	if set, ok := r.userConns[conn.UserID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.userConns, conn.UserID)
		}
	}
	total := len(r.conns)
	r.mu.Unlock()

	logger.Info("connection removed", "conn_id", connID, "user_id", conn.UserID, "total", total)
}

// UpdateActivity refreshes the last-activity timestamp. No-op for
// unknown connection ids.
func (r *Registry) UpdateActivity(connID string) {
	r.mu.Lock()
	if conn, ok := r.conns[connID]; ok {
		conn.lastActivity = time.Now()
	}
	r.mu.Unlock()
}

// FindConnectionIDBySocket resolves the connection id for a raw socket
// handle. Used by close callbacks, which only see the socket.
func (r *Registry) FindConnectionIDBySocket(sock Socket) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.bySocket[sock]
	return connID, ok
}

// SendToUser pushes a frame to every open connection of the user.
// Returns true when at least one connection received it. A user with no
// live connections is an expected, silent outcome: callers must treat
// false as "offline", not as a failure.
func (r *Registry) SendToUser(userID string, frame Frame) bool {
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("failed to serialize frame", "type", frame.Type, "error", err)
		return false
	}

	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.userConns[userID]))
	for connID := range r.userConns[userID] {
		if conn, ok := r.conns[connID]; ok {
			targets = append(targets, conn)
		}
	}
	r.mu.RUnlock()

	return r.deliver(targets, payload, frame.Type)
}

// Broadcast pushes a frame to every open connection, optionally limited
// to one role. An empty roleFilter means all roles.
func (r *Registry) Broadcast(frame Frame, roleFilter models.UserRole) int {
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("failed to serialize frame", "type", frame.Type, "error", err)
		return 0
	}

	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		if roleFilter != "" && conn.Role != roleFilter {
			continue
		}
		targets = append(targets, conn)
	}
	r.mu.RUnlock()

	delivered := 0
	var stale []string
	for _, conn := range targets {
		if err := conn.writeBytes(payload); err != nil {
			logger.Error("broadcast write failed", "conn_id", conn.ID, "user_id", conn.UserID, "error", err)
			stale = append(stale, conn.ID)
			continue
		}
		delivered++
		r.UpdateActivity(conn.ID)
	}
	for _, connID := range stale {
		r.RemoveConnection(connID)
	}
	return delivered
}

// deliver writes the payload to each target, removing connections whose
// write fails. Removal happens after the iteration so the set being
// iterated is never mutated mid-walk.
func (r *Registry) deliver(targets []*Connection, payload []byte, frameType FrameType) bool {
	delivered := false
	var stale []string
	for _, conn := range targets {
		if err := conn.writeBytes(payload); err != nil {
			logger.Error("send failed, removing connection",
				"conn_id", conn.ID, "user_id", conn.UserID, "type", frameType, "error", err)
			stale = append(stale, conn.ID)
			continue
		}
		delivered = true
		r.UpdateActivity(conn.ID)
	}
	for _, connID := range stale {
		r.RemoveConnection(connID)
	}
	return delivered
}

// sendTo pushes a frame to a single connection, used by the session
// handler for pong and welcome frames.
func (r *Registry) sendTo(connID string, frame Frame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	r.mu.RLock()
	conn, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	if err := conn.writeBytes(payload); err != nil {
		r.RemoveConnection(connID)
		return err
	}
	r.UpdateActivity(connID)
	return nil
}

// ActiveConnectionCount reports the number of live connections.
func (r *Registry) ActiveConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// UserConnectionCount reports how many connections a user has open.
func (r *Registry) UserConnectionCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.userConns[userID])
}

// StartSweep launches the background pass that evicts idle connections.
// Clients that drop without a close handshake never fire the close
// callback; the sweep bounds the memory they would otherwise leak.
func (r *Registry) StartSweep() {
	r.sweepStarted = true
	go func() {
		defer close(r.sweepDone)
		ticker := time.NewTicker(r.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.sweepIdle()
			case <-r.stopSweep:
				return
			}
		}
	}()
}

func (r *Registry) sweepIdle() {
	cutoff := time.Now().Add(-r.idleTimeout)

	r.mu.RLock()
	var expired []*Connection
	for _, conn := range r.conns {
		if conn.lastActivity.Before(cutoff) {
			expired = append(expired, conn)
		}
	}
	r.mu.RUnlock()

	for _, conn := range expired {
		logger.Info("evicting idle connection", "conn_id", conn.ID, "user_id", conn.UserID,
			"idle_since", conn.lastActivity)
		conn.closeWith(websocket.CloseGoingAway, "timeout")
		r.RemoveConnection(conn.ID)
	}
}

// Shutdown closes every open socket with a "server shutdown" reason,
// waits for the close attempts to finish, then clears all state. A send
// racing with shutdown may fail silently; that is acceptable.
func (r *Registry) Shutdown() {
	r.stopOnce.Do(func() {
		close(r.stopSweep)
	})
	if r.sweepStarted {
		<-r.sweepDone
	}

	r.mu.Lock()
	targets := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		targets = append(targets, conn)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, conn := range targets {
		wg.Add(1)
		go func(conn *Connection) {
			defer wg.Done()
			conn.closeWith(websocket.CloseNormalClosure, "server shutdown")
		}(conn)
	}
	wg.Wait()

	r.mu.Lock()
	r.conns = make(map[string]*Connection)
	r.userConns = make(map[string]map[string]struct{})
	r.bySocket = make(map[Socket]string)
	r.mu.Unlock()

	logger.Info("connection registry shut down", "closed", len(targets))
}
