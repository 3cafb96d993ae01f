package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xiaot623/healthflow/internal/domain"
)

// ErrBufferFull is returned when a connection's send buffer is full.
var ErrBufferFull = errors.New("send buffer full")

// ErrConnectionClosed is returned when sending to an unregistered connection.
var ErrConnectionClosed = errors.New("connection closed")

// Connection represents a single WebSocket connection.
type Connection struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	mu      sync.Mutex
	writeMu sync.Mutex
	closed  bool
	user    *domain.User
}

// User returns the authenticated user, or nil before hello.
func (c *Connection) User() *domain.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Connection) userID() int64 {
	if u := c.User(); u != nil {
		return u.ID
	}
	return 0
}

func (c *Connection) enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.Send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

func (c *Connection) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// WriteMessage writes a frame with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.Conn.Close()
}

// Hub tracks live connections and the users bound to them.
type Hub struct {
	connections map[string]*Connection
	users       map[int64]map[string]bool

	register   chan *Connection
	unregister chan *Connection
	done       chan struct{}

	logger *zap.Logger
	mu     sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		connections: make(map[string]*Connection),
		users:       make(map[int64]map[string]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

// Run serves registrations until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			h.mu.Unlock()
			h.logger.Debug("connection registered", zap.String("conn_id", conn.ID))

		case conn := <-h.unregister:
			h.remove(conn)
			h.logger.Debug("connection unregistered", zap.String("conn_id", conn.ID))

		case <-ctx.Done():
			h.mu.RLock()
			conns := make([]*Connection, 0, len(h.connections))
			for _, conn := range h.connections {
				conns = append(conns, conn)
			}
			h.mu.RUnlock()
			for _, conn := range conns {
				h.remove(conn)
			}
			return
		}
	}
}

func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[conn.ID]; !ok {
		return
	}
	delete(h.connections, conn.ID)
	if uid := conn.userID(); uid != 0 && h.users[uid] != nil {
		delete(h.users[uid], conn.ID)
		if len(h.users[uid]) == 0 {
			delete(h.users, uid)
		}
	}
	conn.closeSend()
}

// NewConnection wraps a socket; the caller registers it.
func (h *Hub) NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ID:   uuid.NewString(),
		Conn: ws,
		Send: make(chan []byte, 256),
	}
}

// Register adds a connection. It reports false once the hub has stopped.
func (h *Hub) Register(conn *Connection) bool {
	select {
	case h.register <- conn:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a connection and closes its send channel.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BindUser attaches an authenticated user to a connection.
func (h *Hub) BindUser(conn *Connection, user *domain.User) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := conn.userID()
	conn.mu.Lock()
	conn.user = user
	conn.mu.Unlock()
	userID := user.ID

	if prev != 0 && h.users[prev] != nil {
		delete(h.users[prev], conn.ID)
		if len(h.users[prev]) == 0 {
			delete(h.users, prev)
		}
	}
	if h.users[userID] == nil {
		h.users[userID] = make(map[string]bool)
	}
	h.users[userID][conn.ID] = true
}

// SendJSON queues a JSON frame to a single connection.
func (h *Hub) SendJSON(conn *Connection, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.enqueue(data)
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// UserCount returns the number of users with at least one live connection.
func (h *Hub) UserCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users)
}
