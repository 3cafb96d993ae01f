// Package ws serves the WebSocket chat endpoint.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xiaot623/healthflow/internal/domain"
	"github.com/xiaot623/healthflow/internal/service"
)

// Options configures the WebSocket server.
type Options struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
	// PromptTimeout bounds one dialog turn started from a frame.
	PromptTimeout time.Duration
	Logger        *zap.Logger
}

// Server handles WebSocket connections.
type Server struct {
	opts     Options
	service  *service.Service
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server. Zero options get defaults.
func NewServer(svc *service.Service, h *Hub, opts Options) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 60 * time.Second
	}
	if opts.ReadTimeout <= opts.PingInterval {
		opts.PingInterval = opts.ReadTimeout * 9 / 10
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 64 * 1024
	}
	if opts.PromptTimeout <= 0 {
		opts.PromptTimeout = 5 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		opts:    opts,
		service: svc,
		hub:     h,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket handles the upgrade and connection lifecycle.
// GET /ws
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn("failed to upgrade websocket", zap.Error(err))
		return err
	}

	conn := s.hub.NewConnection(ws)
	if !s.hub.Register(conn) {
		ws.Close()
		return nil
	}
	ws.SetReadLimit(s.opts.MaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)
	return nil
}

func (s *Server) readPump(conn *Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.Conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		return conn.Conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn("websocket read failed", zap.String("conn_id", conn.ID), zap.Error(err))
			}
			return
		}
		conn.Conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
		s.handleMessage(conn, message)
	}
}

func (s *Server) writePump(conn *Connection) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Warn("websocket write failed", zap.String("conn_id", conn.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleMessage(conn *Connection, data []byte) {
	var base BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		s.sendError(conn, "", ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch base.Type {
	case TypeHello:
		s.handleHello(conn, data)
	case TypePrompt:
		s.handlePrompt(conn, data)
	case TypeClear:
		s.handleClear(conn, base)
	default:
		s.sendError(conn, base.RequestID, ErrorCodeInvalidMessage, "unknown message type: "+base.Type)
	}
}

func (s *Server) handleHello(conn *Connection, data []byte) {
	var msg HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", ErrorCodeInvalidMessage, "invalid hello message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.WriteTimeout)
	defer cancel()
	user, err := s.service.Authenticate(ctx, msg.Token)
	if err != nil {
		s.sendError(conn, msg.RequestID, ErrorCodeUnauthorized, "invalid or expired token")
		return
	}

	s.hub.BindUser(conn, user)
	s.send(conn, HelloAckMessage{
		BaseMessage:  s.base(TypeHelloAck, msg.RequestID),
		ConnectionID: conn.ID,
		UserID:       user.ID,
	})
	s.logger.Info("websocket hello", zap.String("conn_id", conn.ID), zap.Int64("user_id", user.ID))
}

func (s *Server) handlePrompt(conn *Connection, data []byte) {
	var msg PromptMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", ErrorCodeInvalidMessage, "invalid prompt message")
		return
	}
	user, ok := s.caller(conn, msg.RequestID)
	if !ok {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PromptTimeout)
		defer cancel()

		reply, err := s.service.ProcessPrompt(ctx, user, msg.Prompt)
		if err != nil {
			code := ErrorCodeModelUnavailable
			if errors.Is(err, service.ErrEmptyPrompt) {
				code = ErrorCodeEmptyPrompt
			}
			s.logger.Warn("websocket prompt failed", zap.Int64("user_id", user.ID), zap.Error(err))
			s.sendError(conn, msg.RequestID, code, err.Error())
			return
		}

		s.service.RecordPrompt(ctx, user.ID, msg.Prompt, reply)
		s.send(conn, ResponseMessage{
			BaseMessage: s.base(TypeResponse, msg.RequestID),
			Response:    reply,
		})
	}()
}

func (s *Server) handleClear(conn *Connection, base BaseMessage) {
	user, ok := s.caller(conn, base.RequestID)
	if !ok {
		return
	}
	s.service.ClearConversation(user.ID)
	s.send(conn, s.base(TypeCleared, base.RequestID))
}

func (s *Server) caller(conn *Connection, requestID string) (*domain.User, bool) {
	user := conn.User()
	if user == nil {
		s.sendError(conn, requestID, ErrorCodeHelloRequired, "must send hello first")
		return nil, false
	}
	return user, true
}

func (s *Server) base(typ, requestID string) BaseMessage {
	return BaseMessage{Type: typ, Ts: time.Now().UnixMilli(), RequestID: requestID}
}

func (s *Server) send(conn *Connection, v interface{}) {
	if err := s.hub.SendJSON(conn, v); err != nil && !errors.Is(err, ErrConnectionClosed) {
		s.logger.Warn("websocket send failed", zap.String("conn_id", conn.ID), zap.Error(err))
	}
}

func (s *Server) sendError(conn *Connection, requestID, code, message string) {
	s.send(conn, ErrorMessage{
		BaseMessage: s.base(TypeError, requestID),
		Code:        code,
		Message:     message,
	})
}
