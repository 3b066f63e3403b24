// Package socket pushes match and chat events to connected clients over
// socket.io. Each client joins a room named after its user id.
package socket

import (
	"context"
	"net/http"

	"circloth_server/logger"
	"circloth_server/metrics"
	"circloth_server/models"
	"circloth_server/services"

	socketio "github.com/googollee/go-socket.io"
	"go.uber.org/zap"
)

const namespace = "/"

// Event names emitted to clients
const (
	EventMatch      = "match"
	EventNewMessage = "newMessage"
)

// Server wraps the socket.io server and implements services.Notifier
type Server struct {
	io *socketio.Server
	// Chats receives messages sent over the socket; nil disables sendMessage
	Chats *services.ChatService
}

// UserRoom is the room a user's connections join
func UserRoom(userID string) string {
	return "user:" + userID
}

// NewSocketServer initializes and returns a new Socket.IO server
func NewSocketServer() *Server {
	s := &Server{io: socketio.NewServer(nil)}

	s.io.OnConnect(namespace, func(c socketio.Conn) error {
		metrics.SocketConnections.Inc()
		logger.Debug("socket connected", zap.String("id", c.ID()))
		return nil
	})

	s.io.OnEvent(namespace, "join", func(c socketio.Conn, data map[string]string) {
		userID := data["userId"]
		if userID == "" {
			logger.Warn("join without userId", zap.String("id", c.ID()))
			return
		}
		c.Join(UserRoom(userID))
		logger.Debug("socket joined", zap.String("id", c.ID()), zap.String("userId", userID))
	})

	s.io.OnEvent(namespace, "sendMessage", func(c socketio.Conn, data map[string]string) {
		if s.Chats == nil {
			return
		}
		// the chat service relays the stored message back through NotifyMessage
		if _, err := s.Chats.SendMessage(context.Background(), data["sender"], data["receiver"], data["content"]); err != nil {
			logger.Warn("socket message rejected", zap.String("id", c.ID()), zap.Error(err))
			c.Emit("error", err.Error())
		}
	})

	s.io.OnError(namespace, func(c socketio.Conn, err error) {
		logger.Warn("socket error", zap.Error(err))
	})

	s.io.OnDisconnect(namespace, func(c socketio.Conn, reason string) {
		metrics.SocketConnections.Dec()
		logger.Debug("socket disconnected", zap.String("id", c.ID()), zap.String("reason", reason))
	})

	return s
}

// Serve runs the socket.io event loop until Close is called
func (s *Server) Serve() error {
	return s.io.Serve()
}

// Close shuts the socket.io server down
func (s *Server) Close() error {
	return s.io.Close()
}

// Handler is mounted at /socket.io/
func (s *Server) Handler() http.Handler {
	return s.io
}

// NotifyMatch tells userID about a new match
func (s *Server) NotifyMatch(userID string, match models.MatchNotice) {
	s.io.BroadcastToRoom(namespace, UserRoom(userID), EventMatch, match)
}

// NotifyMessage delivers msg to both participants
func (s *Server) NotifyMessage(msg models.Message) {
	s.io.BroadcastToRoom(namespace, UserRoom(msg.Receiver), EventNewMessage, msg)
	if msg.Sender != "" {
		s.io.BroadcastToRoom(namespace, UserRoom(msg.Sender), EventNewMessage, msg)
	}
}

var _ services.Notifier = (*Server)(nil)
