package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades browser requests to WebSockets carrying view updates.
type Server struct {
	manager      *Manager
	processor    MessageProcessor
	initial      func() interface{}
	logger       *zap.Logger
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

// NewServer builds the ws server. initial, when set, supplies the view sent to each new client.
func NewServer(manager *Manager, processor MessageProcessor, initial func() interface{}, writeTimeout time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Server{
		manager:      manager,
		processor:    processor,
		initial:      initial,
		logger:       logger,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// HandleWS is the HTTP handler for /ws.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	clientID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	connection := NewConnection(clientID, conn, s.processor, s.writeTimeout, s.logger, func(id string) {
		s.manager.Remove(id)
		cancel()
	})
	s.manager.Add(connection)

	if s.initial != nil {
		if raw, err := Encode(TypeView, s.initial()); err == nil {
			connection.Send(raw)
		} else {
			s.logger.Warn("encode initial view failed", zap.Error(err))
		}
	}

	go connection.Start(ctx)
	s.logger.Info("client connected", zap.String("client_id", clientID))
}
