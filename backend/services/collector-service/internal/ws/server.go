package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades HTTP connections to the live row feed.
type Server struct {
	ctx          context.Context
	cancel       context.CancelFunc
	hub          *Hub
	logger       *zap.Logger
	writeTimeout time.Duration
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewServer builds ws server.
func NewServer(hub *Hub, writeTimeout, pingInterval time.Duration, logger *zap.Logger) *Server {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		ctx:          ctx,
		cancel:       cancel,
		hub:          hub,
		logger:       logger,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is HTTP handler for /api/readings/ws endpoint.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.New().String()
	connection := NewConnection(id, conn, s.writeTimeout, s.pingInterval, s.logger, s.hub.Remove)
	s.hub.Add(connection)

	go connection.Start(s.ctx)
	s.logger.Info("feed subscriber connected", zap.String("conn_id", id), zap.String("remote", r.RemoteAddr))
}

// Close sends a going-away close frame to every subscriber.
func (s *Server) Close() {
	s.cancel()
}
