package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades /ws/live requests and hands connections to the manager.
type Server struct {
	manager      *Manager
	logger       *zap.Logger
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
	baseCtx      context.Context
}

// NewServer builds ws server. Connections close when ctx is cancelled.
func NewServer(ctx context.Context, manager *Manager, writeTimeout time.Duration, logger *zap.Logger) *Server {
	return &Server{
		manager:      manager,
		logger:       logger,
		writeTimeout: writeTimeout,
		baseCtx:      ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP handles GET /ws/live?cell=<id>.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cellID := strings.TrimSpace(r.URL.Query().Get("cell"))
	if cellID == "" {
		http.Error(w, "cell is required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	connection := NewConnection(uuid.NewString(), cellID, conn, s.writeTimeout, s.logger, s.manager.Remove)
	s.manager.Add(connection)
	s.logger.Info("live subscriber connected", zap.String("cell", cellID), zap.String("conn_id", connection.ID()))

	go connection.Start(s.baseCtx)
}
