package realtime

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pellmark/skein/internal/store"
)

// Server owns the hub and hands each upgraded connection its pumps.
type Server struct {
	hub *Hub
	svc *Service
	log *slog.Logger

	upgrader websocket.Upgrader
}

// NewServer wires a realtime server over a store.
func NewServer(st store.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		hub: NewHub(log),
		svc: NewService(st),
		log: log.With("component", "realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Hub exposes the room registry, mainly for inspection in handlers.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ServeWS upgrades the request and runs the connection until it drops.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := newClient(s.hub, s.svc, conn, s.log)
	s.log.Debug("client connected", "client", c.id, "remote", r.RemoteAddr)
	c.run()
}
