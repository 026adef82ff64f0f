package websocket

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fortuna/totals/internal/strategy"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server represents the WebSocket server
type Server struct {
	server *http.Server
	hub    *Hub
	mux    *http.ServeMux

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new WebSocket server and starts its hub
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		hub:    NewHub(),
		mux:    http.NewServeMux(),
		ctx:    ctx,
		cancel: cancel,
	}

	s.mux.HandleFunc("/ws/signals", s.handleSignals)
	s.mux.HandleFunc("/ws/health", s.handleHealth)

	go s.hub.Run(ctx)
	return s
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the WebSocket server
func (s *Server) Start(port string) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: s.mux,
	}

	log.Printf("WebSocket server listening on :%s", port)
	return s.server.ListenAndServe()
}

// handleSignals upgrades a connection and subscribes it to live signals
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] Failed to upgrade connection: %v", err)
		return
	}

	client := newClient(uuid.NewString(), s.hub, conn)
	s.hub.registerClient(client)

	// pumps outlive the request, so they follow the server context
	go client.writePump(s.ctx)
	go client.readPump(s.ctx)
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "healthy", "clients": %d}`, s.hub.ClientCount())
}

// BroadcastLiveSignals sends one live evaluation to all subscribers
func (s *Server) BroadcastLiveSignals(signals []strategy.LiveSignal) {
	s.hub.Broadcast(signals)
}

// ClientCount returns the number of connected subscribers
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// Shutdown stops the hub and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
