package websocket

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fortuna/totals/internal/strategy"
)

// Hub maintains the set of active clients and fans live signals out to them
type Hub struct {
	clientsMu sync.RWMutex
	clients   map[*Client]bool

	broadcast  chan []strategy.LiveSignal
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []strategy.LiveSignal, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.clientsMu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.clientsMu.Unlock()
			log.Printf("[ws] client %s connected (total: %d)", c.ID, count)

		case c := <-h.unregister:
			h.remove(c)

		case signals := <-h.broadcast:
			h.fanOut(signals)
		}
	}
}

// Broadcast queues an evaluation for every subscriber, dropping it when the
// buffer is full
func (h *Hub) Broadcast(signals []strategy.LiveSignal) {
	select {
	case h.broadcast <- signals:
	default:
		log.Println("[ws] ⚠️  Broadcast buffer full, dropping live signals")
	}
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.closeSend()
		log.Printf("[ws] client %s disconnected (total: %d)", c.ID, len(h.clients))
	}
}

func (h *Hub) fanOut(signals []strategy.LiveSignal) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	now := time.Now()
	for _, c := range clients {
		selected := c.selectSignals(signals)
		if len(selected) == 0 && len(signals) > 0 {
			continue
		}

		msg := ServerMessage{Type: MessageTypeLiveSignals, Payload: selected, Timestamp: now}
		if !c.trySend(msg) {
			log.Printf("[ws] ⚠️  client %s buffer full, disconnecting", c.ID)
			h.remove(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	log.Printf("[ws] Shutting down hub (%d active clients)", len(h.clients))
	for c := range h.clients {
		c.closeSend()
		delete(h.clients, c)
	}
}
