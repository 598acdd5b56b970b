package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"
)

// Hub maintains the set of active clients and broadcasts messages to them.
// All membership changes happen on the Run goroutine.
type Hub struct {
	name   string
	logger *slog.Logger

	clients map[*Client]struct{}
	mu      sync.RWMutex

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	running atomic.Bool
}

// New creates a new Hub. A nil logger uses slog.Default.
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("component", "hub", "hub", name),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and blocks until ctx is done.
// On exit every client is disconnected and later connections are refused.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)

		h.mu.Lock()
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", "clients", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Too slow to keep up: drop it.
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Serve registers conn with the hub and pumps messages until the
// connection closes. It is the handler passed to websocket.New.
func (h *Hub) Serve(conn *websocket.Conn) {
	client := newClient(h, conn)

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	client.run()
}

// Broadcast queues a message for all connected clients.
// It returns false when the queue is full and the message was dropped.
func (h *Hub) Broadcast(msg Message) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		h.logger.Warn("broadcast queue full, dropping message")
		return false
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub loop is active
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Name returns the hub name used in logs.
func (h *Hub) Name() string {
	return h.name
}
