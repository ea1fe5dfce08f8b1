// Package notifications delivers realtime feed events to websocket clients.
package notifications

import (
	"context"
	"errors"
	"sync"

	"cidadeemfoco/internal/middleware"
	"cidadeemfoco/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// MaxConnections caps the number of open feed connections per instance.
const MaxConnections = 10000

// ErrHubFull is returned by Register when MaxConnections is reached.
var ErrHubFull = errors.New("server connection limit reached")

// ErrHubClosed is returned by Register after Shutdown.
var ErrHubClosed = errors.New("hub is shutting down")

// Hub tracks feed clients and fans events out to all of them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	limit    int
	closed   bool
	shutdown chan struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		limit:    MaxConnections,
		shutdown: make(chan struct{}),
	}
}

// Register adds a connection. conn may be nil in tests that only read Client.Send.
func (h *Hub) Register(conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if len(h.clients) >= h.limit {
		return nil, ErrHubFull
	}

	client := newClient(h, conn)
	h.clients[client] = struct{}{}
	observability.WebSocketConnections.Inc()
	return client, nil
}

// UnregisterClient removes client and closes its send channel. Safe to call twice.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	observability.WebSocketConnections.Dec()
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll sends message to every connected client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data := []byte(message)
	for c := range h.clients {
		c.TrySend(data)
	}
}

// Deliver forwards an encoded event to every client and counts it by type.
func (h *Hub) Deliver(eventType, message string) {
	observability.WebSocketEvents.WithLabelValues(eventType).Inc()
	h.BroadcastAll(message)
}

// StartWiring subscribes the hub to events published by every instance through n.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, func(eventType, payload string) {
		h.Deliver(eventType, payload)
	})
}

// Shutdown closes every send channel. Each client's WritePump then sends a
// going-away close frame and closes its connection, so only WritePump ever writes.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	close(h.shutdown)

	for client := range h.clients {
		close(client.Send)
		delete(h.clients, client)
		observability.WebSocketConnections.Dec()
	}
	middleware.Logger.Debug("feed hub shut down")
	return nil
}

// Done is closed once Shutdown has started.
func (h *Hub) Done() <-chan struct{} {
	return h.shutdown
}
