package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Message types pushed to subscribers
const (
	TypeWelcome          = "welcome"
	TypeStreamUpdated    = "stream_updated"
	TypeNoStreamDetected = "no_stream_detected"
	TypeFullscreen       = "fullscreen"
)

// Client represents a WebSocket subscriber
type Client struct {
	ID     string
	Send   chan []byte
	Hub    *Hub
	mu     sync.Mutex
	closed bool
}

// Hub fans events out to every subscriber. It is the single event bus of
// the web process: discovery events and player events both go through it.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	onDisconnect func(id string)

	log *logrus.Entry

	mu sync.Mutex
}

// NewHub creates a new Hub instance
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        log.WithField("component", "websocket"),
	}
}

// OnDisconnect sets a callback run from the hub loop whenever a client
// leaves. It must be set before Run.
func (h *Hub) OnDisconnect(fn func(id string)) {
	h.onDisconnect = fn
}

// Run dispatches registrations and broadcasts until ctx is done, then
// disconnects every client. Sends to a stopped hub are dropped.
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.dropLocked(client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.log.WithField("clients", len(h.clients)).Info("Client connected")
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.dropLocked(client)
				h.log.WithField("clients", len(h.clients)).Info("Client disconnected")
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Slow consumer, drop it
					h.dropLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) dropLocked(client *Client) {
	delete(h.clients, client)
	client.closeSend()
	if h.onDisconnect != nil {
		h.onDisconnect(client.ID)
	}
}

// Register adds client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client; a no-op once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a raw message for all clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// Publish wraps payload fields with a type and broadcasts it
func (h *Hub) Publish(msgType string, fields map[string]any) error {
	body, err := encode(msgType, fields)
	if err != nil {
		return err
	}
	h.Broadcast(body)
	return nil
}

// Connected reports whether a client with id is subscribed
func (h *Hub) Connected(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client.ID == id {
			return true
		}
	}
	return false
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func encode(msgType string, fields map[string]any) ([]byte, error) {
	msg := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		msg[k] = v
	}
	msg["type"] = msgType
	return json.Marshal(msg)
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}
