// Package websocket - websocket/broadcast.go
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"eventlink/logger"
	"eventlink/models"
)

// outbound is one message for every connection watching eventKey.
type outbound struct {
	eventKey string
	data     []byte
}

// Hub tracks the open connections per event and fans updates out to them.
// It implements services.AttendanceNotifier.
type Hub struct {
	mu          sync.Mutex
	connections map[*Connection]bool
	broadcast   chan outbound
	source      AttendeeSource
	upgrader    websocket.Upgrader
}

// NewHub creates a Hub. source supplies the list sent on subscribe and may
// be nil; allowedOrigin is the application URL browsers connect from.
func NewHub(source AttendeeSource, allowedOrigin string) *Hub {
	return &Hub{
		connections: make(map[*Connection]bool),
		broadcast:   make(chan outbound, 64),
		source:      source,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(allowedOrigin),
		},
	}
}

// SetSource sets the attendee source. Call it before serving connections.
func (h *Hub) SetSource(source AttendeeSource) {
	h.source = source
}

// HandleMessages distributes queued messages until ctx is done, then closes
// every connection.
func (h *Hub) HandleMessages(ctx context.Context) {
	for {
		select {
		case msg := <-h.broadcast:
			h.broadcastToEvent(msg.eventKey, msg.data)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// AttendeesChanged queues the new attendee list for the event's watchers.
// It never blocks; when the queue is full the update is dropped.
func (h *Hub) AttendeesChanged(eventKey string, attendees []models.Attendee) {
	data, err := json.Marshal(newAttendeesMessage(eventKey, attendees))
	if err != nil {
		logger.Error.Printf("[AttendeesChanged] Error marshalling message: %v", err)
		return
	}
	select {
	case h.broadcast <- outbound{eventKey: eventKey, data: data}:
	default:
		logger.Warn.Printf("[AttendeesChanged] Broadcast queue full; dropping update for %q", eventKey)
	}
}

// ConnectionCount returns how many clients watch the event.
func (h *Hub) ConnectionCount(eventKey string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for c := range h.connections {
		if c.eventKey == eventKey {
			n++
		}
	}
	return n
}

// broadcastToEvent sends a message to all connections watching eventKey.
func (h *Hub) broadcastToEvent(eventKey string, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.connections {
		if c.eventKey != eventKey {
			continue
		}
		select {
		case c.send <- message:
		default:
			logger.Warn.Printf("Dropping message for connection %v", c.conn.RemoteAddr())
		}
	}
}

// subscribe registers c and queues the current attendee list as its first
// message. Both happen under the hub lock, so no broadcast is missed and none
// is queued ahead of an older snapshot.
func (h *Hub) subscribe(ctx context.Context, c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true

	if h.source == nil {
		return
	}
	attendees, err := h.source.Attendees(ctx, c.eventKey)
	if err != nil {
		logger.Warn.Printf("[subscribe] Could not load attendees of %q: %v", c.eventKey, err)
		return
	}
	msg, err := json.Marshal(newAttendeesMessage(c.eventKey, attendees))
	if err != nil {
		logger.Error.Printf("[subscribe] Error marshalling snapshot: %v", err)
		return
	}
	c.send <- msg
}

// registerConnection adds the given connection to the hub.
func (h *Hub) registerConnection(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// unregisterConnection removes the connection and closes its send channel.
func (h *Hub) unregisterConnection(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.connections {
		delete(h.connections, c)
		close(c.send)
	}
}

// Handler exposes ServeWs as an http.Handler.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(h.ServeWs)
}
