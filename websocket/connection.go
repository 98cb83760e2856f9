// Package websocket pushes live attendee-list updates to clients watching an event.
// file: websocket/connection.go
package websocket

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"eventlink/logger"
)

// WSConn is an interface for the WebSocket connection.
type WSConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	ReadMessage() (int, []byte, error)
	Close() error
	RemoteAddr() net.Addr
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
}

// Connection represents a single WebSocket connection watching one event.
type Connection struct {
	conn     WSConn
	send     chan []byte
	eventKey string
}

// Configuration constants.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// ServeWs upgrades the request and subscribes the connection to the event
// named by the "key" query parameter. The current attendee list is sent first.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	eventKey := r.URL.Query().Get("key")
	if eventKey == "" {
		logger.Warn.Println("[ServeWs] No event key; rejecting WebSocket connection")
		http.Error(w, "No event selected", http.StatusBadRequest)
		return
	}

	logger.Info.Printf("[ServeWs] Upgrading to WS: remoteAddr=%v, event=%q", r.RemoteAddr, eventKey)
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		logger.Error.Printf("[ServeWs] WebSocket upgrade error: %v", err)
		return
	}

	c := &Connection{
		conn:     wsConn,
		send:     make(chan []byte, sendBuffer),
		eventKey: eventKey,
	}
	h.subscribe(r.Context(), c)
	go h.readPump(c)
	go c.writePump()
}

// readPump drains inbound frames so pongs and close frames are processed.
// Clients have nothing to say; text frames are logged and ignored.
func (h *Hub) readPump(c *Connection) {
	defer func() {
		h.unregisterConnection(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn.Printf("[readPump] Read error from %v: %v", c.conn.RemoteAddr(), err)
			}
			return
		}
		logger.Debug.Printf("[readPump] Ignoring client message type=%d len=%d on %q", messageType, len(message), c.eventKey)
	}
}

// writePump handles outbound messages to the client, including periodic pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// The hub closed the channel.
				logger.Debug.Printf("[writePump] Send channel closed for %v", c.conn.RemoteAddr())
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn.Printf("[writePump] Error writing to %v: %v", c.conn.RemoteAddr(), err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Warn.Printf("[writePump] Ping error for %v: %v", c.conn.RemoteAddr(), err)
				return
			}
		}
	}
}

// checkOrigin allows same-host requests, requests without an Origin header
// and the configured application URL.
func checkOrigin(allowed string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || origin == allowed {
			return true
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

