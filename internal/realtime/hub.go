// Package realtime fans server events out to WebSocket listeners.
//
// Every message is a JSON envelope:
//
//	{"event":"meeting_completed","data":{...},"timestamp":"2045-01-01T09:00:00Z"}
//
// Delivery is best effort. Listeners that connect later get no replay.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/metrics"
)

const (
	EventConnected   = "connected"
	EventClientCount = "client_count"

	writeWait      = 10 * time.Second
	maxInboundSize = 4096
)

// Envelope is the wire format of every pushed event.
type Envelope struct {
	Event     string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	// writeMu protects concurrent writes to the WebSocket connection.
	writeMu sync.Mutex
}

func (c *client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub tracks connected listeners and broadcasts to them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	greeting string
	now      func() time.Time
	logger   zerolog.Logger
}

// NewHub creates a hub. greeting is sent in the connected event.
func NewHub(greeting string, logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		greeting: greeting,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.With().Str("component", "realtime").Logger(),
	}
}

// Count returns the number of connected listeners.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection, greets the listener and keeps it
// registered until the peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxInboundSize)

	c := &client{conn: conn}

	// Hold the client's write lock across registration so the greeting is
	// its first message even if a broadcast races in.
	c.writeMu.Lock()
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	metrics.RealtimeClients.Set(float64(count))

	greeting, _ := json.Marshal(Envelope{
		Event:     EventConnected,
		Data:      map[string]any{"message": h.greeting, "clients": count},
		Timestamp: h.now(),
	})
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = conn.WriteMessage(websocket.TextMessage, greeting)
	c.writeMu.Unlock()

	h.logger.Info().Str("remote", r.RemoteAddr).Int("clients", count).Msg("Realtime client connected")

	defer func() {
		h.remove(c)
		conn.Close()
		remaining := h.Count()
		h.logger.Info().Str("remote", r.RemoteAddr).Int("clients", remaining).Msg("Realtime client disconnected")
		h.Broadcast(EventClientCount, map[string]int{"count": remaining})
	}()
	if err != nil {
		return
	}

	h.Broadcast(EventClientCount, map[string]int{"count": count})

	// Listeners only receive; inbound frames are read to notice closure.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).Msg("WebSocket read error")
			}
			return
		}
	}
}

// Broadcast serializes the envelope once and writes it to every listener.
// A listener whose write fails is dropped.
func (h *Hub) Broadcast(event string, data any) {
	msg, err := json.Marshal(Envelope{Event: event, Data: data, Timestamp: h.now()})
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Failed to encode event")
		return
	}
	metrics.RealtimeBroadcasts.WithLabelValues(event).Inc()

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(msg); err != nil {
			h.logger.Debug().Err(err).Str("event", event).Msg("Dropping realtime client")
			h.remove(c)
			c.conn.Close()
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	metrics.RealtimeClients.Set(float64(n))
}

// Close disconnects every listener.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	closing := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for c := range clients {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage, closing, time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.conn.Close()
	}
	metrics.RealtimeClients.Set(0)
}
