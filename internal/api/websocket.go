package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxWSConnections      = 256
	maxWSConnectionsPerIP = 8
	wsWriteTimeout        = 10 * time.Second
	wsPongTimeout         = 60 * time.Second
	wsPingInterval        = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Browser clients connect from any page hosting the board viewer;
	// the socket is broadcast-only so origin spoofing gains nothing.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsClient is one connected observer.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	ip   string
}

// WebSocketHub broadcasts resolution results to connected observers.
// Observers only listen; the socket accepts no inbound commands.
type WebSocketHub struct {
	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
	perIP    map[string]int
	register chan *wsClient
	remove   chan *wsClient
	cast     chan []byte
}

// NewWebSocketHub creates a hub. Call Run in a goroutine before
// serving connections.
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:  make(map[*wsClient]struct{}),
		perIP:    make(map[string]int),
		register: make(chan *wsClient),
		remove:   make(chan *wsClient),
		cast:     make(chan []byte, 64),
	}
}

// Run owns the client set. Slow clients are dropped rather than
// allowed to stall the broadcast loop.
func (h *WebSocketHub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.perIP[c.ip]++
			count := len(h.clients)
			h.mu.Unlock()
			UpdateWSConnections(count)

		case c := <-h.remove:
			h.mu.Lock()
			h.dropLocked(c)
			count := len(h.clients)
			h.mu.Unlock()
			UpdateWSConnections(count)

		case msg := <-h.cast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow client: dropping beats stalling the loop.
					h.dropLocked(c)
				}
			}
			count := len(h.clients)
			h.mu.Unlock()
			UpdateWSConnections(count)
		}
	}
}

// dropLocked removes a client and closes its send channel. Caller
// holds the write lock; safe to call twice for the same client.
func (h *WebSocketHub) dropLocked(c *wsClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	h.perIP[c.ip]--
	if h.perIP[c.ip] <= 0 {
		delete(h.perIP, c.ip)
	}
	close(c.send)
}

// BroadcastJSON marshals v and queues it to every client.
func (h *WebSocketHub) BroadcastJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("⚠️ ws broadcast marshal: %v", err)
		return
	}
	select {
	case h.cast <- data:
	default:
		// Broadcast queue full; observers catch up from /api/state.
	}
}

// ClientCount returns the number of connected observers.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades an HTTP request to a broadcast subscription.
func (h *WebSocketHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	h.mu.RLock()
	total := len(h.clients)
	forIP := h.perIP[ip]
	h.mu.RUnlock()

	if total >= maxWSConnections || forIP >= maxWSConnectionsPerIP {
		RecordConnectionRejected("ws_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️ ws upgrade: %v", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, 32), ip: ip}
	h.register <- c

	go c.writeLoop()
	go c.readLoop(h)
}

func (c *wsClient) writeLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains inbound frames so pongs and close frames are
// processed; any payload is discarded.
func (c *wsClient) readLoop(h *WebSocketHub) {
	defer func() {
		h.remove <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
