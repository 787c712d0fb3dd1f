package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/aeonkit/internal/logging"
	"github.com/conneroisu/aeonkit/internal/validation"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Message types sent to preview clients.
const (
	MessageReload    = "reload"
	MessageTagErrors = "tag_errors"
)

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client represents a WebSocket client
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub fans reload messages out to connected preview pages.
type Hub struct {
	clients    map[*Client]bool
	clientsMu  sync.RWMutex
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	metrics    *Metrics
	logger     logging.Logger
}

// NewHub creates a hub. Run must be called for messages to flow.
func NewHub(metrics *Metrics, logger logging.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		metrics:    metrics,
		logger:     logger,
	}
}

// Broadcast queues msg for every client. It never blocks; when the queue
// is full the message is dropped, since a later reload supersedes it.
func (h *Hub) Broadcast(msg UpdateMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		data = []byte(`{"type":"reload"}`)
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Debug(context.Background(), "Dropping broadcast, queue is full", "type", msg.Type)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Run services the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.clientsMu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientsMu.Unlock()
			h.metrics.clients.Set(0)
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.clientsMu.Unlock()
			h.metrics.clients.Set(float64(count))
			h.logger.Debug(ctx, "Client connected", "clients", count)

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Debug(ctx, "Client disconnected", "clients", h.ClientCount())

		case message := <-h.broadcast:
			h.clientsMu.RLock()
			var failed []*Client
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					failed = append(failed, client)
				}
			}
			h.clientsMu.RUnlock()

			for _, client := range failed {
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.clientsMu.Unlock()
	h.metrics.clients.Set(float64(count))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrigin(r) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	// The origin was checked above against the configured allow list.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  s.hub,
	}

	go client.writePump()
	go client.readPump()

	s.hub.register <- client
}

// checkOrigin accepts same-host origins, the configured listen address and
// the configured allowed origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	originURL, err := validation.ParseOrigin(origin)
	if err != nil {
		return false
	}

	if originURL.Host == r.Host || originURL.Host == s.cfg.Addr() {
		return true
	}
	return s.isAllowedOrigin(origin)
}

// readPump discards client messages and unregisters on close.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		readCtx, readCancel := context.WithTimeout(ctx, pongWait)
		_, _, err := c.conn.Read(readCtx)
		readCancel()

		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				c.hub.logger.Debug(ctx, "WebSocket read ended", "error", err.Error())
			}
			return
		}
	}
}

// writePump pumps messages to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.hub.logger.Debug(ctx, "WebSocket write failed", "error", err.Error())
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
