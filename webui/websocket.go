package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub fans progress messages out to connected websocket clients.
//
// Each client gets a buffered send channel drained by its own write pump,
// which is also the only goroutine that writes to the connection (pings
// included). A client whose buffer fills is dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*client

	upgrader websocket.Upgrader
	config   HubConfig
	logger   *zap.Logger

	// initial, when set, produces the message sent to each new client.
	initial func() WSMessage

	done chan struct{}
	once sync.Once
}

type client struct {
	remoteAddr  string
	connectedAt time.Time
	send        chan []byte
}

// HubConfig holds connection timing settings.
type HubConfig struct {
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	SendBufferSize int
}

// DefaultHubConfig returns the standard connection settings.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 512,
		SendBufferSize: 64,
	}
}

// NewHub creates a hub. It serves connections until Close is called.
func NewHub(config HubConfig, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultHubConfig()
	if config.PingInterval <= 0 {
		config.PingInterval = def.PingInterval
	}
	if config.PongWait <= config.PingInterval {
		config.PongWait = 2 * config.PingInterval
	}
	if config.WriteWait <= 0 {
		config.WriteWait = def.WriteWait
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = def.MaxMessageSize
	}
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = def.SendBufferSize
	}

	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		config:  config,
		logger:  logger,
		done:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// SetInitial installs the producer for the on-connect snapshot.
func (h *Hub) SetInitial(fn func() WSMessage) {
	h.initial = fn
}

// HandleConnection upgrades the request and registers the client.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}

	conn.SetReadLimit(h.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.config.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.config.PongWait))
	})

	c := &client{
		remoteAddr:  conn.RemoteAddr().String(),
		connectedAt: time.Now(),
		send:        make(chan []byte, h.config.SendBufferSize),
	}
	if h.initial != nil {
		if data, err := json.Marshal(h.initial()); err == nil {
			c.send <- data
		}
	}

	if !h.register(conn, c) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(h.config.WriteWait))
		conn.Close()
		return
	}

	go h.writePump(conn, c)
	go h.readPump(conn)
}

// register adds the client unless Close has started. Close takes its client
// snapshot under the same lock, so a client is either in it or refused.
func (h *Hub) register(conn *websocket.Conn, c *client) bool {
	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return false
	default:
	}
	h.clients[conn] = c
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", zap.String("remote", c.remoteAddr), zap.Int("clients", total))
	return true
}

// Broadcast queues msg for every client.
func (h *Hub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", zap.String("type", msg.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*websocket.Conn
	for conn, c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range slow {
		h.logger.Warn("websocket client too slow, disconnecting", zap.String("remote", conn.RemoteAddr().String()))
		h.remove(conn)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	h.once.Do(func() { close(h.done) })
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		h.remove(conn)
	}
	return nil
}

// remove unregisters conn. Safe to call more than once.
func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	c, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		conn.Close()
	}
}

func (h *Hub) readPump(conn *websocket.Conn) {
	defer h.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(h.config.WriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(h.config.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
