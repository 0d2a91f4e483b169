// Package feed streams tick samples to websocket clients.
package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"mining-sim-lab/internal/domain"
	"mining-sim-lab/internal/observability"
	"mining-sim-lab/internal/simulation"
)

// Config configures hub behavior.
type Config struct {
	// SendBuffer is the number of messages queued per client before drops.
	SendBuffer int
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// ReadTimeout is how long a client may stay silent (pongs included).
	ReadTimeout time.Duration
}

// DefaultConfig returns default hub configuration.
func DefaultConfig() Config {
	return Config{
		SendBuffer:   64,
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  60 * time.Second,
	}
}

// Message is the JSON document sent for every tick.
type Message struct {
	RunID      string               `json:"run_id"`
	Coin       string               `json:"coin"`
	Sample     domain.MetricsSample `json:"sample"`
	Counters   domain.Counters      `json:"counters"`
	Market     domain.MarketState   `json:"market"`
	BlockFound bool                 `json:"block_found"`
}

// Hub fans tick messages out to connected clients. A slow client loses
// messages instead of delaying the engine.
type Hub struct {
	config   Config
	upgrader websocket.Upgrader
	logger   *logrus.Entry

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewHub creates a hub. A nil config uses DefaultConfig.
func NewHub(config *Config, logger *logrus.Entry) *Hub {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultConfig().SendBuffer
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Hub{
		config: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger.WithField("component", "feed"),
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.isClosed() {
		http.Error(w, "feed closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, h.config.SendBuffer)}
	n, ok := h.register(c)
	if !ok {
		// Close ran while the upgrade was in flight
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
			time.Now().Add(h.config.WriteTimeout))
		conn.Close()
		return
	}
	h.logger.WithFields(logrus.Fields{
		"remote":  r.RemoteAddr,
		"clients": n,
	}).Info("feed client connected")

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Publish sends a tick to every client. It matches simulation.Observer.
func (h *Hub) Publish(runID string, res simulation.TickResult) {
	data, err := json.Marshal(Message{
		RunID:      runID,
		Coin:       res.Coin,
		Sample:     res.Sample,
		Counters:   res.Counters,
		Market:     res.Market,
		BlockFound: res.BlockFound,
	})
	if err != nil {
		h.logger.WithError(err).Error("marshal feed message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			observability.RecordFeedDrop()
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

func (h *Hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// register adds c unless the hub is closed. The closed check and the insert
// share h.mu with Close, so no client is added after Close collected them.
func (h *Hub) register(c *client) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return len(h.clients), false
	}
	h.clients[c] = struct{}{}
	observability.SetFeedClients(len(h.clients))
	return len(h.clients), true
}

// unregister removes c and closes its send channel exactly once.
func (h *Hub) unregister(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c)
		n := len(h.clients)
		close(c.send)
		h.mu.Unlock()

		observability.SetFeedClients(n)
		h.logger.WithField("clients", n).Info("feed client disconnected")
	})
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// readLoop discards client frames and unregisters on error or close.
func (h *Hub) readLoop(c *client) {
	defer h.unregister(c)

	_ = c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
