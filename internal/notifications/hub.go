package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"faceblog/internal/middleware"
	"faceblog/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
)

// Hub fans events out to the websocket clients of this process. Every client
// observes its own user topic and any room topics it has joined.
type Hub struct {
	mu         sync.RWMutex
	topics     map[string]map[*Client]struct{}
	clients    map[*Client]map[string]struct{}
	userConns  map[uint]int
	totalConns int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		topics:    make(map[string]map[*Client]struct{}),
		clients:   make(map[*Client]map[string]struct{}),
		userConns: make(map[uint]int),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "realtime hub" }

// Register attaches a connection for userID and subscribes it to the user's topic.
func (h *Hub) Register(userID uint, username string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}
	if h.userConns[userID] >= maxConnsPerUser {
		return nil, ErrUserFull
	}

	client := NewClient(h, conn, userID, username)
	h.clients[client] = make(map[string]struct{})
	h.userConns[userID]++
	h.totalConns++
	h.subscribeLocked(client, UserTopic(userID))

	observability.WebSocketConnections.Inc()
	return client, nil
}

// UnregisterClient drops every subscription of client and closes its send buffer.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	topics, ok := h.clients[client]
	if !ok {
		h.mu.Unlock()
		return
	}
	for topic := range topics {
		h.unsubscribeLocked(client, topic)
	}
	delete(h.clients, client)
	h.totalConns--
	if h.userConns[client.UserID]--; h.userConns[client.UserID] <= 0 {
		delete(h.userConns, client.UserID)
	}
	h.mu.Unlock()

	client.close()
	observability.WebSocketConnections.Dec()
}

// Subscribe adds client to topic. Unknown clients are ignored.
func (h *Hub) Subscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	h.subscribeLocked(client, topic)
}

// Unsubscribe removes client from topic.
func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(client, topic)
}

func (h *Hub) subscribeLocked(client *Client, topic string) {
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Client]struct{})
		h.topics[topic] = subs
	}
	subs[client] = struct{}{}
	h.clients[client][topic] = struct{}{}
}

func (h *Hub) unsubscribeLocked(client *Client, topic string) {
	if subs, ok := h.topics[topic]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	if topics, ok := h.clients[client]; ok {
		delete(topics, topic)
	}
}

// Deliver sends an encoded frame to every local observer of topic and
// returns how many accepted it.
func (h *Hub) Deliver(topic string, frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.topics[topic] {
		if c.TrySend(frame) {
			delivered++
		}
	}
	return delivered
}

// Notify encodes event and delivers it locally. It satisfies Publisher for
// single-instance deployments without Redis.
func (h *Hub) Notify(_ context.Context, topic string, event Event) error {
	frame, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.Deliver(topic, frame)
	observability.WebSocketEvents.WithLabelValues(event.Name, "outbound").Inc()
	return nil
}

// ClientCount reports the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// Shutdown gracefully closes all websocket connections
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if c.Conn != nil {
			if err := c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				middleware.Logger.Debug("failed to write close message", "user_id", c.UserID, "error", err)
			}
		}
		h.UnregisterClient(c)
	}
	return nil
}
