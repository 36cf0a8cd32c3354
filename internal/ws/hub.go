package ws

import (
	"encoding/json"
	"sync"

	"market_chat/internal/metrics"
	"market_chat/pkg/logger"
)

// Hub routes broadcasts to the local connections subscribed to a topic.
// Delivery is at-most-once: a client that cannot keep up is disconnected
// rather than allowed to stall the others.
type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[*Client]struct{}
	clients map[*Client]map[string]struct{}
	log     logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		topics:  make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]map[string]struct{}),
		log:     log,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		h.clients[c] = make(map[string]struct{})
	}
}

// Unregister drops every subscription of c and closes its send channel.
// Calling it more than once is harmless.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.clients[c]
	if !ok {
		return
	}
	for topic := range subs {
		h.removeLocked(c, topic)
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) Subscribe(c *Client, topic string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.clients[c]
	if !ok {
		return false
	}
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][c] = struct{}{}
	subs[topic] = struct{}{}
	return true
}

func (h *Hub) Unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.clients[c]; ok {
		delete(subs, topic)
	}
	h.removeLocked(c, topic)
}

func (h *Hub) removeLocked(c *Client, topic string) {
	members := h.topics[topic]
	delete(members, c)
	if len(members) == 0 {
		delete(h.topics, topic)
	}
}

// Dispatch wraps payload in an Envelope and queues it for every subscriber.
func (h *Hub) Dispatch(topic string, payload []byte) {
	frame, err := json.Marshal(Envelope{Topic: topic, Payload: json.RawMessage(payload)})
	if err != nil {
		h.log.Error("Failed to encode broadcast frame", "topic", topic, "error", err)
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.topics[topic] {
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		metrics.WebSocketDropped.WithLabelValues("slow_consumer").Inc()
		h.log.Warn("Disconnecting slow subscriber", "user_id", c.userID, "topic", topic)
		h.Unregister(c)
	}
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
