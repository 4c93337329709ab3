// Package notify is the topic-based realtime event distribution layer.
// Topic membership and fan-out live in server-local memory, so correct
// delivery assumes a single running instance of this process.
package notify

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"courier-dispatch/internal/logx"
)

// Hub routes published events to the clients subscribed to a topic.
// Delivery is best-effort: a frame that cannot be queued on a client is
// dropped and counted, never retried.
type Hub struct {
	logger  logx.Logger
	dropped prometheus.Counter

	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}
}

// NewHub creates an empty Hub.
func NewHub(logger logx.Logger, dropped prometheus.Counter) *Hub {
	return &Hub{
		logger:  logger,
		dropped: dropped,
		topics:  make(map[string]map[*Client]struct{}),
	}
}

// Register subscribes a freshly authenticated client to its personal
// topic and its role topic.
func (h *Hub) Register(c *Client) {
	h.Subscribe(c, TopicUser(c.UserID))
	h.Subscribe(c, TopicRole(string(c.Role)))
	h.logger.Info("client connected",
		logx.String("user_id", c.UserID),
		logx.String("role", string(c.Role)),
	)
}

// Unregister removes the client from every topic it joined.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	for topic, members := range h.topics {
		if _, ok := members[c]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Info("client disconnected", logx.String("user_id", c.UserID))
}

// Subscribe adds the client to a topic.
func (h *Hub) Subscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.topics[topic]
	if !ok {
		members = make(map[*Client]struct{})
		h.topics[topic] = members
	}
	members[c] = struct{}{}
}

// Unsubscribe removes the client from a topic.
func (h *Hub) Unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.topics, topic)
	}
}

// Subscribers returns the number of clients on a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Publish fans an event out to every client on the topic. Fire-and-forget:
// marshal or queue failures are logged and counted, never surfaced.
func (h *Hub) Publish(topic, event string, payload any) {
	data, err := json.Marshal(Envelope{Event: event, Payload: payload, TS: time.Now().UTC()})
	if err != nil {
		h.logger.Error("broadcast marshal failed",
			logx.String("topic", topic),
			logx.String("event", event),
			logx.Err(err),
		)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.topics[topic]))
	for c := range h.topics[topic] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if !c.enqueue(data) {
			if h.dropped != nil {
				h.dropped.Inc()
			}
			h.logger.Warn("broadcast dropped: client queue full",
				logx.String("topic", topic),
				logx.String("event", event),
				logx.String("user_id", c.UserID),
			)
		}
	}
}
