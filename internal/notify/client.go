package notify

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/logx"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 1024
	sendQueueSize  = 32
)

// Client is one authenticated socket connection bound to a user.
type Client struct {
	UserID string
	Role   domain.Role

	hub    *Hub
	conn   *websocket.Conn
	logger logx.Logger
	send   chan []byte
}

// NewClient wraps an upgraded, already authenticated connection.
func NewClient(hub *Hub, conn *websocket.Conn, userID string, role domain.Role, logger logx.Logger) *Client {
	return &Client{
		UserID: userID,
		Role:   role,
		hub:    hub,
		conn:   conn,
		logger: logger,
		send:   make(chan []byte, sendQueueSize),
	}
}

// enqueue offers a frame to the client without blocking. Returns false
// when the send queue is full.
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// inbound is the shape of every client-to-server message.
type inbound struct {
	Event   string `json:"event"`
	Payload struct {
		DeliveryID string  `json:"delivery_id"`
		Lat        float64 `json:"lat"`
		Lng        float64 `json:"lng"`
	} `json:"payload"`
}

// ReadPump consumes client messages until the connection drops, then
// unregisters the client. Runs as its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("socket read failed", logx.String("user_id", c.UserID), logx.Err(err))
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.reject("malformed message")
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg inbound) {
	switch msg.Event {
	case MsgSubscribeToDelivery:
		if msg.Payload.DeliveryID == "" {
			c.reject("delivery_id is required")
			return
		}
		c.hub.Subscribe(c, TopicDelivery(msg.Payload.DeliveryID))

	case MsgUnsubscribeFromDelivery:
		if msg.Payload.DeliveryID == "" {
			c.reject("delivery_id is required")
			return
		}
		c.hub.Unsubscribe(c, TopicDelivery(msg.Payload.DeliveryID))

	case MsgUpdateLocation:
		// Only couriers publish positions; the connection stays open on rejection.
		if c.Role != domain.RoleCourier {
			c.reject("only couriers can publish location updates")
			return
		}
		if msg.Payload.DeliveryID == "" {
			c.reject("delivery_id is required")
			return
		}
		c.hub.Publish(TopicDelivery(msg.Payload.DeliveryID), EventLocationUpdate, LocationUpdatePayload{
			DeliveryID: msg.Payload.DeliveryID,
			CourierID:  c.UserID,
			Lat:        msg.Payload.Lat,
			Lng:        msg.Payload.Lng,
			TS:         time.Now().UTC(),
		})

	default:
		c.reject("unknown message: " + msg.Event)
	}
}

// reject answers the client with an error envelope without closing the socket.
func (c *Client) reject(message string) {
	data, err := json.Marshal(Envelope{Event: EventError, Payload: ErrorPayload{Message: message}, TS: time.Now().UTC()})
	if err != nil {
		return
	}
	c.enqueue(data)
}

// WritePump flushes queued frames to the socket and keeps the connection
// alive with pings. Runs as its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
