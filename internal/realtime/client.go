package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"marketdash/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 512
)

// AccessChecker authorizes a room join the same way a direct order read is
// authorized.
type AccessChecker interface {
	CanRead(ctx context.Context, orderID string, actor models.Actor) error
}

// clientMessage is what connected clients may send: join or leave a room.
// Clients never publish status or location events themselves.
type clientMessage struct {
	Action  string `json:"action"` // "join" or "leave"
	OrderID string `json:"order_id"`
}

// ackMessage is sent back after a join/leave attempt.
type ackMessage struct {
	Action  string `json:"action"`
	OrderID string `json:"order_id"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// Client owns one authenticated websocket connection and the set of room
// subscriptions made over it. It is created on connect and torn down,
// cancelling every subscription, on disconnect.
type Client struct {
	conn   *websocket.Conn
	actor  models.Actor
	hub    *Hub
	access AccessChecker
	logger zerolog.Logger

	send chan interface{}

	mu   sync.Mutex
	subs map[string]*Subscription
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn, actor models.Actor, hub *Hub, access AccessChecker, logger zerolog.Logger) *Client {
	return &Client{
		conn:   conn,
		actor:  actor,
		hub:    hub,
		access: access,
		logger: logger.With().Str("component", "realtime").Str("user_id", actor.UserID).Logger(),
		send:   make(chan interface{}, 32),
		subs:   make(map[string]*Subscription),
	}
}

// Run services the connection until it drops, then releases every room
// subscription. It blocks; the caller runs it on the handler goroutine.
func (c *Client) Run(ctx context.Context) {
	done := make(chan struct{})
	go c.writePump(done)
	c.readPump(ctx)
	close(done)

	c.mu.Lock()
	for _, sub := range c.subs {
		sub.Cancel()
	}
	c.subs = nil
	c.mu.Unlock()
}

func (c *Client) readPump(ctx context.Context) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("connection closed unexpectedly")
			}
			return
		}
		switch msg.Action {
		case "join":
			c.join(ctx, msg.OrderID)
		case "leave":
			c.leave(msg.OrderID)
		}
	}
}

func (c *Client) join(ctx context.Context, orderID string) {
	if orderID == "" {
		c.enqueue(ackMessage{Action: "join", OK: false, Error: "order_id required"})
		return
	}
	if err := c.access.CanRead(ctx, orderID, c.actor); err != nil {
		c.enqueue(ackMessage{Action: "join", OrderID: orderID, OK: false, Error: "access denied"})
		return
	}

	c.mu.Lock()
	if _, already := c.subs[orderID]; already {
		c.mu.Unlock()
		c.enqueue(ackMessage{Action: "join", OrderID: orderID, OK: true})
		return
	}
	sub := c.hub.Subscribe(orderID)
	c.subs[orderID] = sub
	c.mu.Unlock()

	// Forward room events into this connection's write queue until the
	// subscription is cancelled.
	go func() {
		for ev := range sub.C() {
			c.enqueue(ev)
		}
	}()

	c.enqueue(ackMessage{Action: "join", OrderID: orderID, OK: true})
}

func (c *Client) leave(orderID string) {
	c.mu.Lock()
	sub, ok := c.subs[orderID]
	if ok {
		delete(c.subs, orderID)
	}
	c.mu.Unlock()
	if ok {
		sub.Cancel()
	}
	c.enqueue(ackMessage{Action: "leave", OrderID: orderID, OK: ok})
}

// enqueue is non-blocking; a connection that cannot drain its queue misses
// the message.
func (c *Client) enqueue(v interface{}) {
	select {
	case c.send <- v:
	default:
		c.logger.Warn().Msg("client write queue full, message dropped")
	}
}

func (c *Client) writePump(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case v := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			payload, err := json.Marshal(v)
			if err != nil {
				c.logger.Error().Err(err).Msg("marshal outbound message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}
