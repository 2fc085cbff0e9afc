package realtime

import (
	"sync"

	"github.com/rs/zerolog"
)

// Event names carried on the channel.
const (
	EventOrderStatus      = "order-status-update"
	EventDeliveryLocation = "delivery-location-update"
)

// Event is one message published to an order's room.
type Event struct {
	Name    string      `json:"event"`
	OrderID string      `json:"order_id"`
	Data    interface{} `json:"data"`
}

// StatusPayload is the body of an order-status-update event.
type StatusPayload struct {
	Status string `json:"status"`
}

// LocationPayload is the body of a delivery-location-update event.
// Location is [lng, lat].
type LocationPayload struct {
	Location [2]float64 `json:"location"`
}

// Subscription is the cancellation handle returned by Subscribe. Cancel is
// safe to call more than once; after it returns no further events are
// delivered and C is closed.
type Subscription struct {
	hub     *Hub
	orderID string
	ch      chan Event
	once    sync.Once
}

// C is the stream of events for the subscribed room.
func (s *Subscription) C() <-chan Event { return s.ch }

// Cancel leaves the room and releases the subscription.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.ch)
	})
}

// Hub is the room-scoped broadcast channel: one room per order, any number of
// subscribers per room. Delivery is best-effort at-most-once; a subscriber
// that cannot keep up has events dropped rather than blocking the publisher,
// and a client that was away at publish time re-fetches the order on rejoin.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Subscription]struct{}
	logger zerolog.Logger
}

// subscriptionBuffer bounds how far a slow subscriber may lag before events
// are dropped for it.
const subscriptionBuffer = 16

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Subscription]struct{}),
		logger: logger.With().Str("component", "realtime").Logger(),
	}
}

// Subscribe joins the room for the given order and returns the handle to
// leave it again.
func (h *Hub) Subscribe(orderID string) *Subscription {
	s := &Subscription{
		hub:     h,
		orderID: orderID,
		ch:      make(chan Event, subscriptionBuffer),
	}
	h.mu.Lock()
	room, ok := h.rooms[orderID]
	if !ok {
		room = make(map[*Subscription]struct{})
		h.rooms[orderID] = room
	}
	room[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[s.orderID]
	if !ok {
		return
	}
	delete(room, s)
	if len(room) == 0 {
		delete(h.rooms, s.orderID)
	}
}

// Publish delivers the event to every current subscriber of its room.
// Non-blocking: a full subscription buffer means that subscriber misses the
// event.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.rooms[ev.OrderID] {
		select {
		case s.ch <- ev:
		default:
			h.logger.Warn().
				Str("order_id", ev.OrderID).
				Str("event", ev.Name).
				Msg("subscriber lagging, event dropped")
		}
	}
}

// PublishStatus emits an order-status-update to the order's room.
func (h *Hub) PublishStatus(orderID, status string) {
	h.Publish(Event{Name: EventOrderStatus, OrderID: orderID, Data: StatusPayload{Status: status}})
}

// PublishLocation emits a delivery-location-update to the order's room.
func (h *Hub) PublishLocation(orderID string, location [2]float64) {
	h.Publish(Event{Name: EventDeliveryLocation, OrderID: orderID, Data: LocationPayload{Location: location}})
}

// RoomSize reports the current number of subscribers for an order's room.
func (h *Hub) RoomSize(orderID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[orderID])
}
