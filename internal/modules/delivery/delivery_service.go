package delivery

import (
	"context"

	"marketdash/internal/models"

	"github.com/rs/zerolog"
)

// OrderServiceInterface is what the delivery module needs from the order
// module: reads through the access gate, the transition operation, and the
// courier's assignment list.
type OrderServiceInterface interface {
	GetOrderDetails(ctx context.Context, orderID string, actor models.Actor) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID, newStatus string, actor models.Actor) (*models.Order, error)
	ListDeliveryOrders(ctx context.Context, deliveryPersonID string, page, limit int) ([]*models.Order, int, error)
}

// CourierRepositoryInterface persists the courier's latest coordinates on
// their user record.
type CourierRepositoryInterface interface {
	UpdateLocation(ctx context.Context, userID string, lng, lat float64) error
}

// BroadcasterInterface publishes location events to an order's room.
type BroadcasterInterface interface {
	PublishLocation(orderID string, location [2]float64)
}

// ServiceInterface defines the contract for the delivery service.
type ServiceInterface interface {
	// UpdateLocation persists the courier's coordinates and relays them to
	// the order's room. Only the order's assigned courier may report.
	UpdateLocation(ctx context.Context, actor models.Actor, req models.LocationUpdateRequest) error
	// UpdateStatus is the courier-scoped alias of the order transition
	// operation, restricted to picked_up, in_transit and delivered.
	UpdateStatus(ctx context.Context, orderID, newStatus string, actor models.Actor) (*models.Order, error)
	ListAssignedOrders(ctx context.Context, actor models.Actor, page, limit int) ([]*models.Order, int, error)
}

// Service implements the delivery service logic.
type Service struct {
	orders      OrderServiceInterface
	couriers    CourierRepositoryInterface
	broadcaster BroadcasterInterface
	logger      zerolog.Logger
}

// NewService creates a new delivery service.
func NewService(orders OrderServiceInterface, couriers CourierRepositoryInterface, broadcaster BroadcasterInterface, logger zerolog.Logger) *Service {
	return &Service{
		orders:      orders,
		couriers:    couriers,
		broadcaster: broadcaster,
		logger:      logger.With().Str("service", "delivery").Logger(),
	}
}

// courierStatuses are the only targets reachable through the courier alias.
var courierStatuses = map[string]bool{
	models.StatusPickedUp:  true,
	models.StatusInTransit: true,
	models.StatusDelivered: true,
}

func (s *Service) UpdateLocation(ctx context.Context, actor models.Actor, req models.LocationUpdateRequest) error {
	// The access-gated read doubles as the assignment check: a courier can
	// only read orders assigned to them.
	o, err := s.orders.GetOrderDetails(ctx, req.OrderID, actor)
	if err != nil {
		return err
	}
	if o.DeliveryPersonID == nil || *o.DeliveryPersonID != actor.UserID {
		return models.ErrForbidden
	}

	if err := s.couriers.UpdateLocation(ctx, actor.UserID, req.Location[0], req.Location[1]); err != nil {
		return err
	}

	// Persisted; relay to whoever is watching this order.
	s.broadcaster.PublishLocation(o.ID, req.Location)
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, orderID, newStatus string, actor models.Actor) (*models.Order, error) {
	if !courierStatuses[newStatus] {
		return nil, models.ErrForbidden
	}
	return s.orders.UpdateStatus(ctx, orderID, newStatus, actor)
}

func (s *Service) ListAssignedOrders(ctx context.Context, actor models.Actor, page, limit int) ([]*models.Order, int, error) {
	return s.orders.ListDeliveryOrders(ctx, actor.UserID, page, limit)
}
