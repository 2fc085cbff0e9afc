package order

import (
	"context"
	"fmt"
	"time"

	"marketdash/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// estimatedDeliveryWindow is the fixed offset added to the creation time to
// produce the advisory estimated delivery time.
const estimatedDeliveryWindow = 30 * time.Minute

// CatalogServiceInterface is what the order service needs from the catalog
// module: store lookups for ownership checks and product lookups for price
// snapshots.
type CatalogServiceInterface interface {
	GetStore(ctx context.Context, storeID string) (*models.Store, error)
	GetProducts(ctx context.Context, ids []string) (map[string]*models.Product, error)
}

// BroadcasterInterface is the realtime channel as seen from this service:
// publish-only, invoked strictly after the persistence write is acknowledged.
type BroadcasterInterface interface {
	PublishStatus(orderID, status string)
	PublishLocation(orderID string, location [2]float64)
}

// PaymentServiceInterface defines the contract for a payment processing service.
type PaymentServiceInterface interface {
	ProcessPayment(ctx context.Context, userID string, amount float64, paymentMethodID string) (string, error)
}

// NotifierInterface sends the delivery receipt. Failures are logged, never
// surfaced to the caller.
type NotifierInterface interface {
	SendDeliveryReceipt(ctx context.Context, o *models.Order) error
}

// ServiceInterface defines the contract for the order service.
type ServiceInterface interface {
	CreateOrder(ctx context.Context, customerID string, req models.CreateOrderRequest) (*models.Order, error)
	GetOrderDetails(ctx context.Context, orderID string, actor models.Actor) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID, newStatus string, actor models.Actor) (*models.Order, error)
	AssignDelivery(ctx context.Context, orderID, deliveryPersonID string, actor models.Actor) error
	RateOrder(ctx context.Context, orderID string, actor models.Actor, req models.RateOrderRequest) error
	RequestReturn(ctx context.Context, orderID string, actor models.Actor, req models.ReturnOrderRequest) error
	UpdateReturnStatus(ctx context.Context, orderID, newStatus string, actor models.Actor) error
	ListUserOrders(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error)
	ListStoreOrders(ctx context.Context, storeID string, actor models.Actor, page, limit int) ([]*models.Order, int, error)
	ListDeliveryOrders(ctx context.Context, deliveryPersonID string, page, limit int) ([]*models.Order, int, error)
	ListAllOrders(ctx context.Context, page, limit int) ([]*models.Order, int, error)
	// CanRead exposes the read gate to the realtime gateway so room joins are
	// authorized the same way as direct reads.
	CanRead(ctx context.Context, orderID string, actor models.Actor) error
}

// Service implements the order service logic.
type Service struct {
	repo        RepositoryInterface
	catalog     CatalogServiceInterface
	broadcaster BroadcasterInterface
	payment     PaymentServiceInterface
	notifier    NotifierInterface
	logger      zerolog.Logger
}

// NewService creates a new order service.
func NewService(
	repo RepositoryInterface,
	catalog CatalogServiceInterface,
	broadcaster BroadcasterInterface,
	payment PaymentServiceInterface,
	notifier NotifierInterface,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		catalog:     catalog,
		broadcaster: broadcaster,
		payment:     payment,
		notifier:    notifier,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder validates the store and every line item, snapshots current
// catalog prices into the order, and hands the whole batch to the repository
// for atomic reservation + insert. No inventory is touched unless the entire
// order goes through.
func (s *Service) CreateOrder(ctx context.Context, customerID string, req models.CreateOrderRequest) (*models.Order, error) {
	store, err := s.catalog.GetStore(ctx, req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("service.CreateOrder: store: %w", err)
	}

	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service.CreateOrder: products: %w", err)
	}

	now := time.Now()
	o := &models.Order{
		ID:                    uuid.NewString(),
		CustomerID:            customerID,
		StoreID:               store.ID,
		Status:                models.StatusPending,
		PaymentMethod:         req.PaymentMethod,
		PaymentStatus:         models.PaymentStatusPending,
		DeliveryAddress:       req.DeliveryAddress,
		EstimatedDeliveryTime: now.Add(estimatedDeliveryWindow),
		ReturnStatus:          models.ReturnNone,
	}

	var total float64
	for _, item := range req.Items {
		p, ok := products[item.ProductID]
		if !ok {
			return nil, models.ErrNotFound
		}
		o.Items = append(o.Items, models.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			UnitPrice:   p.Price, // snapshot, immutable from here on
		})
		total += p.Price * float64(item.Quantity)
	}
	o.TotalAmount = total

	if err := s.repo.CreateWithReservation(ctx, o); err != nil {
		if models.IsInsufficientStock(err) {
			return nil, err
		}
		return nil, fmt.Errorf("service.CreateOrder: %w", err)
	}

	if req.PaymentMethod == models.PaymentOnline {
		// The payment intent is confirmed client-side; payment_status stays
		// pending until then. A failed intent does not undo the order.
		if _, err := s.payment.ProcessPayment(ctx, customerID, o.TotalAmount, req.PaymentMethodID); err != nil {
			s.logger.Error().Err(err).Str("order_id", o.ID).Msg("payment intent creation failed")
		}
	}

	s.logger.Info().
		Str("order_id", o.ID).
		Str("store_id", o.StoreID).
		Float64("total", o.TotalAmount).
		Msg("order created")
	return o, nil
}

// GetOrderDetails retrieves a single order, enforcing the read gate.
func (s *Service) GetOrderDetails(ctx context.Context, orderID string, actor models.Actor) (*models.Order, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	store, err := s.catalog.GetStore(ctx, o.StoreID)
	if err != nil {
		return nil, fmt.Errorf("service.GetOrderDetails: store: %w", err)
	}
	if !canReadOrder(actor, o, store) {
		return nil, models.ErrForbidden
	}
	return o, nil
}

// CanRead applies the read gate without returning the order. The realtime
// gateway calls this before letting a connection join an order's room.
func (s *Service) CanRead(ctx context.Context, orderID string, actor models.Actor) error {
	_, err := s.GetOrderDetails(ctx, orderID, actor)
	return err
}

// UpdateStatus applies one transition of the state machine. The order of
// checks matters: NotFound before Forbidden before InvalidTransition, and the
// broadcast fires only after the compare-and-set write succeeded.
func (s *Service) UpdateStatus(ctx context.Context, orderID, newStatus string, actor models.Actor) (*models.Order, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	store, err := s.catalog.GetStore(ctx, o.StoreID)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateStatus: store: %w", err)
	}
	if err := authorizeTransition(actor, o, store, newStatus); err != nil {
		return nil, err
	}
	if !canTransition(o.Status, newStatus) {
		return nil, models.ErrInvalidTransition
	}

	var deliveredAt *time.Time
	var paymentStatus *string
	if newStatus == models.StatusDelivered {
		now := time.Now()
		deliveredAt = &now
		if o.PaymentMethod == models.PaymentCashOnDelivery {
			completed := models.PaymentStatusCompleted
			paymentStatus = &completed
		}
	}

	if err := s.repo.UpdateStatus(ctx, orderID, o.Status, newStatus, deliveredAt, paymentStatus); err != nil {
		return nil, err
	}

	o.Status = newStatus
	o.ActualDeliveryTime = deliveredAt
	if paymentStatus != nil {
		o.PaymentStatus = *paymentStatus
	}

	// Persisted; now, and only now, tell the room.
	s.broadcaster.PublishStatus(o.ID, newStatus)

	if newStatus == models.StatusDelivered && s.notifier != nil {
		if err := s.notifier.SendDeliveryReceipt(ctx, o); err != nil {
			s.logger.Warn().Err(err).Str("order_id", o.ID).Msg("delivery receipt not sent")
		}
	}

	s.logger.Info().
		Str("order_id", o.ID).
		Str("status", newStatus).
		Str("actor", actor.UserID).
		Msg("order status updated")
	return o, nil
}

// AssignDelivery attaches a courier to the order. Only the owning store
// manager or an admin may assign.
func (s *Service) AssignDelivery(ctx context.Context, orderID, deliveryPersonID string, actor models.Actor) error {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	store, err := s.catalog.GetStore(ctx, o.StoreID)
	if err != nil {
		return fmt.Errorf("service.AssignDelivery: store: %w", err)
	}
	if actor.Role != models.RoleAdmin && !(actor.Role == models.RoleStoreManager && store.ManagerID == actor.UserID) {
		return models.ErrForbidden
	}
	return s.repo.AssignDelivery(ctx, orderID, deliveryPersonID)
}

// RateOrder records the one-shot post-delivery rating. A delivery rating
// additionally requires that this order has a delivery person assigned.
func (s *Service) RateOrder(ctx context.Context, orderID string, actor models.Actor, req models.RateOrderRequest) error {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.CustomerID != actor.UserID {
		return models.ErrForbidden
	}
	if o.Status != models.StatusDelivered && o.Status != models.StatusReturned {
		return models.ErrOrderNotDelivered
	}
	if req.DeliveryRating != nil && o.DeliveryPersonID == nil {
		return models.ErrNoDeliveryAssigned
	}
	return s.repo.SetRating(ctx, orderID, req)
}

// RequestReturn opens the return flow, once, for the owning customer of a
// delivered order.
func (s *Service) RequestReturn(ctx context.Context, orderID string, actor models.Actor, req models.ReturnOrderRequest) error {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.CustomerID != actor.UserID {
		return models.ErrForbidden
	}
	if o.Status != models.StatusDelivered {
		return models.ErrOrderNotDelivered
	}
	return s.repo.SetReturnRequested(ctx, orderID, req.Reason)
}

// returnEdges is the return-flow counterpart of the order state machine.
var returnEdges = map[string][]string{
	models.ReturnRequested:  {models.ReturnApproved, models.ReturnRejected},
	models.ReturnApproved:   {models.ReturnProcessing},
	models.ReturnProcessing: {models.ReturnCompleted},
}

// UpdateReturnStatus advances the return flow. Store managers of the owning
// store and admins only.
func (s *Service) UpdateReturnStatus(ctx context.Context, orderID, newStatus string, actor models.Actor) error {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	store, err := s.catalog.GetStore(ctx, o.StoreID)
	if err != nil {
		return fmt.Errorf("service.UpdateReturnStatus: store: %w", err)
	}
	if actor.Role != models.RoleAdmin && !(actor.Role == models.RoleStoreManager && store.ManagerID == actor.UserID) {
		return models.ErrForbidden
	}
	ok := false
	for _, next := range returnEdges[o.ReturnStatus] {
		if next == newStatus {
			ok = true
			break
		}
	}
	if !ok {
		return models.ErrInvalidTransition
	}
	if err := s.repo.UpdateReturnStatus(ctx, orderID, o.ReturnStatus, newStatus); err != nil {
		return err
	}
	if newStatus == models.ReturnCompleted {
		s.broadcaster.PublishStatus(o.ID, models.StatusReturned)
	}
	return nil
}

// ListUserOrders retrieves the customer's own orders.
func (s *Service) ListUserOrders(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error) {
	page, limit = clampPage(page, limit)
	return s.repo.ListByCustomer(ctx, customerID, page, limit)
}

// ListStoreOrders retrieves a store's orders for its manager or an admin.
func (s *Service) ListStoreOrders(ctx context.Context, storeID string, actor models.Actor, page, limit int) ([]*models.Order, int, error) {
	store, err := s.catalog.GetStore(ctx, storeID)
	if err != nil {
		return nil, 0, err
	}
	if actor.Role != models.RoleAdmin && store.ManagerID != actor.UserID {
		return nil, 0, models.ErrForbidden
	}
	page, limit = clampPage(page, limit)
	return s.repo.ListByStore(ctx, storeID, page, limit)
}

// ListDeliveryOrders retrieves the orders assigned to a courier.
func (s *Service) ListDeliveryOrders(ctx context.Context, deliveryPersonID string, page, limit int) ([]*models.Order, int, error) {
	page, limit = clampPage(page, limit)
	return s.repo.ListByDelivery(ctx, deliveryPersonID, page, limit)
}

// ListAllOrders lists every order in the system. Admin only; the handler
// enforces the role.
func (s *Service) ListAllOrders(ctx context.Context, page, limit int) ([]*models.Order, int, error) {
	page, limit = clampPage(page, limit)
	return s.repo.ListAll(ctx, page, limit)
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
