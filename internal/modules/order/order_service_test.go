package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"marketdash/internal/models"

	"github.com/rs/zerolog"
)

// ----------------------------------------------------------------------------
// fakeRepo: in-memory stand-in for the order repository. It reproduces the
// compare-and-set semantics of the real one, including the conditional
// inventory decrement, so race-shaped assertions are meaningful.
// ----------------------------------------------------------------------------
type fakeRepo struct {
	mu        sync.Mutex // stands in for the transaction's serialization
	orders    map[string]*models.Order
	inventory map[string]int // productID|storeID -> quantity
	failWrite error          // injected persistence failure
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:    make(map[string]*models.Order),
		inventory: make(map[string]int),
	}
}

func invKey(productID, storeID string) string { return productID + "|" + storeID }

func (f *fakeRepo) CreateWithReservation(ctx context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return f.failWrite
	}
	// Validate every line before mutating anything: all-or-nothing.
	for _, item := range o.Items {
		if f.inventory[invKey(item.ProductID, o.StoreID)] < item.Quantity {
			return &models.InsufficientStockError{Product: item.ProductName}
		}
	}
	for _, item := range o.Items {
		f.inventory[invKey(item.ProductID, o.StoreID)] -= item.Quantity
	}
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, orderID, from, to string, deliveredAt *time.Time, paymentStatus *string) error {
	if f.failWrite != nil {
		return f.failWrite
	}
	o, ok := f.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	if o.Status != from {
		return models.ErrInvalidTransition
	}
	o.Status = to
	if deliveredAt != nil {
		o.ActualDeliveryTime = deliveredAt
	}
	if paymentStatus != nil {
		o.PaymentStatus = *paymentStatus
	}
	return nil
}

func (f *fakeRepo) AssignDelivery(ctx context.Context, orderID, deliveryPersonID string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	if o.Status != models.StatusPending && o.Status != models.StatusProcessing {
		return models.ErrInvalidTransition
	}
	o.DeliveryPersonID = &deliveryPersonID
	return nil
}

func (f *fakeRepo) SetRating(ctx context.Context, orderID string, req models.RateOrderRequest) error {
	o, ok := f.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	if o.StoreRating != nil || o.DeliveryRating != nil {
		return models.ErrAlreadyRated
	}
	o.StoreRating = req.StoreRating
	o.DeliveryRating = req.DeliveryRating
	return nil
}

func (f *fakeRepo) SetReturnRequested(ctx context.Context, orderID, reason string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	if o.ReturnStatus != models.ReturnNone {
		return models.ErrAlreadyRequested
	}
	o.ReturnStatus = models.ReturnRequested
	o.ReturnReason = &reason
	return nil
}

func (f *fakeRepo) UpdateReturnStatus(ctx context.Context, orderID, from, to string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	if o.ReturnStatus != from {
		return models.ErrInvalidTransition
	}
	o.ReturnStatus = to
	if to == models.ReturnCompleted {
		o.Status = models.StatusReturned
		o.PaymentStatus = models.PaymentStatusRefunded
	}
	return nil
}

func (f *fakeRepo) ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListByStore(ctx context.Context, storeID string, page, limit int) ([]*models.Order, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) ListByDelivery(ctx context.Context, deliveryPersonID string, page, limit int) ([]*models.Order, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) ListAll(ctx context.Context, page, limit int) ([]*models.Order, int, error) {
	return nil, 0, nil
}

// fakeCatalog serves stores and products from maps.
type fakeCatalog struct {
	stores   map[string]*models.Store
	products map[string]*models.Product
}

func (f *fakeCatalog) GetStore(ctx context.Context, storeID string) (*models.Store, error) {
	s, ok := f.stores[storeID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return s, nil
}

func (f *fakeCatalog) GetProducts(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	out := make(map[string]*models.Product)
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// fakeBroadcaster records every published event in order.
type fakeBroadcaster struct {
	statuses  []string
	locations [][2]float64
}

func (f *fakeBroadcaster) PublishStatus(orderID, status string) {
	f.statuses = append(f.statuses, status)
}

func (f *fakeBroadcaster) PublishLocation(orderID string, location [2]float64) {
	f.locations = append(f.locations, location)
}

// fakePayment records charges.
type fakePayment struct {
	charges int
}

func (f *fakePayment) ProcessPayment(ctx context.Context, userID string, amount float64, paymentMethodID string) (string, error) {
	f.charges++
	return "pi_test", nil
}

// ----------------------------------------------------------------------------

var (
	mgr     = models.Actor{UserID: "mgr-1", Role: models.RoleStoreManager}
	courier = models.Actor{UserID: "courier-1", Role: models.RoleDelivery}
	admin   = models.Actor{UserID: "adm-1", Role: models.RoleAdmin}
	cust    = models.Actor{UserID: "cust-1", Role: models.RoleCustomer}
)

func newTestService(fr *fakeRepo) (*Service, *fakeCatalog, *fakeBroadcaster) {
	fc := &fakeCatalog{
		stores: map[string]*models.Store{
			"s1": {ID: "s1", ManagerID: "mgr-1"},
		},
		products: map[string]*models.Product{
			"p1": {ID: "p1", Name: "Widget", Price: 10.00},
			"p2": {ID: "p2", Name: "Gadget", Price: 3.50},
		},
	}
	fb := &fakeBroadcaster{}
	svc := NewService(fr, fc, fb, &fakePayment{}, nil, zerolog.Nop())
	return svc, fc, fb
}

func createReq(items ...models.CreateOrderItem) models.CreateOrderRequest {
	return models.CreateOrderRequest{
		StoreID:         "s1",
		Items:           items,
		DeliveryAddress: models.Address{Street: "1 Main St", City: "Springfield", Zip: "12345"},
		PaymentMethod:   models.PaymentCashOnDelivery,
	}
}

func TestCreateOrder(t *testing.T) {
	fr := newFakeRepo()
	fr.inventory[invKey("p1", "s1")] = 2
	svc, _, _ := newTestService(fr)
	ctx := context.Background()

	before := time.Now()
	o, err := svc.CreateOrder(ctx, "cust-1", createReq(models.CreateOrderItem{ProductID: "p1", Quantity: 2}))
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	if o.TotalAmount != 20.00 {
		t.Errorf("TotalAmount = %.2f; want 20.00", o.TotalAmount)
	}
	if o.Status != models.StatusPending {
		t.Errorf("Status = %s; want pending", o.Status)
	}
	if o.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("PaymentStatus = %s; want pending", o.PaymentStatus)
	}
	if got := fr.inventory[invKey("p1", "s1")]; got != 0 {
		t.Errorf("inventory after order = %d; want 0", got)
	}
	if len(o.Items) != 1 || o.Items[0].UnitPrice != 10.00 || o.Items[0].ProductName != "Widget" {
		t.Errorf("line item snapshot = %+v", o.Items)
	}
	eta := o.EstimatedDeliveryTime
	if eta.Before(before.Add(29*time.Minute)) || eta.After(time.Now().Add(31*time.Minute)) {
		t.Errorf("EstimatedDeliveryTime = %v; want ~now+30m", eta)
	}

	// Stock is exhausted: the next order for the same product must fail.
	_, err = svc.CreateOrder(ctx, "cust-2", createReq(models.CreateOrderItem{ProductID: "p1", Quantity: 1}))
	if !models.IsInsufficientStock(err) {
		t.Fatalf("second order: got %v; want InsufficientStockError", err)
	}
	if got := fr.inventory[invKey("p1", "s1")]; got != 0 {
		t.Errorf("failed order mutated inventory: %d", got)
	}
}

func TestCreateOrderAllOrNothing(t *testing.T) {
	fr := newFakeRepo()
	fr.inventory[invKey("p1", "s1")] = 5
	fr.inventory[invKey("p2", "s1")] = 1
	svc, _, _ := newTestService(fr)

	_, err := svc.CreateOrder(context.Background(), "cust-1", createReq(
		models.CreateOrderItem{ProductID: "p1", Quantity: 2},
		models.CreateOrderItem{ProductID: "p2", Quantity: 3}, // not enough
	))
	if !models.IsInsufficientStock(err) {
		t.Fatalf("got %v; want InsufficientStockError", err)
	}
	// The first item's stock must be untouched.
	if got := fr.inventory[invKey("p1", "s1")]; got != 5 {
		t.Errorf("p1 inventory = %d; want 5 (no partial decrement)", got)
	}
	if got := fr.inventory[invKey("p2", "s1")]; got != 1 {
		t.Errorf("p2 inventory = %d; want 1", got)
	}
}

func TestCreateOrderSnapshotsPrice(t *testing.T) {
	fr := newFakeRepo()
	fr.inventory[invKey("p1", "s1")] = 10
	svc, fc, _ := newTestService(fr)
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, "cust-1", createReq(models.CreateOrderItem{ProductID: "p1", Quantity: 1}))
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	// A later catalog price change must not affect the stored order.
	fc.products["p1"].Price = 99.99
	got, err := svc.GetOrderDetails(ctx, o.ID, cust)
	if err != nil {
		t.Fatalf("GetOrderDetails error: %v", err)
	}
	if got.TotalAmount != 10.00 || got.Items[0].UnitPrice != 10.00 {
		t.Errorf("price snapshot leaked: total=%.2f unit=%.2f", got.TotalAmount, got.Items[0].UnitPrice)
	}
}

func TestCreateOrderConcurrentReservation(t *testing.T) {
	const stock = 3
	const attempts = 10

	fr := newFakeRepo()
	fr.inventory[invKey("p1", "s1")] = stock
	svc, _, _ := newTestService(fr)

	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			customer := fmt.Sprintf("cust-%d", i)
			_, err := svc.CreateOrder(context.Background(), customer, createReq(models.CreateOrderItem{ProductID: "p1", Quantity: 1}))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded, rejected := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case models.IsInsufficientStock(err):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != stock || rejected != attempts-stock {
		t.Errorf("succeeded=%d rejected=%d; want %d/%d", succeeded, rejected, stock, attempts-stock)
	}
	if got := fr.inventory[invKey("p1", "s1")]; got != 0 {
		t.Errorf("inventory after contention = %d; want 0, never negative", got)
	}
	if len(fr.orders) != stock {
		t.Errorf("persisted %d orders; want %d", len(fr.orders), stock)
	}
}

func TestCreateOrderUnknownStore(t *testing.T) {
	fr := newFakeRepo()
	svc, _, _ := newTestService(fr)
	req := createReq(models.CreateOrderItem{ProductID: "p1", Quantity: 1})
	req.StoreID = "nope"
	_, err := svc.CreateOrder(context.Background(), "cust-1", req)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("got %v; want ErrNotFound", err)
	}
}

// seedOrder places one pending COD order for cust-1 at s1 and returns it.
func seedOrder(t *testing.T, svc *Service, fr *fakeRepo) *models.Order {
	t.Helper()
	fr.inventory[invKey("p1", "s1")] = 10
	o, err := svc.CreateOrder(context.Background(), "cust-1", createReq(models.CreateOrderItem{ProductID: "p1", Quantity: 1}))
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return o
}

func TestUpdateStatusHappyPath(t *testing.T) {
	fr := newFakeRepo()
	svc, _, fb := newTestService(fr)
	ctx := context.Background()
	o := seedOrder(t, svc, fr)

	if _, err := svc.UpdateStatus(ctx, o.ID, models.StatusProcessing, mgr); err != nil {
		t.Fatalf("pending→processing: %v", err)
	}
	if err := svc.AssignDelivery(ctx, o.ID, "courier-1", mgr); err != nil {
		t.Fatalf("assign courier: %v", err)
	}
	for _, next := range []string{models.StatusPickedUp, models.StatusInTransit} {
		if _, err := svc.UpdateStatus(ctx, o.ID, next, courier); err != nil {
			t.Fatalf("→%s: %v", next, err)
		}
	}

	updated, err := svc.UpdateStatus(ctx, o.ID, models.StatusDelivered, courier)
	if err != nil {
		t.Fatalf("→delivered: %v", err)
	}
	if updated.ActualDeliveryTime == nil {
		t.Error("ActualDeliveryTime not set on delivery")
	}
	if updated.PaymentStatus != models.PaymentStatusCompleted {
		t.Errorf("COD PaymentStatus = %s; want completed", updated.PaymentStatus)
	}

	// Subscribers saw every hop, in order, only after persistence.
	want := []string{models.StatusProcessing, models.StatusPickedUp, models.StatusInTransit, models.StatusDelivered}
	if len(fb.statuses) != len(want) {
		t.Fatalf("broadcast %d events; want %d", len(fb.statuses), len(want))
	}
	for i, s := range want {
		if fb.statuses[i] != s {
			t.Errorf("broadcast[%d] = %s; want %s", i, fb.statuses[i], s)
		}
	}
}

func TestUpdateStatusNotIdempotent(t *testing.T) {
	fr := newFakeRepo()
	svc, _, _ := newTestService(fr)
	ctx := context.Background()
	o := seedOrder(t, svc, fr)

	if _, err := svc.UpdateStatus(ctx, o.ID, models.StatusProcessing, mgr); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	_, err := svc.UpdateStatus(ctx, o.ID, models.StatusProcessing, mgr)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("second identical transition: got %v; want ErrInvalidTransition", err)
	}
}

func TestUpdateStatusForeignManager(t *testing.T) {
	fr := newFakeRepo()
	svc, _, fb := newTestService(fr)
	o := seedOrder(t, svc, fr)

	foreign := models.Actor{UserID: "mgr-2", Role: models.RoleStoreManager}
	_, err := svc.UpdateStatus(context.Background(), o.ID, models.StatusProcessing, foreign)
	if !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("got %v; want ErrForbidden", err)
	}
	if len(fb.statuses) != 0 {
		t.Error("forbidden transition must not broadcast")
	}
}

func TestUpdateStatusSkipsEdge(t *testing.T) {
	fr := newFakeRepo()
	svc, _, _ := newTestService(fr)
	ctx := context.Background()
	o := seedOrder(t, svc, fr)
	if err := svc.AssignDelivery(ctx, o.ID, "courier-1", admin); err != nil {
		t.Fatalf("assign: %v", err)
	}

	// pending → delivered directly is rejected even for the assigned courier.
	_, err := svc.UpdateStatus(ctx, o.ID, models.StatusDelivered, courier)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("got %v; want ErrInvalidTransition", err)
	}
}

func TestAdminCancelThenDeadEnd(t *testing.T) {
	fr := newFakeRepo()
	svc, _, _ := newTestService(fr)
	ctx := context.Background()
	o := seedOrder(t, svc, fr)

	if _, err := svc.UpdateStatus(ctx, o.ID, models.StatusProcessing, mgr); err != nil {
		t.Fatalf("→processing: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, o.ID, models.StatusCancelled, admin); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}

	for _, next := range []string{models.StatusProcessing, models.StatusPickedUp, models.StatusDelivered} {
		if _, err := svc.UpdateStatus(ctx, o.ID, next, admin); !errors.Is(err, models.ErrInvalidTransition) {
			t.Errorf("cancelled→%s: got %v; want ErrInvalidTransition", next, err)
		}
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	fr := newFakeRepo()
	svc, _, _ := newTestService(fr)
	_, err := svc.UpdateStatus(context.Background(), "missing", models.StatusProcessing, admin)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("got %v; want ErrNotFound", err)
	}
}

func TestNoBroadcastWhenPersistenceFails(t *testing.T) {
	fr := newFakeRepo()
	svc, _, fb := newTestService(fr)
	o := seedOrder(t, svc, fr)

	fr.failWrite = errors.New("db down")
	if _, err := svc.UpdateStatus(context.Background(), o.ID, models.StatusProcessing, mgr); err == nil {
		t.Fatal("expected persistence error")
	}
	if len(fb.statuses) != 0 {
		t.Error("event broadcast for uncommitted state")
	}
}

// deliverOrder drives a seeded order all the way to delivered.
func deliverOrder(t *testing.T, svc *Service, fr *fakeRepo) *models.Order {
	t.Helper()
	ctx := context.Background()
	o := seedOrder(t, svc, fr)
	if _, err := svc.UpdateStatus(ctx, o.ID, models.StatusProcessing, mgr); err != nil {
		t.Fatalf("→processing: %v", err)
	}
	if err := svc.AssignDelivery(ctx, o.ID, "courier-1", mgr); err != nil {
		t.Fatalf("assign: %v", err)
	}
	for _, next := range []string{models.StatusPickedUp, models.StatusInTransit, models.StatusDelivered} {
		if _, err := svc.UpdateStatus(ctx, o.ID, next, courier); err != nil {
			t.Fatalf("→%s: %v", next, err)
		}
	}
	return o
}

func TestRateOrder(t *testing.T) {
	fr := newFakeRepo()
	svc, _, _ := newTestService(fr)
	ctx := context.Background()
	o := deliverOrder(t, svc, fr)

	five := 5
	req := models.RateOrderRequest{StoreRating: &five, DeliveryRating: &five}

	// Only the owning customer may rate.
	stranger := models.Actor{UserID: "cust-2", Role: models.RoleCustomer}
	if err := svc.RateOrder(ctx, o.ID, stranger, req); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("stranger rating: got %v; want ErrForbidden", err)
	}

	if err := svc.RateOrder(ctx, o.ID, cust, req); err != nil {
		t.Fatalf("RateOrder: %v", err)
	}
	// Exactly once.
	if err := svc.RateOrder(ctx, o.ID, cust, req); !errors.Is(err, models.ErrAlreadyRated) {
		t.Fatalf("second rating: got %v; want ErrAlreadyRated", err)
	}
}

func TestRateOrderBeforeDelivery(t *testing.T) {
	fr := newFakeRepo()
	svc, _, _ := newTestService(fr)
	o := seedOrder(t, svc, fr)

	five := 5
	err := svc.RateOrder(context.Background(), o.ID, cust, models.RateOrderRequest{StoreRating: &five})
	if !errors.Is(err, models.ErrOrderNotDelivered) {
		t.Fatalf("got %v; want ErrOrderNotDelivered", err)
	}
}

func TestDeliveryRatingRequiresAssignment(t *testing.T) {
	fr := newFakeRepo()
	svc, _, _ := newTestService(fr)
	o := seedOrder(t, svc, fr)
	// Force delivered state without an assigned courier.
	fr.orders[o.ID].Status = models.StatusDelivered

	five := 5
	err := svc.RateOrder(context.Background(), o.ID, cust, models.RateOrderRequest{DeliveryRating: &five})
	if !errors.Is(err, models.ErrNoDeliveryAssigned) {
		t.Fatalf("got %v; want ErrNoDeliveryAssigned", err)
	}
}

func TestRequestReturn(t *testing.T) {
	fr := newFakeRepo()
	svc, _, _ := newTestService(fr)
	ctx := context.Background()
	o := deliverOrder(t, svc, fr)

	req := models.ReturnOrderRequest{Reason: "damaged"}

	stranger := models.Actor{UserID: "cust-2", Role: models.RoleCustomer}
	if err := svc.RequestReturn(ctx, o.ID, stranger, req); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("stranger return: got %v; want ErrForbidden", err)
	}

	if err := svc.RequestReturn(ctx, o.ID, cust, req); err != nil {
		t.Fatalf("RequestReturn: %v", err)
	}
	if err := svc.RequestReturn(ctx, o.ID, cust, req); !errors.Is(err, models.ErrAlreadyRequested) {
		t.Fatalf("second return: got %v; want ErrAlreadyRequested", err)
	}
}

func TestReturnFlowCompletes(t *testing.T) {
	fr := newFakeRepo()
	svc, _, fb := newTestService(fr)
	ctx := context.Background()
	o := deliverOrder(t, svc, fr)

	if err := svc.RequestReturn(ctx, o.ID, cust, models.ReturnOrderRequest{Reason: "damaged"}); err != nil {
		t.Fatalf("RequestReturn: %v", err)
	}

	// Out-of-order flow steps are rejected.
	if err := svc.UpdateReturnStatus(ctx, o.ID, models.ReturnCompleted, admin); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("requested→completed: got %v; want ErrInvalidTransition", err)
	}

	for _, next := range []string{models.ReturnApproved, models.ReturnProcessing, models.ReturnCompleted} {
		if err := svc.UpdateReturnStatus(ctx, o.ID, next, admin); err != nil {
			t.Fatalf("return →%s: %v", next, err)
		}
	}

	got := fr.orders[o.ID]
	if got.Status != models.StatusReturned {
		t.Errorf("order status = %s; want returned", got.Status)
	}
	if got.PaymentStatus != models.PaymentStatusRefunded {
		t.Errorf("payment status = %s; want refunded", got.PaymentStatus)
	}
	if last := fb.statuses[len(fb.statuses)-1]; last != models.StatusReturned {
		t.Errorf("last broadcast = %s; want returned", last)
	}
}

func TestGetOrderDetailsGate(t *testing.T) {
	fr := newFakeRepo()
	svc, _, _ := newTestService(fr)
	ctx := context.Background()
	o := seedOrder(t, svc, fr)

	if _, err := svc.GetOrderDetails(ctx, o.ID, cust); err != nil {
		t.Errorf("owner read: %v", err)
	}
	if _, err := svc.GetOrderDetails(ctx, o.ID, admin); err != nil {
		t.Errorf("admin read: %v", err)
	}
	stranger := models.Actor{UserID: "cust-2", Role: models.RoleCustomer}
	if _, err := svc.GetOrderDetails(ctx, o.ID, stranger); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("stranger read: got %v; want ErrForbidden", err)
	}
	if err := svc.CanRead(ctx, o.ID, stranger); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("CanRead stranger: got %v; want ErrForbidden", err)
	}
}
