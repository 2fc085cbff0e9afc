package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketdash/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the order repository.
type RepositoryInterface interface {
	// CreateWithReservation atomically decrements inventory for every line
	// item and inserts the order. If any item cannot be reserved, nothing is
	// written and an *models.InsufficientStockError is returned.
	CreateWithReservation(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	// UpdateStatus performs a compare-and-set on (id, expected current
	// status). Returns ErrInvalidTransition if the order exists but its
	// status no longer matches from, ErrNotFound if the order is absent.
	UpdateStatus(ctx context.Context, orderID, from, to string, deliveredAt *time.Time, paymentStatus *string) error
	AssignDelivery(ctx context.Context, orderID, deliveryPersonID string) error
	// SetRating writes the ratings only if none have been recorded yet.
	SetRating(ctx context.Context, orderID string, req models.RateOrderRequest) error
	// SetReturnRequested flips return_status none → requested exactly once.
	SetReturnRequested(ctx context.Context, orderID, reason string) error
	// UpdateReturnStatus moves the return flow forward with the same
	// compare-and-set discipline as order statuses. Completing a return also
	// moves the order itself to returned.
	UpdateReturnStatus(ctx context.Context, orderID, from, to string) error
	ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error)
	ListByStore(ctx context.Context, storeID string, page, limit int) ([]*models.Order, int, error)
	ListByDelivery(ctx context.Context, deliveryPersonID string, page, limit int) ([]*models.Order, int, error)
	ListAll(ctx context.Context, page, limit int) ([]*models.Order, int, error)
}

// Repository implements the RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new order repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const orderColumns = `
	id, customer_id, store_id, delivery_person_id, total_amount, status,
	payment_method, payment_status,
	address_street, address_city, address_zip, address_country,
	estimated_delivery_time, actual_delivery_time,
	store_rating, delivery_rating, rating_comment,
	return_status, return_reason, created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.StoreID, &o.DeliveryPersonID, &o.TotalAmount, &o.Status,
		&o.PaymentMethod, &o.PaymentStatus,
		&o.DeliveryAddress.Street, &o.DeliveryAddress.City, &o.DeliveryAddress.Zip, &o.DeliveryAddress.Country,
		&o.EstimatedDeliveryTime, &o.ActualDeliveryTime,
		&o.StoreRating, &o.DeliveryRating, &o.RatingComment,
		&o.ReturnStatus, &o.ReturnReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

// CreateWithReservation runs the whole reservation inside one transaction.
// Each decrement is conditional on quantity >= requested at write time, so two
// concurrent orders can never both take the last unit; the loser rolls back
// with InsufficientStock and no partial decrement survives.
func (r *Repository) CreateWithReservation(ctx context.Context, o *models.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("order.CreateWithReservation: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const reserve = `
		UPDATE inventory
		SET quantity = quantity - $3, updated_at = now()
		WHERE product_id = $1 AND store_id = $2 AND quantity >= $3`
	for _, item := range o.Items {
		cmd, err := tx.Exec(ctx, reserve, item.ProductID, o.StoreID, item.Quantity)
		if err != nil {
			return fmt.Errorf("order.CreateWithReservation: reserve %s: %w", item.ProductID, err)
		}
		if cmd.RowsAffected() == 0 {
			return &models.InsufficientStockError{Product: item.ProductName}
		}
	}

	const insertOrder = `
		INSERT INTO orders (
			id, customer_id, store_id, total_amount, status,
			payment_method, payment_status,
			address_street, address_city, address_zip, address_country,
			estimated_delivery_time, return_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		RETURNING created_at, updated_at`
	err = tx.QueryRow(ctx, insertOrder,
		o.ID, o.CustomerID, o.StoreID, o.TotalAmount, o.Status,
		o.PaymentMethod, o.PaymentStatus,
		o.DeliveryAddress.Street, o.DeliveryAddress.City, o.DeliveryAddress.Zip, o.DeliveryAddress.Country,
		o.EstimatedDeliveryTime, o.ReturnStatus,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("order.CreateWithReservation: insert order: %w", err)
	}

	const insertItem = `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`
	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(insertItem, o.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice)
	}
	results := tx.SendBatch(ctx, batch)
	for range o.Items {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("order.CreateWithReservation: insert item: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("order.CreateWithReservation: close batch: %w", err)
	}

	return tx.Commit(ctx)
}

// FindByID loads an order together with its line items.
func (r *Repository) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("order.FindByID: %w", err)
	}

	const itemsQuery = `
		SELECT product_id, product_name, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY product_id`
	rows, err := r.db.Query(ctx, itemsQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("order.FindByID: items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("order.FindByID: scan item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order.FindByID: items: %w", err)
	}
	return o, nil
}

// UpdateStatus writes the new status only when the stored status still equals
// from. The losing side of a race sees zero rows affected and gets
// ErrInvalidTransition, never a silent overwrite.
func (r *Repository) UpdateStatus(ctx context.Context, orderID, from, to string, deliveredAt *time.Time, paymentStatus *string) error {
	const query = `
		UPDATE orders
		SET status = $3,
		    actual_delivery_time = COALESCE($4, actual_delivery_time),
		    payment_status = COALESCE($5, payment_status),
		    updated_at = now()
		WHERE id = $1 AND status = $2`
	cmd, err := r.db.Exec(ctx, query, orderID, from, to, deliveredAt, paymentStatus)
	if err != nil {
		return fmt.Errorf("order.UpdateStatus: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return r.missOrStale(ctx, orderID)
	}
	return nil
}

// missOrStale distinguishes a missing order from a stale from-state after a
// conditional update matched nothing.
func (r *Repository) missOrStale(ctx context.Context, orderID string) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return fmt.Errorf("order.missOrStale: %w", err)
	}
	if !exists {
		return models.ErrNotFound
	}
	return models.ErrInvalidTransition
}

// AssignDelivery sets the delivery person while the order is still being
// prepared. Reassignment after pickup is not allowed.
func (r *Repository) AssignDelivery(ctx context.Context, orderID, deliveryPersonID string) error {
	const query = `
		UPDATE orders
		SET delivery_person_id = $2, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'processing')`
	cmd, err := r.db.Exec(ctx, query, orderID, deliveryPersonID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign key: unknown courier
			return models.ErrNotFound
		}
		return fmt.Errorf("order.AssignDelivery: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return r.missOrStale(ctx, orderID)
	}
	return nil
}

// SetRating is one-shot: it matches only while no rating has been recorded.
func (r *Repository) SetRating(ctx context.Context, orderID string, req models.RateOrderRequest) error {
	const query = `
		UPDATE orders
		SET store_rating = $2, delivery_rating = $3, rating_comment = $4, updated_at = now()
		WHERE id = $1 AND store_rating IS NULL AND delivery_rating IS NULL`
	var comment *string
	if req.Comment != "" {
		comment = &req.Comment
	}
	cmd, err := r.db.Exec(ctx, query, orderID, req.StoreRating, req.DeliveryRating, comment)
	if err != nil {
		return fmt.Errorf("order.SetRating: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrAlreadyRated
	}
	return nil
}

// SetReturnRequested is one-shot: it matches only while return_status is none.
func (r *Repository) SetReturnRequested(ctx context.Context, orderID, reason string) error {
	const query = `
		UPDATE orders
		SET return_status = 'requested', return_reason = $2, updated_at = now()
		WHERE id = $1 AND return_status = 'none'`
	cmd, err := r.db.Exec(ctx, query, orderID, reason)
	if err != nil {
		return fmt.Errorf("order.SetReturnRequested: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrAlreadyRequested
	}
	return nil
}

// UpdateReturnStatus advances the return flow; completing it flips the order
// status to returned in the same statement.
func (r *Repository) UpdateReturnStatus(ctx context.Context, orderID, from, to string) error {
	const query = `
		UPDATE orders
		SET return_status = $3,
		    status = CASE WHEN $3 = 'completed' THEN 'returned' ELSE status END,
		    payment_status = CASE WHEN $3 = 'completed' THEN 'refunded' ELSE payment_status END,
		    updated_at = now()
		WHERE id = $1 AND return_status = $2`
	cmd, err := r.db.Exec(ctx, query, orderID, from, to)
	if err != nil {
		return fmt.Errorf("order.UpdateReturnStatus: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return r.missOrStale(ctx, orderID)
	}
	return nil
}

func (r *Repository) list(ctx context.Context, where string, arg interface{}, page, limit int) ([]*models.Order, int, error) {
	offset := (page - 1) * limit

	countQuery := `SELECT count(*) FROM orders`
	listQuery := `SELECT ` + orderColumns + ` FROM orders`
	args := []interface{}{}
	if where != "" {
		countQuery += ` WHERE ` + where
		listQuery += ` WHERE ` + where
		args = append(args, arg)
	}
	listQuery += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("order.list: count: %w", err)
	}

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("order.list: %w", err)
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("order.list: scan: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("order.list: %w", err)
	}
	return out, total, nil
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error) {
	return r.list(ctx, `customer_id = $1`, customerID, page, limit)
}

func (r *Repository) ListByStore(ctx context.Context, storeID string, page, limit int) ([]*models.Order, int, error) {
	return r.list(ctx, `store_id = $1`, storeID, page, limit)
}

func (r *Repository) ListByDelivery(ctx context.Context, deliveryPersonID string, page, limit int) ([]*models.Order, int, error) {
	return r.list(ctx, `delivery_person_id = $1`, deliveryPersonID, page, limit)
}

func (r *Repository) ListAll(ctx context.Context, page, limit int) ([]*models.Order, int, error) {
	return r.list(ctx, "", nil, page, limit)
}
