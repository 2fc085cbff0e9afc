package catalog

import (
	"context"
	"errors"
	"fmt"

	"marketdash/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the catalog repository.
type RepositoryInterface interface {
	CreateStore(ctx context.Context, s *models.Store) error
	FindStoreByID(ctx context.Context, storeID string) (*models.Store, error)
	ListStores(ctx context.Context, page, limit int) ([]*models.Store, int, error)

	CreateProduct(ctx context.Context, p *models.Product) error
	FindProductsByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error)
	ListStoreProducts(ctx context.Context, storeID string) ([]*models.Product, error)

	// UpsertInventory replaces the stocked quantity for a (product, store)
	// pair; order placement decrements it through the order repository's
	// conditional update, never through this method.
	UpsertInventory(ctx context.Context, productID, storeID string, quantity int) error
	GetInventory(ctx context.Context, productID, storeID string) (*models.InventoryEntry, error)
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new catalog repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) CreateStore(ctx context.Context, s *models.Store) error {
	const query = `
		INSERT INTO stores (id, manager_id, name, address)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, s.ID, s.ManagerID, s.Name, s.Address).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrConflict
		}
		return fmt.Errorf("catalog.CreateStore: %w", err)
	}
	return nil
}

func (r *Repository) FindStoreByID(ctx context.Context, storeID string) (*models.Store, error) {
	const query = `
		SELECT id, manager_id, name, address, created_at, updated_at
		FROM stores WHERE id = $1`
	s := &models.Store{}
	err := r.db.QueryRow(ctx, query, storeID).Scan(
		&s.ID, &s.ManagerID, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("catalog.FindStoreByID: %w", err)
	}
	return s, nil
}

func (r *Repository) ListStores(ctx context.Context, page, limit int) ([]*models.Store, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM stores`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog.ListStores: count: %w", err)
	}

	const query = `
		SELECT id, manager_id, name, address, created_at, updated_at
		FROM stores ORDER BY created_at LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog.ListStores: %w", err)
	}
	defer rows.Close()

	var out []*models.Store
	for rows.Next() {
		s := &models.Store{}
		if err := rows.Scan(&s.ID, &s.ManagerID, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("catalog.ListStores: scan: %w", err)
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *Repository) CreateProduct(ctx context.Context, p *models.Product) error {
	const query = `
		INSERT INTO products (id, name, description, price)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, p.ID, p.Name, p.Description, p.Price).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog.CreateProduct: %w", err)
	}
	return nil
}

func (r *Repository) FindProductsByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	const query = `
		SELECT id, name, description, price, created_at, updated_at
		FROM products WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog.FindProductsByIDs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*models.Product, len(ids))
	for rows.Next() {
		p := &models.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("catalog.FindProductsByIDs: scan: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *Repository) ListStoreProducts(ctx context.Context, storeID string) ([]*models.Product, error) {
	const query = `
		SELECT p.id, p.name, p.description, p.price, p.created_at, p.updated_at
		FROM products p
		JOIN inventory i ON i.product_id = p.id
		WHERE i.store_id = $1
		ORDER BY p.name`
	rows, err := r.db.Query(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("catalog.ListStoreProducts: %w", err)
	}
	defer rows.Close()

	var out []*models.Product
	for rows.Next() {
		p := &models.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("catalog.ListStoreProducts: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) UpsertInventory(ctx context.Context, productID, storeID string, quantity int) error {
	const query = `
		INSERT INTO inventory (product_id, store_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, store_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	if _, err := r.db.Exec(ctx, query, productID, storeID, quantity); err != nil {
		return fmt.Errorf("catalog.UpsertInventory: %w", err)
	}
	return nil
}

func (r *Repository) GetInventory(ctx context.Context, productID, storeID string) (*models.InventoryEntry, error) {
	const query = `
		SELECT product_id, store_id, quantity, updated_at
		FROM inventory WHERE product_id = $1 AND store_id = $2`
	e := &models.InventoryEntry{}
	err := r.db.QueryRow(ctx, query, productID, storeID).Scan(&e.ProductID, &e.StoreID, &e.Quantity, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("catalog.GetInventory: %w", err)
	}
	return e, nil
}
