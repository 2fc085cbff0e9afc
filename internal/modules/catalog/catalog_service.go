package catalog

import (
	"context"
	"fmt"

	"marketdash/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ServiceInterface defines the contract for the catalog service. GetStore and
// GetProducts are also what the order module consumes for ownership checks
// and price snapshots.
type ServiceInterface interface {
	CreateStore(ctx context.Context, managerID string, req models.CreateStoreRequest) (*models.Store, error)
	GetStore(ctx context.Context, storeID string) (*models.Store, error)
	ListStores(ctx context.Context, page, limit int) ([]*models.Store, int, error)

	AddProduct(ctx context.Context, storeID string, actor models.Actor, req models.CreateProductRequest) (*models.Product, error)
	GetProducts(ctx context.Context, ids []string) (map[string]*models.Product, error)
	ListStoreProducts(ctx context.Context, storeID string) ([]*models.Product, error)

	SetInventory(ctx context.Context, productID string, actor models.Actor, req models.SetInventoryRequest) error
}

// Service implements the catalog service logic.
type Service struct {
	repo   RepositoryInterface
	logger zerolog.Logger
}

// NewService creates a new catalog service.
func NewService(repo RepositoryInterface, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *Service) CreateStore(ctx context.Context, managerID string, req models.CreateStoreRequest) (*models.Store, error) {
	store := &models.Store{
		ID:        uuid.NewString(),
		ManagerID: managerID,
		Name:      req.Name,
		Address:   req.Address,
	}
	if err := s.repo.CreateStore(ctx, store); err != nil {
		return nil, fmt.Errorf("service.CreateStore: %w", err)
	}
	s.logger.Info().Str("store_id", store.ID).Str("manager_id", managerID).Msg("store created")
	return store, nil
}

func (s *Service) GetStore(ctx context.Context, storeID string) (*models.Store, error) {
	return s.repo.FindStoreByID(ctx, storeID)
}

func (s *Service) ListStores(ctx context.Context, page, limit int) ([]*models.Store, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListStores(ctx, page, limit)
}

// AddProduct creates the product and stocks it at the manager's store in one
// call. Only the owning manager (or an admin) may add products.
func (s *Service) AddProduct(ctx context.Context, storeID string, actor models.Actor, req models.CreateProductRequest) (*models.Product, error) {
	store, err := s.repo.FindStoreByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && store.ManagerID != actor.UserID {
		return nil, models.ErrForbidden
	}

	p := &models.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("service.AddProduct: %w", err)
	}
	if err := s.repo.UpsertInventory(ctx, p.ID, storeID, req.Quantity); err != nil {
		return nil, fmt.Errorf("service.AddProduct: stock: %w", err)
	}
	return p, nil
}

func (s *Service) GetProducts(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	return s.repo.FindProductsByIDs(ctx, ids)
}

func (s *Service) ListStoreProducts(ctx context.Context, storeID string) ([]*models.Product, error) {
	if _, err := s.repo.FindStoreByID(ctx, storeID); err != nil {
		return nil, err
	}
	return s.repo.ListStoreProducts(ctx, storeID)
}

// SetInventory replaces the stocked quantity of a product at the actor's
// store.
func (s *Service) SetInventory(ctx context.Context, productID string, actor models.Actor, req models.SetInventoryRequest) error {
	store, err := s.repo.FindStoreByID(ctx, req.StoreID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleAdmin && store.ManagerID != actor.UserID {
		return models.ErrForbidden
	}
	return s.repo.UpsertInventory(ctx, productID, req.StoreID, req.Quantity)
}
