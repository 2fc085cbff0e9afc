package models

import "time"

// Store represents a fulfilling location run by a store manager.
type Store struct {
	ID        string    `json:"id"`
	ManagerID string    `json:"manager_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a catalog entry. Price is the current catalog price; orders
// snapshot it into their line items at creation time.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InventoryEntry is the stocked quantity of one product at one store.
// Quantity never goes below zero; decrements are conditional at write time.
type InventoryEntry struct {
	ProductID string    `json:"product_id"`
	StoreID   string    `json:"store_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateStoreRequest represents the data needed to open a store.
type CreateStoreRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// CreateProductRequest represents the data needed to add a product to a store.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Quantity    int     `json:"quantity" validate:"min=0"`
}

// SetInventoryRequest replaces the stocked quantity for a (product, store) pair.
type SetInventoryRequest struct {
	StoreID  string `json:"store_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

// ErrorResponse is the uniform error body returned by all handlers.
type ErrorResponse struct {
	Message string `json:"message"`
}
