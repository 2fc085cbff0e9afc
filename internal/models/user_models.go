package models

import "time"

// User roles.
const (
	RoleCustomer     = "customer"
	RoleStoreManager = "store_manager"
	RoleDelivery     = "delivery"
	RoleAdmin        = "admin"
)

// User represents any platform actor; the role field determines what they may
// do. Delivery users additionally carry their last reported coordinates.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	LastLng      *float64   `json:"last_lng,omitempty"`
	LastLat      *float64   `json:"last_lat,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Actor is the authenticated identity attached to each request or realtime
// connection. It is the input to every role/ownership check.
type Actor struct {
	UserID string
	Role   string
}

// RegisterRequest represents the data needed to create an account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=customer store_manager delivery"`
}

// LoginRequest represents the data needed to log in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned on successful registration or login.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
