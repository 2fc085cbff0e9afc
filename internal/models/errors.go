package models

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("requested resource not found")
var ErrForbidden = errors.New("user does not have permission to access this resource")
var ErrConflict = errors.New("resource conflict, item already exists")
var ErrInvalidToken = errors.New("token not found or expired")
var ErrInvalidCredentials = errors.New("invalid credentials") // email or password provided does not match database record
var ErrEmailTaken = errors.New("email already registered")

// ErrInvalidTransition indicates the requested status change is not an edge of
// the order state machine, or the order's current status no longer matched the
// expected from-state at write time.
var ErrInvalidTransition = errors.New("order status transition not allowed")

var ErrAlreadyRated = errors.New("order has already been rated")
var ErrAlreadyRequested = errors.New("return has already been requested for this order")
var ErrOrderNotDelivered = errors.New("order has not been delivered yet")
var ErrNoDeliveryAssigned = errors.New("order has no delivery person assigned")

// InsufficientStockError names the product whose reservation failed so the
// client can surface "Not enough <product> in stock".
type InsufficientStockError struct {
	Product string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough %s in stock", e.Product)
}

// IsInsufficientStock reports whether err is a failed inventory reservation.
func IsInsufficientStock(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}
