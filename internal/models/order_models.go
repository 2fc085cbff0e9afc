package models

import "time"

// Order statuses. Transitions between them are governed by the order module's
// state machine; cancelled is terminal, delivered is terminal except for the
// return flow, which may end in returned.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusPickedUp   = "picked_up"
	StatusInTransit  = "in_transit"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
	StatusReturned   = "returned"
)

// Payment methods and payment statuses.
const (
	PaymentCashOnDelivery = "cod"
	PaymentOnline         = "online"

	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Return request statuses.
const (
	ReturnNone       = "none"
	ReturnRequested  = "requested"
	ReturnApproved   = "approved"
	ReturnProcessing = "processing"
	ReturnCompleted  = "completed"
	ReturnRejected   = "rejected"
)

// OrderItem is a line item with the unit price captured at order time.
// UnitPrice is a snapshot; later catalog price changes never touch it.
type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Address is the denormalized shipping address snapshot stored on the order.
type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	Zip     string `json:"zip" validate:"required"`
	Country string `json:"country,omitempty"`
}

// Order represents one customer purchase fulfilled by one store and,
// once assigned, one delivery person.
type Order struct {
	ID                    string      `json:"id"`
	CustomerID            string      `json:"customer_id"`
	StoreID               string      `json:"store_id"`
	DeliveryPersonID      *string     `json:"delivery_person_id,omitempty"`
	Items                 []OrderItem `json:"items"`
	TotalAmount           float64     `json:"total_amount"`
	Status                string      `json:"status"`
	PaymentMethod         string      `json:"payment_method"`
	PaymentStatus         string      `json:"payment_status"`
	DeliveryAddress       Address     `json:"delivery_address"`
	EstimatedDeliveryTime time.Time   `json:"estimated_delivery_time"`
	ActualDeliveryTime    *time.Time  `json:"actual_delivery_time,omitempty"`
	StoreRating           *int        `json:"store_rating,omitempty"`
	DeliveryRating        *int        `json:"delivery_rating,omitempty"`
	RatingComment         *string     `json:"rating_comment,omitempty"`
	ReturnStatus          string      `json:"return_status"`
	ReturnReason          *string     `json:"return_reason,omitempty"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

// CreateOrderItem is one requested line in a create-order call.
type CreateOrderItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// CreateOrderRequest represents the data needed to place a new order.
type CreateOrderRequest struct {
	StoreID         string            `json:"store_id" validate:"required"`
	Items           []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress Address           `json:"delivery_address" validate:"required"`
	PaymentMethod   string            `json:"payment_method" validate:"required,oneof=cod online"`
	PaymentMethodID string            `json:"payment_method_id,omitempty"`
}

// UpdateStatusRequest carries the target status for a transition.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=processing picked_up in_transit delivered cancelled"`
}

// AssignDeliveryRequest attaches a delivery person to an order.
type AssignDeliveryRequest struct {
	DeliveryPersonID string `json:"delivery_person_id" validate:"required"`
}

// RateOrderRequest represents the data needed to rate a delivered order.
type RateOrderRequest struct {
	StoreRating    *int   `json:"store_rating,omitempty" validate:"omitempty,min=1,max=5"`
	DeliveryRating *int   `json:"delivery_rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment        string `json:"comment,omitempty"`
}

// ReturnOrderRequest represents the data needed to request a return.
type ReturnOrderRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// LocationUpdateRequest is the delivery person's coordinate submission.
// Location is [lng, lat], matching the wire format of the realtime channel.
type LocationUpdateRequest struct {
	OrderID  string     `json:"order_id" validate:"required"`
	Location [2]float64 `json:"location" validate:"required"`
}
