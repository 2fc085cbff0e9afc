package payment

import (
	"context"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// ServiceInterface defines the contract for a payment processing service.
type ServiceInterface interface {
	ProcessPayment(ctx context.Context, userID string, amount float64, paymentMethodID string) (string, error)
}

// StripeService charges online orders through Stripe payment intents.
type StripeService struct{}

// NewStripeService configures the Stripe client with the account key.
func NewStripeService(apiKey string) *StripeService {
	stripe.Key = apiKey
	return &StripeService{}
}

// ProcessPayment creates a payment intent for the order total and returns its
// id. Confirmation happens client-side, so a returned id does not yet mean
// captured funds.
func (s *StripeService) ProcessPayment(ctx context.Context, userID string, amount float64, paymentMethodID string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("invalid payment amount: %.2f", amount)
	}

	params := &stripe.PaymentIntentParams{
		Params:        stripe.Params{Context: ctx},
		Amount:        stripe.Int64(int64(math.Round(amount * 100))),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethod: stripe.String(paymentMethodID),
	}
	params.AddMetadata("user_id", userID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return pi.ID, nil
}
