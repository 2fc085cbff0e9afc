package notify

import (
	"context"
	"fmt"

	"marketdash/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"
)

// UserReader resolves a user id to their record; the users repository
// satisfies it.
type UserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// sendEmailAPI is the slice of the SES client the notifier calls.
type sendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailNotifier sends delivery receipts through Amazon SES. Sending is
// best-effort; the order flow never waits on or fails with email delivery.
type EmailNotifier struct {
	client sendEmailAPI
	users  UserReader
	sender string
	logger zerolog.Logger
}

// NewEmailNotifier builds the SES client from the ambient AWS credential
// chain.
func NewEmailNotifier(ctx context.Context, region, sender string, users UserReader, logger zerolog.Logger) (*EmailNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("notify: load aws config: %w", err)
	}
	return &EmailNotifier{
		client: sesv2.NewFromConfig(cfg),
		users:  users,
		sender: sender,
		logger: logger.With().Str("component", "notify").Logger(),
	}, nil
}

// SendDeliveryReceipt emails the customer a summary of their delivered order.
func (n *EmailNotifier) SendDeliveryReceipt(ctx context.Context, o *models.Order) error {
	customer, err := n.users.FindByID(ctx, o.CustomerID)
	if err != nil {
		return fmt.Errorf("notify: resolve customer: %w", err)
	}

	subject := fmt.Sprintf("Your order %s has been delivered", o.ID)
	body := fmt.Sprintf(
		"Your order from %s was delivered at %s.\n\nTotal: $%.2f\nPayment: %s (%s)\n\nThank you for shopping with us.",
		o.StoreID,
		o.ActualDeliveryTime.Format("Jan 2, 2006 15:04"),
		o.TotalAmount,
		o.PaymentMethod,
		o.PaymentStatus,
	)

	_, err = n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.sender),
		Destination: &types.Destination{
			ToAddresses: []string{customer.Email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: send receipt: %w", err)
	}
	n.logger.Debug().Str("order_id", o.ID).Msg("delivery receipt sent")
	return nil
}
