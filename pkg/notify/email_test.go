package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketdash/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/rs/zerolog"
)

type fakeUsers struct {
	user *models.User
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, models.ErrNotFound
	}
	return f.user, nil
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{}, nil
}

func deliveredOrder() *models.Order {
	now := time.Now()
	return &models.Order{
		ID:                 "o1",
		CustomerID:         "cust-1",
		StoreID:            "s1",
		Status:             models.StatusDelivered,
		TotalAmount:        20.00,
		PaymentMethod:      models.PaymentCashOnDelivery,
		PaymentStatus:      models.PaymentStatusCompleted,
		ActualDeliveryTime: &now,
	}
}

func TestSendDeliveryReceipt(t *testing.T) {
	ses := &fakeSES{}
	n := &EmailNotifier{
		client: ses,
		users:  &fakeUsers{user: &models.User{ID: "cust-1", Email: "ada@example.com"}},
		sender: "noreply@marketdash.example",
		logger: zerolog.Nop(),
	}

	if err := n.SendDeliveryReceipt(context.Background(), deliveredOrder()); err != nil {
		t.Fatalf("SendDeliveryReceipt: %v", err)
	}
	if ses.input == nil {
		t.Fatal("no email sent")
	}
	if got := *ses.input.FromEmailAddress; got != "noreply@marketdash.example" {
		t.Errorf("sender = %s", got)
	}
	if got := ses.input.Destination.ToAddresses; len(got) != 1 || got[0] != "ada@example.com" {
		t.Errorf("recipients = %v; want the customer's email", got)
	}
}

func TestSendDeliveryReceiptUnknownCustomer(t *testing.T) {
	ses := &fakeSES{}
	n := &EmailNotifier{client: ses, users: &fakeUsers{}, sender: "noreply@marketdash.example", logger: zerolog.Nop()}

	if err := n.SendDeliveryReceipt(context.Background(), deliveredOrder()); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("got %v; want ErrNotFound", err)
	}
	if ses.input != nil {
		t.Error("email sent for unresolvable customer")
	}
}

func TestSendDeliveryReceiptSendFailure(t *testing.T) {
	sesErr := errors.New("ses throttled")
	n := &EmailNotifier{
		client: &fakeSES{err: sesErr},
		users:  &fakeUsers{user: &models.User{ID: "cust-1", Email: "ada@example.com"}},
		sender: "noreply@marketdash.example",
		logger: zerolog.Nop(),
	}

	if err := n.SendDeliveryReceipt(context.Background(), deliveredOrder()); !errors.Is(err, sesErr) {
		t.Fatalf("got %v; want wrapped send error", err)
	}
}
