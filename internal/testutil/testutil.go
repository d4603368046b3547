// Package testutil provides isolated databases, fixtures and a fake payment gateway for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"codehut/internal/client"
	"codehut/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	KeyID         = "rzp_test_key"
	KeySecret     = "rzp_test_secret"
	WebhookSecret = "rzp_webhook_secret"
)

// NewDB opens a private in-memory SQLite database with the schema applied.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := client.InitDatabase("sqlite://" + dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// CreateUser inserts an active user with the given username.
func CreateUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         model.RoleUser,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateSnippet inserts an approved snippet authored by author at the given price.
func CreateSnippet(t *testing.T, db *gorm.DB, author *model.User, price string) *model.Snippet {
	t.Helper()

	snippet := &model.Snippet{
		ID:         uuid.NewString(),
		Title:      "Snippet by " + author.Username,
		Code:       "console.log('hello from " + author.Username + "')",
		Price:      decimal.RequireFromString(price),
		Currency:   "INR",
		AuthorID:   author.ID,
		AuthorName: author.Username,
		Tags:       []string{"demo"},
		Language:   "javascript",
		Status:     model.SnippetStatusApproved,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, db.Create(snippet).Error)
	return snippet
}

// FakeRazorpay issues sequential order ids and verifies signatures with the test secrets.
type FakeRazorpay struct {
	mu       sync.Mutex
	seq      int
	Requests []*client.CreateOrderRequest
	Err      error
}

func (f *FakeRazorpay) CreateOrder(_ context.Context, req *client.CreateOrderRequest) (*client.CreateOrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	f.seq++
	f.Requests = append(f.Requests, req)
	return &client.CreateOrderResponse{
		OrderID:  fmt.Sprintf("order_test_%d", f.seq),
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Status:   "created",
	}, nil
}

func (f *FakeRazorpay) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return client.VerifySignature(KeySecret, []byte(client.PaymentSignaturePayload(orderID, paymentID)), signature)
}

func (f *FakeRazorpay) VerifyWebhookSignature(body []byte, signature string) bool {
	return client.VerifySignature(WebhookSecret, body, signature)
}

func (f *FakeRazorpay) KeyID() string {
	return KeyID
}

func (f *FakeRazorpay) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

// SignPayment returns the checkout signature the provider would send for the pair.
func SignPayment(orderID, paymentID string) string {
	return client.Sign(KeySecret, []byte(client.PaymentSignaturePayload(orderID, paymentID)))
}

func SignWebhook(body []byte) string {
	return client.Sign(WebhookSecret, body)
}
