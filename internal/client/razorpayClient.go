package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"codehut/internal/config"

	razorpay "github.com/razorpay/razorpay-go"
)

type RazorpayClient interface {
	// CreateOrder registers an order with the provider and returns its order id.
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
	KeyID() string
}

type CreateOrderRequest struct {
	AmountMinor int64 // paise
	Currency    string
	Receipt     string
	Notes       map[string]string
}

type CreateOrderResponse struct {
	OrderID  string
	Amount   int64
	Currency string
	Status   string
}

type razorpayClientImpl struct {
	client        *razorpay.Client
	keyID         string
	keySecret     string
	webhookSecret string
}

func NewRazorpayClient(cfg *config.Razorpay) RazorpayClient {
	return &razorpayClientImpl{
		client:        razorpay.NewClient(cfg.KeyID, cfg.APISecret()),
		keyID:         cfg.KeyID,
		keySecret:     cfg.APISecret(),
		webhookSecret: cfg.WebhookSecret,
	}
}

func (c *razorpayClientImpl) KeyID() string {
	return c.keyID
}

func (c *razorpayClientImpl) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}

	data := map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}

	body, err := c.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	orderID, _ := body["id"].(string)
	if orderID == "" {
		return nil, fmt.Errorf("razorpay create order: response without id")
	}

	resp := &CreateOrderResponse{
		OrderID:  orderID,
		Amount:   req.AmountMinor,
		Currency: req.Currency,
	}
	if status, ok := body["status"].(string); ok {
		resp.Status = status
	}
	if amount, ok := body["amount"].(float64); ok {
		resp.Amount = int64(amount)
	}

	return resp, nil
}

func (c *razorpayClientImpl) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.keySecret, []byte(PaymentSignaturePayload(orderID, paymentID)), signature)
}

func (c *razorpayClientImpl) VerifyWebhookSignature(body []byte, signature string) bool {
	return VerifySignature(c.webhookSecret, body, signature)
}

// PaymentSignaturePayload is the message the checkout signature is computed over.
func PaymentSignaturePayload(orderID, paymentID string) string {
	return orderID + "|" + paymentID
}

// Sign returns the hex HMAC-SHA256 of payload keyed by secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature is the hex HMAC-SHA256 of payload. An empty secret never verifies.
func VerifySignature(secret string, payload []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
