package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

type User struct {
	ID             string    `gorm:"primaryKey;size:36;not null" json:"id"`
	Username       string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"size:255;not null" json:"-"`
	Bio            string    `gorm:"type:text" json:"bio"`
	Avatar         string    `gorm:"size:512" json:"avatar"`
	Role           Role      `gorm:"size:16;index;not null" json:"role"`
	TotalSnippets  int64     `gorm:"not null" json:"totalSnippets"`
	TotalDownloads int64     `gorm:"not null" json:"totalDownloads"`
	Rating         float64   `gorm:"not null" json:"rating"`
	IsActive       bool      `gorm:"not null" json:"isActive"`
	IsVerified     bool      `gorm:"not null" json:"isVerified"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Session backs one refresh token. A user may hold several at once (one per device).
type Session struct {
	ID               string    `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID           string    `gorm:"size:36;index;not null" json:"userId"`
	RefreshTokenHash string    `gorm:"size:64;not null" json:"-"`
	UserAgent        string    `gorm:"size:255" json:"userAgent"`
	IPAddress        string    `gorm:"size:64" json:"ipAddress"`
	ExpiresAt        time.Time `gorm:"index;not null" json:"expiresAt"`
	LastUsedAt       time.Time `json:"lastUsedAt"`
	CreatedAt        time.Time `json:"createdAt"`
}

type SnippetStatus string

const (
	SnippetStatusApproved SnippetStatus = "approved"
)

type Snippet struct {
	ID          string          `gorm:"primaryKey;size:36;not null" json:"id"`
	Title       string          `gorm:"size:200;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Code        string          `gorm:"type:text;not null" json:"code,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Currency    string          `gorm:"size:8;not null" json:"currency"`
	Rating      float64         `gorm:"not null" json:"rating"`
	AuthorID    string          `gorm:"size:36;index;not null" json:"authorId"`
	AuthorName  string          `gorm:"size:64" json:"authorName"`
	Tags        []string        `gorm:"serializer:json" json:"tags"`
	Language    string          `gorm:"size:32;index" json:"language"`
	Framework   string          `gorm:"size:64" json:"framework"`
	Status      SnippetStatus   `gorm:"size:16;not null" json:"status"`
	Downloads   int64           `gorm:"not null" json:"downloads"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (s *Snippet) IsFree() bool {
	return !s.Price.IsPositive()
}

type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

// Order mirrors one payment-provider order. Amounts are in currency units; the split is fixed at creation.
type Order struct {
	ID                string          `gorm:"primaryKey;size:36;not null" json:"id"`
	ProviderOrderID   string          `gorm:"size:64;uniqueIndex;not null" json:"providerOrderId"` // razorpay order id
	ProviderPaymentID string          `gorm:"size:64;index" json:"providerPaymentId"`
	Amount            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency          string          `gorm:"size:8;not null" json:"currency"`
	Status            OrderStatus     `gorm:"size:16;index;not null" json:"status"`
	BuyerID           string          `gorm:"size:36;index" json:"buyerId"`
	SellerID          string          `gorm:"size:36;index;not null" json:"sellerId"`
	SnippetID         string          `gorm:"size:36;index;not null" json:"snippetId"`
	Commission        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"commission"`
	SellerEarning     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"sellerEarning"`
	TransferStatus    string          `gorm:"size:16" json:"transferStatus,omitempty"`
	FailureReason     string          `gorm:"size:255" json:"failureReason,omitempty"`
	PaidAt            *time.Time      `json:"paidAt,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

type PaymentTransaction struct {
	ID                string            `gorm:"primaryKey;size:36;not null" json:"id"`
	OrderID           string            `gorm:"size:36;uniqueIndex;not null" json:"orderId"` // FK → orders.id
	ProviderPaymentID string            `gorm:"size:64" json:"providerPaymentId"`
	ProviderSignature string            `gorm:"size:128" json:"-"`
	BuyerID           string            `gorm:"size:36;index" json:"buyerId"`
	Status            TransactionStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Purchase is the entitlement record. Its presence alone grants access to a paid snippet.
type Purchase struct {
	ID          string          `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID      string          `gorm:"size:36;not null;uniqueIndex:idx_purchases_user_snippet,priority:1" json:"userId"`
	SnippetID   string          `gorm:"size:36;not null;uniqueIndex:idx_purchases_user_snippet,priority:2;index" json:"snippetId"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	OrderID     string          `gorm:"size:36;index" json:"orderId,omitempty"`
	PurchasedAt time.Time       `gorm:"not null" json:"purchasedAt"`
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

// All lists every table, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Session{},
		&Snippet{},
		&Order{},
		&PaymentTransaction{},
		&Purchase{},
		&WebhookEvent{},
	}
}
