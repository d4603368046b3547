package dto

import (
	"codehut/internal/model"

	"github.com/shopspring/decimal"
)

// ---- auth ----

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// SessionMeta describes the client a session is opened for.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

type AuthResponse struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int64       `json:"expiresIn"` // seconds
}

// ---- snippets ----

type CreateSnippetRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Code        string          `json:"code" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Tags        []string        `json:"tags" validate:"max=10,dive,max=32"`
	Language    string          `json:"language" validate:"required,max=32"`
	Framework   string          `json:"framework" validate:"max=64"`
}

type UpdateSnippetRequest struct {
	Title       *string          `json:"title" validate:"omitempty,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Code        *string          `json:"code"`
	Price       *decimal.Decimal `json:"price"`
	Tags        []string         `json:"tags" validate:"omitempty,max=10,dive,max=32"`
	Language    *string          `json:"language" validate:"omitempty,max=32"`
	Framework   *string          `json:"framework" validate:"omitempty,max=64"`
}

type SnippetFilter struct {
	Query     string
	Language  string
	Framework string
	Tag       string
	AuthorID  string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Free      *bool
	Sort      string
	Page      Page
}

type SnippetView struct {
	*model.Snippet
	Locked bool `json:"locked"`
}

// ---- users ----

type UpdateUserRequest struct {
	Bio    *string `json:"bio" validate:"omitempty,max=1000"`
	Avatar *string `json:"avatar" validate:"omitempty,url,max=512"`
}

type UpdateUserStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// ---- purchases ----

type PurchaseRequest struct {
	SnippetID string `json:"snippetId" validate:"required"`
}

type PurchaseView struct {
	*model.Purchase
	Snippet *SnippetSummary `json:"snippet,omitempty"`
}

type SnippetSummary struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	Language   string          `json:"language"`
	AuthorName string          `json:"authorName"`
}

type AccessResponse struct {
	SnippetID string `json:"snippetId"`
	HasAccess bool   `json:"hasAccess"`
	Reason    string `json:"reason"`
}

// ---- payments ----

type CreateOrderRequest struct {
	SnippetID string `json:"snippetId"`
}

type OrderSnippet struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

type OrderSeller struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Amount   int64  `json:"amount"` // minor units
}

type OrderPlatform struct {
	Commission int64 `json:"commission"` // minor units
	Percentage int64 `json:"percentage"`
}

type CreateOrderResponse struct {
	OrderID   string        `json:"orderId"`
	Amount    int64         `json:"amount"` // minor units
	Currency  string        `json:"currency"`
	Key       string        `json:"key"`
	Snippet   OrderSnippet  `json:"snippet"`
	Seller    OrderSeller   `json:"seller"`
	Platform  OrderPlatform `json:"platform"`
	DBOrderID string        `json:"dbOrderId,omitempty"`
	Demo      bool          `json:"demo,omitempty"`
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

type VerifyPaymentResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	PurchaseID string `json:"purchase_id,omitempty"`
	OrderID    string `json:"order_id,omitempty"`
}

type CancelOrderRequest struct {
	RazorpayOrderID string `json:"razorpay_order_id" validate:"required"`
	Reason          string `json:"reason" validate:"max=255"`
}

// PurchaseEvent is published once a purchase is fulfilled.
type PurchaseEvent struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	UserEmail     string          `json:"user_email"`
	SnippetID     string          `json:"snippet_id"`
	SnippetTitle  string          `json:"snippet_title"`
	OrderID       string          `json:"order_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Provider      string          `json:"provider"`
}

// ---- stats ----

type PlatformStats struct {
	TotalUsers         int64           `json:"totalUsers"`
	TotalSnippets      int64           `json:"totalSnippets"`
	TotalPurchases     int64           `json:"totalPurchases"`
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	PlatformCommission decimal.Decimal `json:"platformCommission"`
}

type LanguageCount struct {
	Language string `json:"language"`
	Count    int64  `json:"count"`
}

type SellerStats struct {
	TotalSnippets  int64           `json:"totalSnippets"`
	TotalDownloads int64           `json:"totalDownloads"`
	TotalSales     int64           `json:"totalSales"`
	TotalEarnings  decimal.Decimal `json:"totalEarnings"`
	RecentSales    []*model.Order  `json:"recentSales"`
}

// ---- search ----

type SearchResponse struct {
	Query    string           `json:"query"`
	Snippets []*model.Snippet `json:"snippets"`
	Users    []*model.User    `json:"users"`
}
