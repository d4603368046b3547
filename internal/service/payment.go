package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"codehut/internal/client"
	"codehut/internal/dto"
	"codehut/internal/model"
	"codehut/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// CommissionPercent is the platform's share of every sale.
	CommissionPercent = 10

	providerRazorpay = "razorpay"
	providerDemo     = "demo"

	demoFallbackPrice = 99
	demoKeyID         = "rzp_test_demo"

	headerSignature = "X-Razorpay-Signature"
	headerEventID   = "X-Razorpay-Event-Id"
)

type PaymentService interface {
	CreateOrder(ctx context.Context, buyerID string, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error)
	VerifyPayment(ctx context.Context, buyerID string, req *dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error)
	CancelOrder(ctx context.Context, buyerID string, req *dto.CancelOrderRequest) error
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error
	Download(ctx context.Context, userID, snippetID string) (*model.Snippet, error)
	ListOrders(ctx context.Context, buyerID string, page dto.Page) (*dto.PageResult[*model.Order], error)
	DemoMode() bool
}

type paymentServiceImpl struct {
	*fulfiller
	razorpayClient   client.RazorpayClient
	currency         string
	demo             bool
	webhookEventRepo repository.WebhookEventRepository
	accessService    AccessService
}

func NewPaymentService(
	db *gorm.DB,
	razorpayClient client.RazorpayClient,
	currency string,
	demo bool,
	userRepo repository.UserRepository,
	snippetRepo repository.SnippetRepository,
	orderRepo repository.OrderRepository,
	purchaseRepo repository.PurchaseRepository,
	webhookEventRepo repository.WebhookEventRepository,
	accessService AccessService,
	notifications NotificationService,
) PaymentService {
	return &paymentServiceImpl{
		fulfiller: &fulfiller{
			db:            db,
			orderRepo:     orderRepo,
			purchaseRepo:  purchaseRepo,
			snippetRepo:   snippetRepo,
			userRepo:      userRepo,
			notifications: notifications,
		},
		razorpayClient:   razorpayClient,
		currency:         currency,
		demo:             demo,
		webhookEventRepo: webhookEventRepo,
		accessService:    accessService,
	}
}

// SplitCommission divides amount into the platform commission and the seller's earning.
// The commission is rounded to two decimals and the seller keeps the remainder, so the parts
// always add up to amount.
func SplitCommission(amount decimal.Decimal) (commission, sellerEarning decimal.Decimal) {
	commission = amount.Mul(decimal.NewFromInt(CommissionPercent)).Div(decimal.NewFromInt(100)).Round(2)
	return commission, amount.Sub(commission)
}

// MinorUnits converts a currency amount to its smallest unit (paise for INR).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

func (s *paymentServiceImpl) DemoMode() bool {
	return s.demo
}

func (s *paymentServiceImpl) CreateOrder(ctx context.Context, buyerID string, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	snippetID := strings.TrimSpace(req.SnippetID)
	if snippetID == "" {
		return nil, ErrMissingSnippetID
	}

	snippet, err := s.snippetRepo.FindByID(ctx, snippetID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find snippet: %w", err)
		}
		if !s.demo {
			return nil, ErrSnippetNotFound
		}
		snippet = &model.Snippet{
			ID:         snippetID,
			Title:      "Demo snippet",
			Price:      decimal.NewFromInt(demoFallbackPrice),
			AuthorID:   "demo-seller",
			AuthorName: "demo-seller",
		}
	}

	if snippet.AuthorID == buyerID {
		return nil, ErrSelfPurchase
	}
	if snippet.IsFree() {
		return nil, ErrFreeSnippet
	}

	if s.demo {
		return s.demoOrder(snippet), nil
	}

	seller, err := s.userRepo.FindByID(ctx, snippet.AuthorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSellerNotFound
		}
		return nil, fmt.Errorf("find seller: %w", err)
	}

	owned, err := s.purchaseRepo.Exists(ctx, buyerID, snippet.ID)
	if err != nil {
		return nil, fmt.Errorf("check purchase: %w", err)
	}
	if owned {
		return nil, ErrAlreadyPurchased
	}

	commission, sellerEarning := SplitCommission(snippet.Price)

	resp, err := s.razorpayClient.CreateOrder(ctx, &client.CreateOrderRequest{
		AmountMinor: MinorUnits(snippet.Price),
		Currency:    s.currency,
		Receipt:     "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20],
		Notes: map[string]string{
			"snippet_id": snippet.ID,
			"buyer_id":   buyerID,
			"seller_id":  seller.ID,
		},
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"buyer_id":   buyerID,
			"snippet_id": snippet.ID,
		}).Error("Razorpay order creation failed")
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	order := &model.Order{
		ID:              uuid.NewString(),
		ProviderOrderID: resp.OrderID,
		Amount:          snippet.Price,
		Currency:        s.currency,
		Status:          model.OrderStatusCreated,
		BuyerID:         buyerID,
		SellerID:        seller.ID,
		SnippetID:       snippet.ID,
		Commission:      commission,
		SellerEarning:   sellerEarning,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}

		err := s.orderRepo.CreateTransaction(ctx, tx, &model.PaymentTransaction{
			ID:      uuid.NewString(),
			OrderID: order.ID,
			BuyerID: buyerID,
			Status:  model.TransactionStatusPending,
		})
		if err != nil {
			return fmt.Errorf("store payment transaction in db: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"order_id":          order.ID,
		"provider_order_id": order.ProviderOrderID,
		"buyer_id":          buyerID,
		"snippet_id":        snippet.ID,
		"amount":            order.Amount.StringFixed(2),
	}).Info("Order created")

	return &dto.CreateOrderResponse{
		OrderID:  resp.OrderID,
		Amount:   MinorUnits(snippet.Price),
		Currency: s.currency,
		Key:      s.razorpayClient.KeyID(),
		Snippet: dto.OrderSnippet{
			ID:    snippet.ID,
			Title: snippet.Title,
			Price: snippet.Price,
		},
		Seller: dto.OrderSeller{
			ID:       seller.ID,
			Username: seller.Username,
			Amount:   MinorUnits(sellerEarning),
		},
		Platform: dto.OrderPlatform{
			Commission: MinorUnits(commission),
			Percentage: CommissionPercent,
		},
		DBOrderID: order.ID,
	}, nil
}

func (s *paymentServiceImpl) demoOrder(snippet *model.Snippet) *dto.CreateOrderResponse {
	commission, sellerEarning := SplitCommission(snippet.Price)
	return &dto.CreateOrderResponse{
		OrderID:  "order_demo_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Amount:   MinorUnits(snippet.Price),
		Currency: s.currency,
		Key:      demoKeyID,
		Snippet: dto.OrderSnippet{
			ID:    snippet.ID,
			Title: snippet.Title,
			Price: snippet.Price,
		},
		Seller: dto.OrderSeller{
			ID:       snippet.AuthorID,
			Username: snippet.AuthorName,
			Amount:   MinorUnits(sellerEarning),
		},
		Platform: dto.OrderPlatform{
			Commission: MinorUnits(commission),
			Percentage: CommissionPercent,
		},
		Demo: true,
	}
}

func (s *paymentServiceImpl) VerifyPayment(ctx context.Context, buyerID string, req *dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
	if s.demo {
		if req.RazorpaySignature == "" {
			return nil, ErrInvalidSignature
		}
		log.WithField("provider_order_id", req.RazorpayOrderID).Warn("Demo mode: payment accepted without verification")
		return &dto.VerifyPaymentResponse{
			Success:    true,
			Message:    "Payment verified (demo mode)",
			PurchaseID: "demo_purchase_" + req.RazorpayPaymentID,
			OrderID:    req.RazorpayOrderID,
		}, nil
	}

	if !s.razorpayClient.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		log.WithFields(log.Fields{
			"provider_order_id": req.RazorpayOrderID,
			"buyer_id":          buyerID,
		}).Warn("Payment signature mismatch")
		return nil, ErrInvalidSignature
	}

	order, err := s.orderRepo.FindByProviderOrderIDForBuyer(ctx, req.RazorpayOrderID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	purchase, err := s.fulfilOrder(ctx, order, req.RazorpayPaymentID, req.RazorpaySignature, providerRazorpay)
	if err != nil {
		return nil, err
	}

	return &dto.VerifyPaymentResponse{
		Success:    true,
		Message:    "Payment verified successfully",
		PurchaseID: purchase.ID,
		OrderID:    order.ID,
	}, nil
}

func (s *paymentServiceImpl) CancelOrder(ctx context.Context, buyerID string, req *dto.CancelOrderRequest) error {
	order, err := s.orderRepo.FindByProviderOrderIDForBuyer(ctx, req.RazorpayOrderID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("find order: %w", err)
	}

	switch order.Status {
	case model.OrderStatusPaid:
		return ErrOrderNotPending
	case model.OrderStatusFailed:
		return nil
	}

	reason := req.Reason
	if reason == "" {
		reason = "cancelled by buyer"
	}

	marked, err := s.failOrder(ctx, order, reason)
	if err != nil {
		return err
	}
	if !marked {
		// paid by a webhook in the meantime
		return ErrOrderNotPending
	}
	return nil
}

// failOrder moves a created order and its payment transaction to failed.
func (s *paymentServiceImpl) failOrder(ctx context.Context, order *model.Order, reason string) (bool, error) {
	var marked bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		marked, err = s.orderRepo.MarkFailed(ctx, tx, order.ID, reason)
		if err != nil {
			return fmt.Errorf("mark order failed: %w", err)
		}
		if !marked {
			return nil
		}
		return s.orderRepo.UpdateTransaction(ctx, tx, order.ID, model.TransactionStatusFailed, "", "")
	})
	if err != nil {
		return false, err
	}

	if marked {
		log.WithFields(log.Fields{
			"order_id":          order.ID,
			"provider_order_id": order.ProviderOrderID,
			"buyer_id":          order.BuyerID,
			"snippet_id":        order.SnippetID,
			"reason":            reason,
		}).Info("Order failed")
	}
	return marked, nil
}

func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if !s.razorpayClient.VerifyWebhookSignature(body, headers.Get(headerSignature)) {
		return ErrInvalidSignature
	}

	var event model.RazorpayWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	eventID := headers.Get(headerEventID)
	if eventID != "" {
		seen, err := s.webhookEventRepo.Exists(ctx, eventID)
		if err != nil {
			return fmt.Errorf("check webhook event: %w", err)
		}
		if seen {
			log.WithFields(log.Fields{
				"event_id": eventID,
				"event":    event.Event,
			}).Info("Duplicate webhook delivery ignored")
			return nil
		}
	}

	var err error
	switch event.Event {
	case "payment.captured", "order.paid":
		err = s.handleOrderPaid(ctx, &event)
	case "payment.failed":
		err = s.handlePaymentFailed(ctx, &event)
	case "transfer.processed":
		err = s.handleTransfer(ctx, &event, "processed")
	case "transfer.failed":
		err = s.handleTransfer(ctx, &event, "failed")
	default:
		log.WithField("event", event.Event).Info("Unhandled webhook event")
	}
	if err != nil {
		return err
	}

	if eventID != "" {
		if err := s.webhookEventRepo.MarkProcessed(ctx, eventID, event.Event); err != nil {
			return fmt.Errorf("record webhook event: %w", err)
		}
	}
	return nil
}

func (s *paymentServiceImpl) findWebhookOrder(ctx context.Context, event *model.RazorpayWebhookEvent) (*model.Order, error) {
	providerOrderID := event.OrderID()
	if providerOrderID == "" {
		log.WithField("event", event.Event).Warn("Webhook event without order id")
		return nil, nil
	}

	order, err := s.orderRepo.FindByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.WithFields(log.Fields{
				"event":             event.Event,
				"provider_order_id": providerOrderID,
			}).Warn("Webhook for unknown order")
			return nil, nil
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *paymentServiceImpl) handleOrderPaid(ctx context.Context, event *model.RazorpayWebhookEvent) error {
	order, err := s.findWebhookOrder(ctx, event)
	if err != nil || order == nil {
		return err
	}

	paymentID := event.PaymentID()
	if paymentID == "" {
		paymentID = order.ProviderPaymentID
	}

	_, err = s.fulfilOrder(ctx, order, paymentID, "", providerRazorpay)
	return err
}

func (s *paymentServiceImpl) handlePaymentFailed(ctx context.Context, event *model.RazorpayWebhookEvent) error {
	order, err := s.findWebhookOrder(ctx, event)
	if err != nil || order == nil {
		return err
	}

	reason := "payment failed"
	if event.Payload.Payment != nil && event.Payload.Payment.Entity.ErrorDescription != "" {
		reason = event.Payload.Payment.Entity.ErrorDescription
	}

	_, err = s.failOrder(ctx, order, reason)
	return err
}

func (s *paymentServiceImpl) handleTransfer(ctx context.Context, event *model.RazorpayWebhookEvent, status string) error {
	if event.Payload.Transfer == nil || event.Payload.Transfer.Entity.Source == "" {
		log.WithField("event", event.Event).Warn("Transfer event without source payment")
		return nil
	}

	source := event.Payload.Transfer.Entity.Source
	order, err := s.orderRepo.FindByProviderPaymentID(ctx, source)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.WithField("provider_payment_id", source).Warn("Transfer for unknown payment")
			return nil
		}
		return fmt.Errorf("find order by payment: %w", err)
	}

	if err := s.orderRepo.UpdateTransferStatus(ctx, order.ID, status); err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}

	log.WithFields(log.Fields{
		"order_id":        order.ID,
		"transfer_id":     event.Payload.Transfer.Entity.ID,
		"transfer_status": status,
	}).Info("Seller transfer updated")
	return nil
}

func (s *paymentServiceImpl) Download(ctx context.Context, userID, snippetID string) (*model.Snippet, error) {
	snippet, err := s.snippetRepo.FindByID(ctx, snippetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnippetNotFound
		}
		return nil, fmt.Errorf("find snippet: %w", err)
	}

	if ok, _ := s.accessService.Check(ctx, userID, snippet); !ok {
		return nil, ErrNoAccess
	}
	return snippet, nil
}

func (s *paymentServiceImpl) ListOrders(ctx context.Context, buyerID string, page dto.Page) (*dto.PageResult[*model.Order], error) {
	orders, total, err := s.orderRepo.ListByBuyer(ctx, buyerID, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return dto.NewPageResult(orders, page, total), nil
}
