package service

import (
	"context"
	"fmt"
	"time"

	"codehut/internal/dto"
	"codehut/internal/model"
	"codehut/internal/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// fulfiller turns a paid order into an entitlement. It is shared by checkout verification,
// the provider webhook and the legacy purchase endpoint.
type fulfiller struct {
	db            *gorm.DB
	orderRepo     repository.OrderRepository
	purchaseRepo  repository.PurchaseRepository
	snippetRepo   repository.SnippetRepository
	userRepo      repository.UserRepository
	notifications NotificationService
}

// fulfilOrder marks the order paid and grants the purchase in one transaction.
// Calling it again for an order that is already paid returns the existing purchase
// without touching any counter.
func (f *fulfiller) fulfilOrder(ctx context.Context, order *model.Order, paymentID, signature, provider string) (*model.Purchase, error) {
	var (
		purchase *model.Purchase
		granted  bool
	)

	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		paid, err := f.orderRepo.MarkPaid(ctx, tx, order.ID, paymentID)
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}

		existing, err := f.purchaseRepo.Find(ctx, tx, order.BuyerID, order.SnippetID)
		if err != nil {
			return fmt.Errorf("find purchase: %w", err)
		}

		if !paid {
			if existing == nil {
				return fmt.Errorf("order %s is paid but has no purchase", order.ID)
			}
			purchase = existing
			return nil
		}

		err = f.orderRepo.UpdateTransaction(ctx, tx, order.ID, model.TransactionStatusSuccess, paymentID, signature)
		if err != nil {
			return fmt.Errorf("update payment transaction: %w", err)
		}

		if existing != nil {
			// buyer paid twice for the same snippet through two orders
			log.WithFields(log.Fields{
				"order_id":    order.ID,
				"buyer_id":    order.BuyerID,
				"snippet_id":  order.SnippetID,
				"purchase_id": existing.ID,
			}).Warn("Order paid for a snippet the buyer already owns")
			purchase = existing
			return nil
		}

		purchase = &model.Purchase{
			ID:          uuid.NewString(),
			UserID:      order.BuyerID,
			SnippetID:   order.SnippetID,
			Price:       order.Amount,
			OrderID:     order.ID,
			PurchasedAt: time.Now(),
		}
		if err := f.grant(ctx, tx, purchase, order.SellerID); err != nil {
			return err
		}
		granted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if granted {
		log.WithFields(log.Fields{
			"order_id":          order.ID,
			"provider_order_id": order.ProviderOrderID,
			"buyer_id":          order.BuyerID,
			"snippet_id":        order.SnippetID,
			"purchase_id":       purchase.ID,
			"provider":          provider,
		}).Info("Order fulfilled")

		f.notify(ctx, purchase, order.Currency, order.ProviderOrderID, provider)
	}

	return purchase, nil
}

// grant inserts the purchase and bumps the snippet and seller download counters.
func (f *fulfiller) grant(ctx context.Context, tx *gorm.DB, purchase *model.Purchase, sellerID string) error {
	if err := f.purchaseRepo.Create(ctx, tx, purchase); err != nil {
		return fmt.Errorf("create purchase: %w", err)
	}
	if err := f.snippetRepo.IncrementDownloads(ctx, tx, purchase.SnippetID); err != nil {
		return fmt.Errorf("increment snippet downloads: %w", err)
	}
	if err := f.userRepo.IncrementDownloads(ctx, tx, sellerID); err != nil {
		return fmt.Errorf("increment seller downloads: %w", err)
	}
	return nil
}

func (f *fulfiller) notify(ctx context.Context, purchase *model.Purchase, currency, providerOrderID, provider string) {
	event := &dto.PurchaseEvent{
		TransactionID: purchase.ID,
		UserID:        purchase.UserID,
		SnippetID:     purchase.SnippetID,
		OrderID:       providerOrderID,
		Amount:        purchase.Price,
		Currency:      currency,
		Provider:      provider,
	}

	if buyer, err := f.userRepo.FindByID(ctx, purchase.UserID); err == nil {
		event.UserEmail = buyer.Email
	}
	if snippet, err := f.snippetRepo.FindByID(ctx, purchase.SnippetID); err == nil {
		event.SnippetTitle = snippet.Title
	}

	f.notifications.PurchaseCompleted(ctx, event)
}
