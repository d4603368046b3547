package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codehut/internal/dto"
	"codehut/internal/model"
	"codehut/internal/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type PurchaseService interface {
	// Purchase records a direct purchase without going through checkout.
	Purchase(ctx context.Context, userID, snippetID string) (*model.Purchase, error)
	ListPurchases(ctx context.Context, userID string, page dto.Page) (*dto.PageResult[*dto.PurchaseView], error)
}

type purchaseServiceImpl struct {
	*fulfiller
	demo bool
}

func NewPurchaseService(
	db *gorm.DB,
	demo bool,
	userRepo repository.UserRepository,
	snippetRepo repository.SnippetRepository,
	purchaseRepo repository.PurchaseRepository,
	notifications NotificationService,
) PurchaseService {
	return &purchaseServiceImpl{
		fulfiller: &fulfiller{
			db:            db,
			purchaseRepo:  purchaseRepo,
			snippetRepo:   snippetRepo,
			userRepo:      userRepo,
			notifications: notifications,
		},
		demo: demo,
	}
}

func (s *purchaseServiceImpl) Purchase(ctx context.Context, userID, snippetID string) (*model.Purchase, error) {
	if snippetID == "" {
		return nil, ErrMissingSnippetID
	}

	snippet, err := s.snippetRepo.FindByID(ctx, snippetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnippetNotFound
		}
		return nil, fmt.Errorf("find snippet: %w", err)
	}

	if snippet.AuthorID == userID {
		return nil, ErrSelfPurchase
	}

	owned, err := s.purchaseRepo.Exists(ctx, userID, snippet.ID)
	if err != nil {
		return nil, fmt.Errorf("check purchase: %w", err)
	}
	if owned {
		return nil, ErrAlreadyPurchased
	}

	if !snippet.IsFree() && !s.demo {
		return nil, ErrPaymentRequired
	}

	purchase := &model.Purchase{
		ID:          uuid.NewString(),
		UserID:      userID,
		SnippetID:   snippet.ID,
		Price:       snippet.Price,
		PurchasedAt: time.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.grant(ctx, tx, purchase, snippet.AuthorID)
	})
	if err != nil {
		// lost a race with a concurrent request for the same pair
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyPurchased
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"purchase_id": purchase.ID,
		"user_id":     userID,
		"snippet_id":  snippet.ID,
	}).Info("Purchase recorded")

	provider := providerDemo
	if snippet.IsFree() {
		provider = "free"
	}
	s.notify(ctx, purchase, snippet.Currency, "", provider)

	return purchase, nil
}

func (s *purchaseServiceImpl) ListPurchases(ctx context.Context, userID string, page dto.Page) (*dto.PageResult[*dto.PurchaseView], error) {
	purchases, total, err := s.purchaseRepo.ListByUser(ctx, userID, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}

	snippetIDs := make([]string, len(purchases))
	for i, p := range purchases {
		snippetIDs[i] = p.SnippetID
	}

	snippets, err := s.snippetRepo.FindMany(ctx, snippetIDs)
	if err != nil {
		return nil, fmt.Errorf("get purchased snippets: %w", err)
	}

	byID := make(map[string]*model.Snippet, len(snippets))
	for _, sn := range snippets {
		byID[sn.ID] = sn
	}

	views := make([]*dto.PurchaseView, len(purchases))
	for i, p := range purchases {
		view := &dto.PurchaseView{Purchase: p}
		if sn, ok := byID[p.SnippetID]; ok {
			view.Snippet = &dto.SnippetSummary{
				ID:         sn.ID,
				Title:      sn.Title,
				Price:      sn.Price,
				Language:   sn.Language,
				AuthorName: sn.AuthorName,
			}
		}
		views[i] = view
	}

	return dto.NewPageResult(views, page, total), nil
}
