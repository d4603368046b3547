package service

import (
	"context"
	"errors"
	"fmt"

	"codehut/internal/dto"
	"codehut/internal/model"
	"codehut/internal/repository"

	"gorm.io/gorm"
)

const recentSalesLimit = 5

type StatsService interface {
	Platform(ctx context.Context) (*dto.PlatformStats, error)
	Languages(ctx context.Context) ([]*dto.LanguageCount, error)
	Seller(ctx context.Context, sellerID string) (*dto.SellerStats, error)
}

type statsServiceImpl struct {
	userRepo     repository.UserRepository
	snippetRepo  repository.SnippetRepository
	purchaseRepo repository.PurchaseRepository
	orderRepo    repository.OrderRepository
}

func NewStatsService(
	userRepo repository.UserRepository,
	snippetRepo repository.SnippetRepository,
	purchaseRepo repository.PurchaseRepository,
	orderRepo repository.OrderRepository,
) StatsService {
	return &statsServiceImpl{
		userRepo:     userRepo,
		snippetRepo:  snippetRepo,
		purchaseRepo: purchaseRepo,
		orderRepo:    orderRepo,
	}
}

func (s *statsServiceImpl) Platform(ctx context.Context) (*dto.PlatformStats, error) {
	var (
		stats dto.PlatformStats
		err   error
	)

	if stats.TotalUsers, err = s.userRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.TotalSnippets, err = s.snippetRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count snippets: %w", err)
	}
	if stats.TotalPurchases, err = s.purchaseRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count purchases: %w", err)
	}
	if stats.TotalRevenue, err = s.purchaseRepo.TotalRevenue(ctx); err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	if stats.PlatformCommission, err = s.orderRepo.TotalCommission(ctx); err != nil {
		return nil, fmt.Errorf("sum commission: %w", err)
	}

	return &stats, nil
}

func (s *statsServiceImpl) Languages(ctx context.Context) ([]*dto.LanguageCount, error) {
	counts, err := s.snippetRepo.CountByLanguage(ctx)
	if err != nil {
		return nil, fmt.Errorf("count languages: %w", err)
	}
	if counts == nil {
		counts = []*dto.LanguageCount{}
	}
	return counts, nil
}

func (s *statsServiceImpl) Seller(ctx context.Context, sellerID string) (*dto.SellerStats, error) {
	seller, err := s.userRepo.FindByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find seller: %w", err)
	}

	sales, earnings, err := s.orderRepo.SellerTotals(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("seller totals: %w", err)
	}

	recent, err := s.orderRepo.ListPaidBySeller(ctx, sellerID, recentSalesLimit)
	if err != nil {
		return nil, fmt.Errorf("recent sales: %w", err)
	}
	if recent == nil {
		recent = []*model.Order{}
	}

	return &dto.SellerStats{
		TotalSnippets:  seller.TotalSnippets,
		TotalDownloads: seller.TotalDownloads,
		TotalSales:     sales,
		TotalEarnings:  earnings,
		RecentSales:    recent,
	}, nil
}
