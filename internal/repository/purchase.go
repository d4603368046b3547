package repository

import (
	"context"
	"errors"

	"codehut/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, purchase *model.Purchase) error
	Find(ctx context.Context, tx *gorm.DB, userID, snippetID string) (*model.Purchase, error)
	Exists(ctx context.Context, userID, snippetID string) (bool, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Purchase, int64, error)
	Count(ctx context.Context) (int64, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
}

type purchaseRepoImpl struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepoImpl{
		db: db,
	}
}

func (r *purchaseRepoImpl) Create(ctx context.Context, tx *gorm.DB, purchase *model.Purchase) error {
	return tx.WithContext(ctx).Create(purchase).Error
}

// Find returns nil, nil when the user holds no purchase for the snippet.
func (r *purchaseRepoImpl) Find(ctx context.Context, tx *gorm.DB, userID, snippetID string) (*model.Purchase, error) {
	if tx == nil {
		tx = r.db
	}

	var purchase model.Purchase
	err := tx.WithContext(ctx).
		Where("user_id = ? AND snippet_id = ?", userID, snippetID).
		First(&purchase).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &purchase, nil
}

func (r *purchaseRepoImpl) Exists(ctx context.Context, userID, snippetID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).
		Where("user_id = ? AND snippet_id = ?", userID, snippetID).
		Count(&count).Error

	return count > 0, err
}

func (r *purchaseRepoImpl) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Purchase, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Purchase{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var purchases []*model.Purchase
	err := q.Order("purchased_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&purchases).Error
	if err != nil {
		return nil, 0, err
	}

	return purchases, total, nil
}

func (r *purchaseRepoImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).Count(&count).Error
	return count, err
}

func (r *purchaseRepoImpl) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Select("SUM(price)").
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}

	return total.Decimal, nil
}
