package repository

import (
	"context"
	"time"

	"codehut/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateTransaction(ctx context.Context, tx *gorm.DB, txn *model.PaymentTransaction) error
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (*model.Order, error)
	FindByProviderOrderIDForBuyer(ctx context.Context, providerOrderID, buyerID string) (*model.Order, error)
	FindByProviderPaymentID(ctx context.Context, providerPaymentID string) (*model.Order, error)
	// MarkPaid moves a created or failed order to paid. It reports false when the order was already paid.
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID, paymentID string) (bool, error)
	MarkFailed(ctx context.Context, tx *gorm.DB, orderID, reason string) (bool, error)
	UpdateTransaction(ctx context.Context, tx *gorm.DB, orderID string, status model.TransactionStatus, paymentID, signature string) error
	UpdateTransferStatus(ctx context.Context, orderID, status string) error
	ListByBuyer(ctx context.Context, buyerID string, offset, limit int) ([]*model.Order, int64, error)
	ListPaidBySeller(ctx context.Context, sellerID string, limit int) ([]*model.Order, error)
	SellerTotals(ctx context.Context, sellerID string) (int64, decimal.Decimal, error)
	TotalCommission(ctx context.Context) (decimal.Decimal, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateTransaction(ctx context.Context, tx *gorm.DB, txn *model.PaymentTransaction) error {
	return tx.WithContext(ctx).Create(txn).Error
}

func (r *orderRepoImpl) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("provider_order_id = ?", providerOrderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByProviderOrderIDForBuyer(ctx context.Context, providerOrderID, buyerID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("provider_order_id = ? AND buyer_id = ?", providerOrderID, buyerID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByProviderPaymentID(ctx context.Context, providerPaymentID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("provider_payment_id = ?", providerPaymentID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, orderID, paymentID string) (bool, error) {
	now := time.Now()
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where(`
			id = ?
			AND status IN ?
		`,
			orderID,
			[]model.OrderStatus{model.OrderStatusCreated, model.OrderStatusFailed},
		).
		Updates(map[string]interface{}{
			"status":              model.OrderStatusPaid,
			"provider_payment_id": paymentID,
			"failure_reason":      "",
			"paid_at":             now,
			"updated_at":          now,
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *orderRepoImpl) MarkFailed(ctx context.Context, tx *gorm.DB, orderID, reason string) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusCreated).
		Updates(map[string]interface{}{
			"status":         model.OrderStatusFailed,
			"failure_reason": reason,
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *orderRepoImpl) UpdateTransaction(ctx context.Context, tx *gorm.DB, orderID string, status model.TransactionStatus, paymentID, signature string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if paymentID != "" {
		updates["provider_payment_id"] = paymentID
	}
	if signature != "" {
		updates["provider_signature"] = signature
	}

	return tx.WithContext(ctx).Model(&model.PaymentTransaction{}).
		Where("order_id = ?", orderID).
		Updates(updates).Error
}

func (r *orderRepoImpl) UpdateTransferStatus(ctx context.Context, orderID, status string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"transfer_status": status,
			"updated_at":      time.Now(),
		}).Error
}

func (r *orderRepoImpl) ListByBuyer(ctx context.Context, buyerID string, offset, limit int) ([]*model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).Where("buyer_id = ?", buyerID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := q.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepoImpl) ListPaidBySeller(ctx context.Context, sellerID string, limit int) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND status = ?", sellerID, model.OrderStatusPaid).
		Order("paid_at DESC").
		Limit(limit).
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) SellerTotals(ctx context.Context, sellerID string) (int64, decimal.Decimal, error) {
	var (
		count    int64
		earnings decimal.NullDecimal
	)
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("COUNT(*), SUM(seller_earning)").
		Where("seller_id = ? AND status = ?", sellerID, model.OrderStatusPaid).
		Row().
		Scan(&count, &earnings)
	if err != nil {
		return 0, decimal.Zero, err
	}

	return count, earnings.Decimal, nil
}

func (r *orderRepoImpl) TotalCommission(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("SUM(commission)").
		Where("status = ?", model.OrderStatusPaid).
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}

	return total.Decimal, nil
}
