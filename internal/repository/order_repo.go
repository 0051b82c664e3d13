package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/model"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = fmt.Errorf("%w: order", model.ErrNotFound)
	ErrOrderStatusInvalid = fmt.Errorf("%w: order status changed or not allowed", model.ErrInvalidTransition)
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *OrderRepository) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return r.conn(tx).WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Order, error) {
	var order model.Order
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetByBuyerRequest returns nil, nil when the buyer never used requestID.
func (r *OrderRepository) GetByBuyerRequest(ctx context.Context, tx *gorm.DB, buyerID int64, requestID string) (*model.Order, error) {
	var order model.Order
	err := r.conn(tx).WithContext(ctx).
		Where("buyer_id = ? AND request_id = ?", buyerID, requestID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Transition moves the order from fromStatus to toStatus only if it is still in
// fromStatus. Extra columns are written in the same statement.
func (r *OrderRepository) Transition(ctx context.Context, tx *gorm.DB, id int64, fromStatus, toStatus string, extra map[string]interface{}) error {
	if !model.CanAdminTransitionTo(fromStatus, toStatus) {
		return ErrOrderStatusInvalid
	}

	updates := map[string]interface{}{
		"status": toStatus,
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.conn(tx).WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrOrderStatusInvalid
	}

	return nil
}

// SentCursor marks the last order of a GetSentBefore page. The zero value
// starts from the oldest order.
type SentCursor struct {
	SentAt time.Time
	ID     int64
}

// After returns the cursor positioned on order.
func (c SentCursor) After(order *model.Order) SentCursor {
	if order.SentAt == nil {
		return c
	}
	return SentCursor{SentAt: *order.SentAt, ID: order.ID}
}

// GetSentBefore lists orders that have been in sent since before deadline,
// ordered by (sent_at, id) and starting after cursor.
func (r *OrderRepository) GetSentBefore(ctx context.Context, deadline time.Time, cursor SentCursor, limit int) ([]*model.Order, error) {
	var orders []*model.Order
	q := r.db.WithContext(ctx).
		Where("status = ? AND sent_at <= ?", model.OrderStatusSent, deadline)
	if cursor.ID > 0 {
		q = q.Where("(sent_at > ? OR (sent_at = ? AND id > ?))", cursor.SentAt, cursor.SentAt, cursor.ID)
	}
	err := q.Order("sent_at ASC, id ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID int64, page, pageSize int) ([]*model.Order, int64, error) {
	return r.list(ctx, "buyer_id = ?", buyerID, page, pageSize)
}

func (r *OrderRepository) ListBySeller(ctx context.Context, sellerID int64, page, pageSize int) ([]*model.Order, int64, error) {
	return r.list(ctx, "seller_id = ?", sellerID, page, pageSize)
}

func (r *OrderRepository) list(ctx context.Context, cond string, userID int64, page, pageSize int) ([]*model.Order, int64, error) {
	var orders []*model.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Order{}).Where(cond, userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error

	return orders, total, err
}
