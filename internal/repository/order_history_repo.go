package repository

import (
	"context"

	"shopcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderHistoryRepository is append-only: no update or delete is exposed.
// Rows disappear only via the CASCADE when the parent order is removed.
type OrderHistoryRepository interface {
	AppendTx(tx *gorm.DB, h *model.OrderStatusHistory) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error)
}

type orderHistoryRepo struct{ db *gorm.DB }

func NewOrderHistoryRepository(db *gorm.DB) OrderHistoryRepository {
	return &orderHistoryRepo{db: db}
}

func (r *orderHistoryRepo) AppendTx(tx *gorm.DB, h *model.OrderStatusHistory) error {
	return tx.Create(h).Error
}

func (r *orderHistoryRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	var list []model.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}
