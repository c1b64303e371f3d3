package repository

import (
	"context"
	"errors"
	"time"

	"shopcore/internal/domerr"
	"shopcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository defines data access for orders. Status writes happen
// only through Tx-scoped methods so the service can keep stock, status,
// timestamp, and history in one transaction.
type OrderRepository interface {
	CreateTx(tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// FindByIDForUpdateTx locks the order row (SELECT … FOR UPDATE) so
	// two concurrent transitions cannot both read the same old status.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error)

	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status model.OrderStatus, changedAt time.Time) error

	// FindWithTimeline preloads the status history newest-first.
	FindWithTimeline(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, limit int) ([]model.Order, error)

	// ListStalePending returns Pending orders created before the cutoff,
	// for the background sweeper.
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]model.Order, error)

	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) CreateTx(tx *gorm.DB, o *model.Order) error {
	return tx.Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := notDeleted(r.db.WithContext(ctx)).First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := notDeleted(tx.Clauses(clause.Locking{Strength: "UPDATE"})).
		First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status model.OrderStatus, changedAt time.Time) error {
	return tx.Model(&model.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":            status,
			"status_changed_at": changedAt,
		}).Error
}

func (r *orderRepo) FindWithTimeline(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := notDeleted(r.db.WithContext(ctx)).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Product").
		First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context, limit int) ([]model.Order, error) {
	var list []model.Order
	err := notDeleted(r.db.WithContext(ctx)).
		Order("created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *orderRepo) ListStalePending(ctx context.Context, before time.Time, limit int) ([]model.Order, error) {
	var list []model.Order
	err := notDeleted(r.db.WithContext(ctx)).
		Where("status = ? AND created_at < ?", model.StatusPending, before).
		Order("created_at ASC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *orderRepo) DB() *gorm.DB { return r.db }
