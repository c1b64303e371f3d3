package repository

import (
	"context"
	"errors"

	"shopcore/internal/domerr"
	"shopcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository defines data access for products and the inventory
// ledger. Stock mutations are single atomic statements at the storage
// layer — never read-modify-write in application code.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	FindByCode(ctx context.Context, code string) (*model.Product, error)
	List(ctx context.Context, activeOnly bool) ([]model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	MarkDeleted(ctx context.Context, id uuid.UUID) error

	// DecrementStockTx applies stock_quantity -= qty only when
	// stock_quantity >= qty, in one conditional UPDATE. Returns
	// domerr.ErrInsufficientStock (ledger untouched) otherwise.
	DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) error

	// IncrementStockTx is an unconditional atomic increment.
	IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) error

	// CountOrders counts non-deleted orders referencing the product
	// (protect check before soft delete).
	CountOrders(ctx context.Context, productID uuid.UUID) (int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := notDeleted(r.db.WithContext(ctx)).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := notDeleted(tx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	var p model.Product
	err := notDeleted(r.db.WithContext(ctx)).Where("code = ?", code).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, activeOnly bool) ([]model.Product, error) {
	q := notDeleted(r.db.WithContext(ctx))
	if activeOnly {
		q = q.Where("active = true")
	}
	var list []model.Product
	err := q.Order("name asc").Find(&list).Error
	return list, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND delete_status = ?", id, model.NotDeleted).
		Update("delete_status", model.Deleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domerr.ErrNotFound
	}
	return nil
}

func (r *productRepo) DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domerr.ErrInsufficientStock
	}
	return nil
}

func (r *productRepo) IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", qty)).Error
}

func (r *productRepo) CountOrders(ctx context.Context, productID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("product_id = ? AND delete_status = ?", productID, model.NotDeleted).
		Count(&n).Error
	return n, err
}

func (r *productRepo) DB() *gorm.DB { return r.db }
