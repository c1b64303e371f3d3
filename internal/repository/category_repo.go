package repository

import (
	"context"
	"errors"

	"shopcore/internal/domerr"
	"shopcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryRepository defines data access for the category tree. Default
// lookups exclude soft-deleted rows; the IncludeDeleted variants expose
// the full set for restore and descendant inspection.
type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	FindByIDIncludeDeleted(ctx context.Context, id uuid.UUID) (*model.Category, error)
	Update(ctx context.Context, c *model.Category) error

	// ListChildren returns direct children only. activeOnly additionally
	// filters on the active flag; deleted children are always excluded.
	ListChildren(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]model.Category, error)
	ListRoots(ctx context.Context, activeOnly bool) ([]model.Category, error)

	// ChildIDs returns the ids of direct children, optionally including
	// soft-deleted nodes. Used for iterative tree walks.
	ChildIDs(ctx context.Context, parentID uuid.UUID, includeDeleted bool) ([]uuid.UUID, error)
	ListByIDsIncludeDeleted(ctx context.Context, ids []uuid.UUID) ([]model.Category, error)

	// MarkDeleted flags every id in one statement; re-deleting already
	// deleted rows is a no-op.
	MarkDeleted(ctx context.Context, ids []uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error

	// CountProducts counts non-deleted products referencing any of the
	// given categories (protect check before cascade delete).
	CountProducts(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type categoryRepo struct{ db *gorm.DB }

func NewCategoryRepository(db *gorm.DB) CategoryRepository { return &categoryRepo{db: db} }

func notDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("delete_status = ?", model.NotDeleted)
}

func (r *categoryRepo) Create(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var c model.Category
	err := notDeleted(r.db.WithContext(ctx)).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepo) FindByIDIncludeDeleted(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepo) Update(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *categoryRepo) ListChildren(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]model.Category, error) {
	q := notDeleted(r.db.WithContext(ctx)).Where("parent_id = ?", parentID)
	if activeOnly {
		q = q.Where("active = true")
	}
	var list []model.Category
	err := q.Order("name asc").Find(&list).Error
	return list, err
}

func (r *categoryRepo) ListRoots(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	q := notDeleted(r.db.WithContext(ctx)).Where("parent_id IS NULL")
	if activeOnly {
		q = q.Where("active = true")
	}
	var list []model.Category
	err := q.Order("name asc").Find(&list).Error
	return list, err
}

func (r *categoryRepo) ChildIDs(ctx context.Context, parentID uuid.UUID, includeDeleted bool) ([]uuid.UUID, error) {
	q := r.db.WithContext(ctx).Model(&model.Category{}).Where("parent_id = ?", parentID)
	if !includeDeleted {
		q = notDeleted(q)
	}
	var ids []uuid.UUID
	err := q.Pluck("id", &ids).Error
	return ids, err
}

func (r *categoryRepo) ListByIDsIncludeDeleted(ctx context.Context, ids []uuid.UUID) ([]model.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.Category
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name asc").Find(&list).Error
	return list, err
}

func (r *categoryRepo) MarkDeleted(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Category{}).
		Where("id IN ?", ids).
		Update("delete_status", model.Deleted).Error
}

func (r *categoryRepo) Restore(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("id = ?", id).
		Update("delete_status", model.NotDeleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domerr.ErrNotFound
	}
	return nil
}

func (r *categoryRepo) CountProducts(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("category_id IN ? AND delete_status = ?", ids, model.NotDeleted).
		Count(&n).Error
	return n, err
}
