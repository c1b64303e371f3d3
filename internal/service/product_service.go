package service

import (
	"context"
	"fmt"

	"shopcore/internal/domerr"
	"shopcore/internal/dto"
	"shopcore/internal/model"
	"shopcore/internal/repository"
	"shopcore/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductService defines business operations for products and the
// inventory ledger. Stock never goes negative: decrements are conditional
// at the storage layer and fail with domerr.ErrInsufficientStock.
type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	GetByCode(ctx context.Context, code string) (*dto.ProductResponse, error)
	List(ctx context.Context, activeOnly bool) ([]dto.ProductResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)

	// SoftDelete is blocked while non-deleted orders reference the product.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	DecreaseStock(ctx context.Context, id uuid.UUID, qty int) error
	IncreaseStock(ctx context.Context, id uuid.UUID, qty int) error
}

type productService struct {
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
	dispatcher   *worker.Dispatcher
}

func NewProductService(repo repository.ProductRepository, categoryRepo repository.CategoryRepository, dispatcher *worker.Dispatcher) ProductService {
	return &productService{repo: repo, categoryRepo: categoryRepo, dispatcher: dispatcher}
}

func mapProduct(p model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Code:            p.Code,
		Description:     p.Description,
		CategoryID:      p.CategoryID,
		BasePrice:       p.BasePrice,
		DiscountPercent: p.DiscountPercent,
		FinalPrice:      p.FinalPrice(),
		StockQuantity:   p.StockQuantity,
		InStock:         p.InStock(),
		Active:          p.Active,
	}
}

func validatePricing(basePrice decimal.Decimal, discountPercent int) error {
	if basePrice.IsNegative() {
		return domerr.Validation("base_price", "must be >= 0")
	}
	if discountPercent < 0 || discountPercent > 100 {
		return domerr.Validation("discount_percent", "must be between 0 and 100")
	}
	return nil
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := validatePricing(req.BasePrice, req.DiscountPercent); err != nil {
		return nil, err
	}
	if req.StockQuantity < 0 {
		return nil, domerr.Validation("stock_quantity", "must be >= 0")
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, domerr.Validation("category_id", "invalid uuid")
	}
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		return nil, domerr.Validation("category_id", "category not found")
	}

	if _, err := s.repo.FindByCode(ctx, req.Code); err == nil {
		return nil, domerr.Validation("code", "a product with this code already exists")
	}

	p := &model.Product{
		Name:            req.Name,
		Code:            req.Code,
		Description:     req.Description,
		CategoryID:      categoryID,
		BasePrice:       req.BasePrice,
		DiscountPercent: req.DiscountPercent,
		StockQuantity:   req.StockQuantity,
		Active:          true,
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := mapProduct(*p)
	return &resp, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := mapProduct(*p)
	return &resp, nil
}

func (s *productService) GetByCode(ctx context.Context, code string) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	resp := mapProduct(*p)
	return &resp, nil
}

func (s *productService) List(ctx context.Context, activeOnly bool) ([]dto.ProductResponse, error) {
	list, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		result = append(result, mapProduct(p))
	}
	return result, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, domerr.Validation("category_id", "invalid uuid")
		}
		if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
			return nil, domerr.Validation("category_id", "category not found")
		}
		p.CategoryID = categoryID
	}
	if req.BasePrice != nil {
		p.BasePrice = *req.BasePrice
	}
	if req.DiscountPercent != nil {
		p.DiscountPercent = *req.DiscountPercent
	}
	if err := validatePricing(p.BasePrice, p.DiscountPercent); err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.invalidateCache(ctx, p.Code)
	resp := mapProduct(*p)
	return &resp, nil
}

func (s *productService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	n, err := s.repo.CountOrders(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("product has %d order(s): %w", n, domerr.ErrReferenceProtected)
	}

	if err := s.repo.MarkDeleted(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx, p.Code)
	return nil
}

func (s *productService) DecreaseStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return domerr.Validation("quantity", "must be >= 1")
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.DecrementStockTx(tx, id, qty)
	})
	if err != nil {
		return err
	}
	s.invalidateCache(ctx, p.Code)
	return nil
}

func (s *productService) IncreaseStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return domerr.Validation("quantity", "must be >= 1")
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.IncrementStockTx(tx, id, qty)
	})
	if err != nil {
		return err
	}
	s.invalidateCache(ctx, p.Code)
	return nil
}

// invalidateCache enqueues a price-cache purge. Best effort: a stale
// cache entry expires on its own TTL.
func (s *productService) invalidateCache(ctx context.Context, code string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.EnqueueCacheInvalidation(ctx, code)
}
