package service

import (
	"context"
	"fmt"
	"time"

	"shopcore/internal/domerr"
	"shopcore/internal/dto"
	"shopcore/internal/model"
	"shopcore/internal/repository"
	"shopcore/internal/reqctx"
	"shopcore/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService owns the order lifecycle. Creation and every status
// transition run as one transaction: ledger side effects, the status
// write with its timestamp, and the audit row either all commit or all
// roll back — partial application is not an acceptable failure mode.
type OrderService interface {
	// Create snapshots the product's final price, decrements stock
	// conditionally, and appends the initial history row. Insufficient
	// stock fails the whole creation; no order or history row survives.
	Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error)

	Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, limit int) ([]dto.OrderResponse, error)

	// SetStatus applies one transition with its coupled side effects:
	// re-entering Pending decrements stock again, entering Cancelled
	// refunds it. Cancelled is rejected from Shipped and Delivered; any
	// other assignment is accepted. Setting the current status again is
	// a no-op with no side effects and no history row.
	SetStatus(ctx context.Context, id uuid.UUID, newStatus model.OrderStatus, notes *string) (*dto.OrderResponse, error)

	// CancelStalePending cancels Pending orders created before the
	// cutoff, attributed to the system channel.
	CancelStalePending(ctx context.Context, before time.Time, limit int) (int, error)
}

type orderService struct {
	repo        repository.OrderRepository
	productRepo repository.ProductRepository
	recorder    *HistoryRecorder
	dispatcher  *worker.Dispatcher
}

func NewOrderService(
	repo repository.OrderRepository,
	productRepo repository.ProductRepository,
	recorder *HistoryRecorder,
	dispatcher *worker.Dispatcher,
) OrderService {
	return &orderService{
		repo:        repo,
		productRepo: productRepo,
		recorder:    recorder,
		dispatcher:  dispatcher,
	}
}

func mapOrder(o model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:              o.ID,
		OrderCode:       o.OrderCode,
		ProductID:       o.ProductID,
		Quantity:        o.Quantity,
		UnitPrice:       o.UnitPrice,
		TotalPrice:      o.TotalPrice,
		Status:          int(o.Status),
		StatusDisplay:   o.Status.String(),
		StatusChangedAt: o.StatusChangedAt,
		CreatedAt:       o.CreatedAt,
	}
	if o.Product != nil {
		resp.ProductName = o.Product.Name
	}
	for _, h := range o.StatusHistory {
		entry := dto.TimelineEntry{
			NewStatus:     int(h.NewStatus),
			StatusDisplay: h.NewStatus.String(),
			ChangedBy:     h.ChangedBy,
			ChangeSource:  string(h.ChangeSource),
			IPAddress:     h.IPAddress,
			Notes:         h.Notes,
			CreatedAt:     h.CreatedAt,
		}
		if h.OldStatus != nil {
			old := int(*h.OldStatus)
			entry.OldStatus = &old
		}
		resp.Timeline = append(resp.Timeline, entry)
	}
	return resp
}

func (s *orderService) Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if req.Quantity < 1 {
		return nil, domerr.Validation("quantity", "must be >= 1")
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, domerr.Validation("product_id", "invalid uuid")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	unitPrice := product.FinalPrice()
	totalPrice := unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2)

	var order model.Order
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Conditional decrement first: if stock is short the whole
		// creation aborts here, before anything is persisted.
		if err := s.productRepo.DecrementStockTx(tx, productID, req.Quantity); err != nil {
			return err
		}

		now := time.Now()
		order = model.Order{
			OrderCode:       model.NewOrderCode(),
			ProductID:       productID,
			Quantity:        req.Quantity,
			UnitPrice:       unitPrice,
			TotalPrice:      totalPrice,
			Status:          model.StatusPending,
			StatusChangedAt: &now,
		}
		if err := s.repo.CreateTx(tx, &order); err != nil {
			return err
		}

		// Implicit creation transition: no previous status.
		return s.recorder.RecordTx(tx, order.ID, nil, order.Status, nil, reqctx.From(ctx))
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateCache(ctx, product.Code)
	order.Product = product
	resp := mapOrder(order)
	return &resp, nil
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.repo.FindWithTimeline(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := mapOrder(*o)
	return &resp, nil
}

func (s *orderService) List(ctx context.Context, limit int) ([]dto.OrderResponse, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	list, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	result := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		result = append(result, mapOrder(o))
	}
	return result, nil
}

func (s *orderService) SetStatus(ctx context.Context, id uuid.UUID, newStatus model.OrderStatus, notes *string) (*dto.OrderResponse, error) {
	if !newStatus.Valid() {
		return nil, domerr.Validation("status", "unknown status code")
	}

	var (
		order       model.Order
		productCode string
	)
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Row lock serializes concurrent transitions on the same order:
		// two transactions cannot both read the same old status.
		o, err := s.repo.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return err
		}
		oldStatus := o.Status

		if oldStatus == newStatus {
			// Re-assigning the current status has no effects.
			order = *o
			return nil
		}

		if newStatus == model.StatusCancelled &&
			(oldStatus == model.StatusShipped || oldStatus == model.StatusDelivered) {
			return domerr.Validation("status", fmt.Sprintf("cannot cancel a %s order", oldStatus))
		}

		// Ledger side effects coupled to the transition. Moving back
		// into Pending decrements again, mirroring the creation rule.
		switch {
		case newStatus == model.StatusPending:
			if err := s.productRepo.DecrementStockTx(tx, o.ProductID, o.Quantity); err != nil {
				return err
			}
		case newStatus == model.StatusCancelled:
			if err := s.productRepo.IncrementStockTx(tx, o.ProductID, o.Quantity); err != nil {
				return err
			}
		}

		now := time.Now()
		if err := s.repo.UpdateStatusTx(tx, id, newStatus, now); err != nil {
			return err
		}
		if err := s.recorder.RecordTx(tx, id, &oldStatus, newStatus, notes, reqctx.From(ctx)); err != nil {
			return err
		}

		if p, err := s.productRepo.FindByIDTx(tx, o.ProductID); err == nil {
			productCode = p.Code
		}

		order = *o
		order.Status = newStatus
		order.StatusChangedAt = &now
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if productCode != "" {
		s.invalidateCache(ctx, productCode)
	}
	resp := mapOrder(order)
	return &resp, nil
}

func (s *orderService) CancelStalePending(ctx context.Context, before time.Time, limit int) (int, error) {
	stale, err := s.repo.ListStalePending(ctx, before, limit)
	if err != nil {
		return 0, err
	}

	note := "auto-cancelled: pending TTL expired"
	cancelled := 0
	for _, o := range stale {
		// The sweeper runs without a request context, so each row is
		// attributed to the system channel.
		if _, err := s.SetStatus(ctx, o.ID, model.StatusCancelled, &note); err != nil {
			log.Error().Str("order_code", o.OrderCode).Err(err).Msg("stale cancel failed")
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

func (s *orderService) invalidateCache(ctx context.Context, code string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.EnqueueCacheInvalidation(ctx, code)
}
