package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"shopcore/internal/domerr"
	"shopcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository stubs. Services open transactions through
// repo.DB(); the stubs return nil there, so runTx calls the closure
// directly and the same service code paths run without a database.

type stubCategoryRepo struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*model.Category
	productCnt map[uuid.UUID]int64
}

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{
		categories: make(map[uuid.UUID]*model.Category),
		productCnt: make(map[uuid.UUID]int64),
	}
}

// add seeds a category directly, bypassing service validation.
func (s *stubCategoryRepo) add(c *model.Category) *model.Category {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.categories[c.ID] = c
	return c
}

func copyCategory(c *model.Category) *model.Category {
	cp := *c
	return &cp
}

func (s *stubCategoryRepo) Create(_ context.Context, c *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(c)
	return nil
}

func (s *stubCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.IsDeleted() {
		return nil, domerr.ErrNotFound
	}
	return copyCategory(c), nil
}

func (s *stubCategoryRepo) FindByIDIncludeDeleted(_ context.Context, id uuid.UUID) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, domerr.ErrNotFound
	}
	return copyCategory(c), nil
}

func (s *stubCategoryRepo) Update(_ context.Context, c *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return domerr.ErrNotFound
	}
	s.categories[c.ID] = copyCategory(c)
	return nil
}

func (s *stubCategoryRepo) ListChildren(_ context.Context, parentID uuid.UUID, activeOnly bool) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.Category
	for _, c := range s.categories {
		if c.ParentID == nil || *c.ParentID != parentID || c.IsDeleted() {
			continue
		}
		if activeOnly && !c.Active {
			continue
		}
		list = append(list, *c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (s *stubCategoryRepo) ListRoots(_ context.Context, activeOnly bool) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.Category
	for _, c := range s.categories {
		if c.ParentID != nil || c.IsDeleted() {
			continue
		}
		if activeOnly && !c.Active {
			continue
		}
		list = append(list, *c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (s *stubCategoryRepo) ChildIDs(_ context.Context, parentID uuid.UUID, includeDeleted bool) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for _, c := range s.categories {
		if c.ParentID == nil || *c.ParentID != parentID {
			continue
		}
		if !includeDeleted && c.IsDeleted() {
			continue
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (s *stubCategoryRepo) ListByIDsIncludeDeleted(_ context.Context, ids []uuid.UUID) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.Category
	for _, id := range ids {
		if c, ok := s.categories[id]; ok {
			list = append(list, *c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (s *stubCategoryRepo) MarkDeleted(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if c, ok := s.categories[id]; ok {
			c.DeleteStatus = model.Deleted
		}
	}
	return nil
}

func (s *stubCategoryRepo) Restore(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return domerr.ErrNotFound
	}
	c.DeleteStatus = model.NotDeleted
	return nil
}

func (s *stubCategoryRepo) CountProducts(_ context.Context, ids []uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		n += s.productCnt[id]
	}
	return n, nil
}

type stubProductRepo struct {
	mu        sync.Mutex
	products  map[uuid.UUID]*model.Product
	ordersCnt map[uuid.UUID]int64
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		products:  make(map[uuid.UUID]*model.Product),
		ordersCnt: make(map[uuid.UUID]int64),
	}
}

func (s *stubProductRepo) add(p *model.Product) *model.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.products[p.ID] = p
	return p
}

func (s *stubProductRepo) stock(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].StockQuantity
}

func copyProduct(p *model.Product) *model.Product {
	cp := *p
	return &cp
}

func (s *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(p)
	return nil
}

func (s *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.IsDeleted() {
		return nil, domerr.ErrNotFound
	}
	return copyProduct(p), nil
}

func (s *stubProductRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return s.FindByID(context.Background(), id)
}

func (s *stubProductRepo) FindByCode(_ context.Context, code string) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Code == code && !p.IsDeleted() {
			return copyProduct(p), nil
		}
	}
	return nil, domerr.ErrNotFound
}

func (s *stubProductRepo) List(_ context.Context, activeOnly bool) ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.Product
	for _, p := range s.products {
		if p.IsDeleted() {
			continue
		}
		if activeOnly && !p.Active {
			continue
		}
		list = append(list, *p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (s *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return domerr.ErrNotFound
	}
	s.products[p.ID] = copyProduct(p)
	return nil
}

func (s *stubProductRepo) MarkDeleted(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.IsDeleted() {
		return domerr.ErrNotFound
	}
	p.DeleteStatus = model.Deleted
	return nil
}

// DecrementStockTx mirrors the conditional UPDATE: the check and the
// subtraction happen under one lock, never read-modify-write outside it.
func (s *stubProductRepo) DecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.StockQuantity < qty {
		return domerr.ErrInsufficientStock
	}
	p.StockQuantity -= qty
	return nil
}

func (s *stubProductRepo) IncrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domerr.ErrNotFound
	}
	p.StockQuantity += qty
	return nil
}

func (s *stubProductRepo) CountOrders(_ context.Context, productID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ordersCnt[productID], nil
}

func (s *stubProductRepo) DB() *gorm.DB { return nil }

type stubOrderRepo struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]*model.Order
	history *stubHistoryRepo
}

func newStubOrderRepo(history *stubHistoryRepo) *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.Order), history: history}
}

func copyOrder(o *model.Order) *model.Order {
	cp := *o
	return &cp
}

func (s *stubOrderRepo) CreateTx(_ *gorm.DB, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	s.orders[o.ID] = copyOrder(o)
	return nil
}

func (s *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.IsDeleted() {
		return nil, domerr.ErrNotFound
	}
	return copyOrder(o), nil
}

func (s *stubOrderRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Order, error) {
	return s.FindByID(context.Background(), id)
}

func (s *stubOrderRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status model.OrderStatus, changedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domerr.ErrNotFound
	}
	o.Status = status
	o.StatusChangedAt = &changedAt
	return nil
}

func (s *stubOrderRepo) FindWithTimeline(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.history != nil {
		o.StatusHistory, _ = s.history.ListByOrder(ctx, id)
	}
	return o, nil
}

func (s *stubOrderRepo) List(_ context.Context, limit int) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.Order
	for _, o := range s.orders {
		if !o.IsDeleted() {
			list = append(list, *o)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *stubOrderRepo) ListStalePending(_ context.Context, before time.Time, limit int) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.Order
	for _, o := range s.orders {
		if o.Status == model.StatusPending && o.CreatedAt.Before(before) && !o.IsDeleted() {
			list = append(list, *o)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *stubOrderRepo) DB() *gorm.DB { return nil }

type stubHistoryRepo struct {
	mu   sync.Mutex
	rows []model.OrderStatusHistory
}

func newStubHistoryRepo() *stubHistoryRepo { return &stubHistoryRepo{} }

func (s *stubHistoryRepo) AppendTx(_ *gorm.DB, h *model.OrderStatusHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	s.rows = append(s.rows, *h)
	return nil
}

func (s *stubHistoryRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.OrderStatusHistory
	for _, h := range s.rows {
		if h.OrderID == orderID {
			list = append(list, h)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (s *stubHistoryRepo) byOrder(orderID uuid.UUID) []model.OrderStatusHistory {
	list, _ := s.ListByOrder(context.Background(), orderID)
	return list
}
