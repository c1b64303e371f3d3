package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"shopcore/internal/domerr"
	"shopcore/internal/dto"
	"shopcore/internal/model"
	"shopcore/internal/reqctx"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	svc         OrderService
	orderRepo   *stubOrderRepo
	productRepo *stubProductRepo
	history     *stubHistoryRepo
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	history := newStubHistoryRepo()
	orderRepo := newStubOrderRepo(history)
	productRepo := newStubProductRepo()
	svc := NewOrderService(orderRepo, productRepo, NewHistoryRecorder(history), nil)
	return &orderFixture{svc: svc, orderRepo: orderRepo, productRepo: productRepo, history: history}
}

func adminCtx(actor, ip string) context.Context {
	return reqctx.With(context.Background(), &reqctx.RequestContext{
		Actor: &actor, IP: &ip, Channel: reqctx.ChannelAdmin,
	})
}

func publicCtx(actor, ip string) context.Context {
	return reqctx.With(context.Background(), &reqctx.RequestContext{
		Actor: &actor, IP: &ip, Channel: reqctx.ChannelPublic,
	})
}

func TestCreateOrderSnapshotsPriceAndDecrementsStock(t *testing.T) {
	f := newOrderFixture(t)
	p := seedProduct(f.productRepo, "WID-1", "100.00", 25, 5)

	resp, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{
		ProductID: p.ID.String(),
		Quantity:  2,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.OrderCode, "ORD-"))
	assert.Len(t, resp.OrderCode, 14)
	assert.Equal(t, resp.OrderCode, strings.ToUpper(resp.OrderCode))

	assert.True(t, resp.UnitPrice.Equal(dec("75.00")))
	assert.True(t, resp.TotalPrice.Equal(dec("150.00")))
	assert.Equal(t, int(model.StatusPending), resp.Status)
	require.NotNil(t, resp.StatusChangedAt)

	assert.Equal(t, 3, f.productRepo.stock(p.ID))

	rows := f.history.byOrder(resp.ID)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].OldStatus) // creation record has no previous status
	assert.Equal(t, model.StatusPending, rows[0].NewStatus)
}

func TestCreateOrderInsufficientStockPersistsNothing(t *testing.T) {
	f := newOrderFixture(t)
	p := seedProduct(f.productRepo, "WID-1", "10.00", 0, 1)

	_, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{
		ProductID: p.ID.String(),
		Quantity:  2,
	})
	require.ErrorIs(t, err, domerr.ErrInsufficientStock)

	assert.Equal(t, 1, f.productRepo.stock(p.ID))
	assert.Empty(t, f.orderRepo.orders)
	assert.Empty(t, f.history.rows)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: "nope", Quantity: 1})
	assert.True(t, domerr.IsValidation(err))

	p := seedProduct(f.productRepo, "WID-1", "10.00", 0, 5)
	_, err = f.svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: p.ID.String(), Quantity: 0})
	assert.True(t, domerr.IsValidation(err))
}

func TestSetStatusWritesTimestampAndHistory(t *testing.T) {
	f := newOrderFixture(t)
	p := seedProduct(f.productRepo, "WID-1", "10.00", 0, 5)
	created, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: p.ID.String(), Quantity: 1})
	require.NoError(t, err)
	before := time.Now()

	resp, err := f.svc.SetStatus(context.Background(), created.ID, model.StatusConfirmed, nil)
	require.NoError(t, err)
	assert.Equal(t, int(model.StatusConfirmed), resp.Status)
	require.NotNil(t, resp.StatusChangedAt)
	assert.False(t, resp.StatusChangedAt.Before(before))

	// Confirming moves no stock.
	assert.Equal(t, 4, f.productRepo.stock(p.ID))

	rows := f.history.byOrder(created.ID)
	require.Len(t, rows, 2)
	newest := rows[0]
	require.NotNil(t, newest.OldStatus)
	assert.Equal(t, model.StatusPending, *newest.OldStatus)
	assert.Equal(t, model.StatusConfirmed, newest.NewStatus)
}

func TestSetStatusSameStatusIsNoOp(t *testing.T) {
	f := newOrderFixture(t)
	p := seedProduct(f.productRepo, "WID-1", "10.00", 0, 5)
	created, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: p.ID.String(), Quantity: 1})
	require.NoError(t, err)

	_, err = f.svc.SetStatus(context.Background(), created.ID, model.StatusPending, nil)
	require.NoError(t, err)

	// No second decrement, no extra history row.
	assert.Equal(t, 4, f.productRepo.stock(p.ID))
	assert.Len(t, f.history.byOrder(created.ID), 1)
}

func TestSetStatusCancelledRefundsStock(t *testing.T) {
	f := newOrderFixture(t)
	p := seedProduct(f.productRepo, "WID-1", "10.00", 0, 5)
	created, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: p.ID.String(), Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, f.productRepo.stock(p.ID))

	_, err = f.svc.SetStatus(context.Background(), created.ID, model.StatusCancelled, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, f.productRepo.stock(p.ID))
}

func TestSetStatusCancelledRejectedAfterShipment(t *testing.T) {
	f := newOrderFixture(t)
	p := seedProduct(f.productRepo, "WID-1", "10.00", 0, 5)

	for _, terminal := range []model.OrderStatus{model.StatusShipped, model.StatusDelivered} {
		created, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: p.ID.String(), Quantity: 1})
		require.NoError(t, err)
		_, err = f.svc.SetStatus(context.Background(), created.ID, terminal, nil)
		require.NoError(t, err)

		stockBefore := f.productRepo.stock(p.ID)
		historyBefore := len(f.history.byOrder(created.ID))

		_, err = f.svc.SetStatus(context.Background(), created.ID, model.StatusCancelled, nil)
		require.Error(t, err)
		assert.True(t, domerr.IsValidation(err))

		// The rejected transition has no effects at all.
		assert.Equal(t, stockBefore, f.productRepo.stock(p.ID))
		assert.Len(t, f.history.byOrder(created.ID), historyBefore)
	}
}

func TestSetStatusBackToPendingDecrementsAgain(t *testing.T) {
	f := newOrderFixture(t)
	p := seedProduct(f.productRepo, "WID-1", "10.00", 0, 5)
	created, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: p.ID.String(), Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, f.productRepo.stock(p.ID))

	_, err = f.svc.SetStatus(context.Background(), created.ID, model.StatusConfirmed, nil)
	require.NoError(t, err)

	// Re-entering Pending repeats the creation-time decrement.
	_, err = f.svc.SetStatus(context.Background(), created.ID, model.StatusPending, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.productRepo.stock(p.ID))
}

func TestSetStatusUnknownCodeRejected(t *testing.T) {
	f := newOrderFixture(t)
	p := seedProduct(f.productRepo, "WID-1", "10.00", 0, 5)
	created, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: p.ID.String(), Quantity: 1})
	require.NoError(t, err)

	_, err = f.svc.SetStatus(context.Background(), created.ID, model.OrderStatus(99), nil)
	assert.True(t, domerr.IsValidation(err))
}

func TestHistoryAttributionByChannel(t *testing.T) {
	f := newOrderFixture(t)
	p := seedProduct(f.productRepo, "WID-1", "10.00", 0, 50)

	// Public channel: source api, actor and IP recorded.
	created, err := f.svc.Create(publicCtx("alice", "10.0.0.1"), dto.CreateOrderRequest{ProductID: p.ID.String(), Quantity: 1})
	require.NoError(t, err)
	row := f.history.byOrder(created.ID)[0]
	assert.Equal(t, model.SourceAPI, row.ChangeSource)
	require.NotNil(t, row.ChangedBy)
	assert.Equal(t, "alice", *row.ChangedBy)
	require.NotNil(t, row.IPAddress)
	assert.Equal(t, "10.0.0.1", *row.IPAddress)

	// Admin channel: source admin.
	_, err = f.svc.SetStatus(adminCtx("bob", "10.0.0.2"), created.ID, model.StatusConfirmed, nil)
	require.NoError(t, err)
	row = f.history.byOrder(created.ID)[0]
	assert.Equal(t, model.SourceAdmin, row.ChangeSource)
	assert.Equal(t, "bob", *row.ChangedBy)

	// No request context at all: a background change, attributed to system.
	_, err = f.svc.SetStatus(context.Background(), created.ID, model.StatusProcessing, nil)
	require.NoError(t, err)
	row = f.history.byOrder(created.ID)[0]
	assert.Equal(t, model.SourceSystem, row.ChangeSource)
	require.NotNil(t, row.ChangedBy)
	assert.Equal(t, "system", *row.ChangedBy)
	assert.Nil(t, row.IPAddress)
}

func TestGetReturnsTimelineNewestFirst(t *testing.T) {
	f := newOrderFixture(t)
	p := seedProduct(f.productRepo, "WID-1", "10.00", 0, 5)
	created, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: p.ID.String(), Quantity: 1})
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	_, err = f.svc.SetStatus(context.Background(), created.ID, model.StatusConfirmed, nil)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = f.svc.SetStatus(context.Background(), created.ID, model.StatusProcessing, nil)
	require.NoError(t, err)

	resp, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, resp.Timeline, 3)
	assert.Equal(t, int(model.StatusProcessing), resp.Timeline[0].NewStatus)
	assert.Equal(t, int(model.StatusConfirmed), resp.Timeline[1].NewStatus)
	assert.Equal(t, int(model.StatusPending), resp.Timeline[2].NewStatus)
	assert.Nil(t, resp.Timeline[2].OldStatus)
}

func TestDoubleCancelRefundsOnce(t *testing.T) {
	f := newOrderFixture(t)
	p := seedProduct(f.productRepo, "WID-1", "10.00", 0, 10)
	created, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: p.ID.String(), Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 8, f.productRepo.stock(p.ID))

	// The second cancel sees the order already Cancelled and becomes a
	// no-op, so the refund is applied exactly once.
	_, err = f.svc.SetStatus(context.Background(), created.ID, model.StatusCancelled, nil)
	require.NoError(t, err)
	_, err = f.svc.SetStatus(context.Background(), created.ID, model.StatusCancelled, nil)
	require.NoError(t, err)

	assert.Equal(t, 10, f.productRepo.stock(p.ID))
	assert.Len(t, f.history.byOrder(created.ID), 2)
}

func TestConcurrentCancelsOnDifferentOrdersBothRefund(t *testing.T) {
	f := newOrderFixture(t)
	p := seedProduct(f.productRepo, "WID-1", "10.00", 0, 10)

	first, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: p.ID.String(), Quantity: 3})
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: p.ID.String(), Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 3, f.productRepo.stock(p.ID))

	// Two distinct orders cancelled at the same time: the increments are
	// atomic at the ledger, so neither refund is lost.
	var wg sync.WaitGroup
	for _, id := range []uuid.UUID{first.ID, second.ID} {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := f.svc.SetStatus(context.Background(), id, model.StatusCancelled, nil)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 10, f.productRepo.stock(p.ID))
}

func TestCancelStalePending(t *testing.T) {
	f := newOrderFixture(t)
	p := seedProduct(f.productRepo, "WID-1", "10.00", 0, 50)

	for i := 0; i < 3; i++ {
		created, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: p.ID.String(), Quantity: 1})
		require.NoError(t, err)
		// Age the order past the cutoff.
		f.orderRepo.mu.Lock()
		f.orderRepo.orders[created.ID].CreatedAt = time.Now().Add(-100 * time.Hour)
		f.orderRepo.mu.Unlock()
	}
	fresh, err := f.svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: p.ID.String(), Quantity: 1})
	require.NoError(t, err)

	n, err := f.svc.CancelStalePending(context.Background(), time.Now().Add(-72*time.Hour), 50)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := f.svc.Get(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, int(model.StatusPending), got.Status)

	// Each cancellation is attributed to the system channel with a note.
	for _, o := range f.orderRepo.orders {
		if o.ID == fresh.ID {
			continue
		}
		assert.Equal(t, model.StatusCancelled, o.Status)
		rows := f.history.byOrder(o.ID)
		require.NotEmpty(t, rows)
		newest := rows[0]
		assert.Equal(t, model.SourceSystem, newest.ChangeSource)
		require.NotNil(t, newest.Notes)
		assert.Contains(t, *newest.Notes, "auto-cancelled")
	}
}
