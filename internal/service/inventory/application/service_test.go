package application

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"stockpile/internal/service/inventory/domain"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger := NewLedger()
	require.NoError(t, ledger.AddProduct("PROD001", "iPhone 15 Pro", 50))
	require.NoError(t, ledger.AddProduct("PROD002", "MacBook Air", 30))
	return ledger
}

func TestCheckAndReserve_ReservesStock(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	result, err := ledger.CheckAndReserve(ctx, "PROD001", 10, "order-1")
	require.NoError(t, err)
	require.True(t, result.Available)
	require.Equal(t, 40, result.AvailableStock)
	require.Equal(t, 50, result.TotalStock)
	require.Equal(t, 10, result.ReservedStock)

	// 剩余可用 40，再要 45 必须被拒绝，且账目不变
	result, err = ledger.CheckAndReserve(ctx, "PROD001", 45, "order-2")
	require.NoError(t, err)
	require.False(t, result.Available)
	require.Equal(t, 40, result.AvailableStock)
	require.Equal(t, 10, result.ReservedStock)

	view, err := ledger.GetStock("PROD001")
	require.NoError(t, err)
	require.Equal(t, 50, view.TotalStock)
	require.Equal(t, 10, view.ReservedStock)
}

func TestCheckAndReserve_UnknownProduct(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.CheckAndReserve(context.Background(), "PROD999", 1, "order-1")
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	logs := ledger.RecentLogs(50)
	require.Len(t, logs, 1)
	require.Equal(t, domain.OpCheck, logs[0].Operation)
	require.Equal(t, domain.ResultNotFound, logs[0].Result)
}

func TestCheckAndReserve_InvalidInput(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.CheckAndReserve(context.Background(), "PROD001", 0, "order-1")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = ledger.CheckAndReserve(context.Background(), "", 1, "order-1")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	// 校验失败不产生日志
	require.Equal(t, 0, ledger.LogCount())
}

func TestCheckAndReserve_IdempotentByOrderID(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	first, err := ledger.CheckAndReserve(ctx, "PROD001", 10, "order-dup")
	require.NoError(t, err)

	second, err := ledger.CheckAndReserve(ctx, "PROD001", 10, "order-dup")
	require.NoError(t, err)
	require.Equal(t, first, second)

	// 重复调用不会二次预占
	view, err := ledger.GetStock("PROD001")
	require.NoError(t, err)
	require.Equal(t, 10, view.ReservedStock)

	logs := ledger.RecentLogs(50)
	require.Len(t, logs, 2)
	require.Equal(t, domain.ResultSuccess, logs[0].Result)
	require.Equal(t, domain.ResultDuplicate, logs[1].Result)
}

func TestRelease_ClampsToReserved(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CheckAndReserve(ctx, "PROD001", 3, "order-1")
	require.NoError(t, err)

	result, err := ledger.Release(ctx, "PROD001", 5, "order-1")
	require.NoError(t, err)
	require.Equal(t, 3, result.ReleasedQuantity)
	require.Equal(t, 0, result.ReservedStock)
	require.Equal(t, 50, result.AvailableStock)

	// 预占已清空后的重复释放是 0 数量的成功，不是错误
	result, err = ledger.Release(ctx, "PROD001", 5, "order-1")
	require.NoError(t, err)
	require.Equal(t, 0, result.ReleasedQuantity)
}

func TestRelease_RestoresPreReservationState(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	before, err := ledger.GetStock("PROD002")
	require.NoError(t, err)

	_, err = ledger.CheckAndReserve(ctx, "PROD002", 7, "order-rt")
	require.NoError(t, err)
	_, err = ledger.Release(ctx, "PROD002", 7, "order-rt")
	require.NoError(t, err)

	after, err := ledger.GetStock("PROD002")
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestConfirm_ReducesTotalAndReservedTogether(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CheckAndReserve(ctx, "PROD001", 10, "order-c")
	require.NoError(t, err)

	result, err := ledger.Confirm(ctx, "PROD001", 10, "order-c")
	require.NoError(t, err)
	require.Equal(t, 10, result.ConfirmedQuantity)
	require.Equal(t, 40, result.RemainingStock)
	require.Equal(t, 0, result.ReservedStock)

	view, err := ledger.GetStock("PROD001")
	require.NoError(t, err)
	require.Equal(t, 40, view.TotalStock)
	require.Equal(t, 0, view.ReservedStock)
	require.Equal(t, 40, view.AvailableStock)
}

func TestConfirm_ClampsToReserved(t *testing.T) {
	ledger := newTestLedger(t)

	// 没有任何预占时确认是合法的 no-op
	result, err := ledger.Confirm(context.Background(), "PROD001", 5, "order-x")
	require.NoError(t, err)
	require.Equal(t, 0, result.ConfirmedQuantity)
	require.Equal(t, 50, result.RemainingStock)
}

func TestConcurrentReserve_NeverOversells(t *testing.T) {
	ledger := NewLedger()
	require.NoError(t, ledger.AddProduct("PROD100", "Widget", 50))

	const workers = 20
	const quantity = 10 // 最多 floor(50/10) = 5 个成功

	var wg sync.WaitGroup
	successes := make(chan domain.ReservationResult, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			result, err := ledger.CheckAndReserve(context.Background(), "PROD100", quantity, fmt.Sprintf("order-%d", n))
			if err == nil && result.Available {
				successes <- result
			}
		}(i)
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	require.Equal(t, 5, count)

	view, err := ledger.GetStock("PROD100")
	require.NoError(t, err)
	require.Equal(t, 50, view.ReservedStock)
	require.Equal(t, 0, view.AvailableStock)
	require.GreaterOrEqual(t, view.TotalStock, view.ReservedStock)
}

func TestOperationLog_PreservesSerializationOrder(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	ledger.CheckAndReserve(ctx, "PROD001", 5, "order-1")
	ledger.CheckAndReserve(ctx, "PROD001", 100, "order-2") // insufficient
	ledger.Release(ctx, "PROD001", 5, "order-1")
	ledger.Confirm(ctx, "PROD001", 1, "order-3")

	logs := ledger.RecentLogs(50)
	require.Len(t, logs, 4)
	require.Equal(t, domain.OpReserve, logs[0].Operation)
	require.Equal(t, domain.OpCheck, logs[1].Operation)
	require.Equal(t, domain.ResultInsufficient, logs[1].Result)
	require.Equal(t, domain.OpRelease, logs[2].Operation)
	require.Equal(t, domain.OpConfirm, logs[3].Operation)
}

func TestLogCount_IndependentOfWindow(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		ledger.CheckAndReserve(ctx, "PROD001", 1000, fmt.Sprintf("order-%d", i)) // 全部 insufficient
	}

	require.Equal(t, 60, ledger.LogCount())
	require.Len(t, ledger.RecentLogs(50), 50)
}

func TestGetStock_ReadIsIdempotent(t *testing.T) {
	ledger := newTestLedger(t)

	first, err := ledger.GetStock("PROD001")
	require.NoError(t, err)
	second, err := ledger.GetStock("PROD001")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestListStock_SortedByProductID(t *testing.T) {
	ledger := newTestLedger(t)

	views := ledger.ListStock()
	require.Len(t, views, 2)
	require.Equal(t, "PROD001", views[0].ProductID)
	require.Equal(t, "PROD002", views[1].ProductID)
}

func TestAddProduct_RejectsDuplicates(t *testing.T) {
	ledger := newTestLedger(t)

	err := ledger.AddProduct("PROD001", "Duplicate", 10)
	require.ErrorIs(t, err, domain.ErrProductExists)

	err = ledger.AddProduct("", "Nameless", 10)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
