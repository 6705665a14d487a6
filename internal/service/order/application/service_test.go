package application

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"stockpile/internal/service/order/domain"
	"stockpile/internal/service/order/infrastructure"
	"stockpile/internal/service/order/port"
)

// fakeStockReserver 是 StockReserver 端口的测试替身，记录所有调用。
type fakeStockReserver struct {
	mu sync.Mutex

	reserveInfo *domain.StockInfo
	reserveErr  error
	confirmErr  error
	releaseErr  error

	reserveCalls []string
	releaseCalls []string
	confirmCalls []string
}

func (f *fakeStockReserver) Reserve(ctx context.Context, productID string, quantity int, orderID string) (*domain.StockInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reserveCalls = append(f.reserveCalls, orderID)
	if f.reserveErr != nil {
		return nil, f.reserveErr
	}
	return f.reserveInfo, nil
}

func (f *fakeStockReserver) Release(ctx context.Context, productID string, quantity int, orderID string) (*domain.ReleaseInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseCalls = append(f.releaseCalls, orderID)
	if f.releaseErr != nil {
		return nil, f.releaseErr
	}
	return &domain.ReleaseInfo{ProductID: productID, ReleasedQuantity: quantity}, nil
}

func (f *fakeStockReserver) Confirm(ctx context.Context, productID string, quantity int, orderID string) (*domain.ConfirmInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmCalls = append(f.confirmCalls, orderID)
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return &domain.ConfirmInfo{ProductID: productID, ConfirmedQuantity: quantity}, nil
}

func newTestService(stock port.StockReserver) (*OrderApplicationService, *infrastructure.InMemoryOrderRepository) {
	repo := infrastructure.NewInMemoryOrderRepository()
	svc := NewOrderApplicationService(repo, stock, otel.Tracer("test"))
	return svc, repo
}

func TestCreateOrder_StockSufficient(t *testing.T) {
	stock := &fakeStockReserver{reserveInfo: &domain.StockInfo{
		Available:      true,
		ProductID:      "PROD001",
		AvailableStock: 40,
	}}
	svc, repo := newTestService(stock)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		ProductID: "PROD001", Quantity: 10, CustomerName: "alice",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmed, order.Status)
	require.Equal(t, domain.StockSufficient, order.StockStatus)
	require.NotNil(t, order.StockInfo)

	stored, err := repo.FindByID(context.Background(), order.OrderID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmed, stored.Status)
}

func TestCreateOrder_StockInsufficient_IsNotAnError(t *testing.T) {
	stock := &fakeStockReserver{reserveInfo: &domain.StockInfo{
		Available:      false,
		ProductID:      "PROD001",
		AvailableStock: 3,
	}}
	svc, repo := newTestService(stock)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		ProductID: "PROD001", Quantity: 10, CustomerName: "alice",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, order.Status)
	require.Equal(t, domain.StockInsufficient, order.StockStatus)

	stored, err := repo.FindByID(context.Background(), order.OrderID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, stored.Status)

	// 库存不足不触发补偿释放
	require.Empty(t, stock.releaseCalls)
}

func TestCreateOrder_TransportFailure(t *testing.T) {
	stock := &fakeStockReserver{reserveErr: errors.New("dial tcp: connection refused")}
	svc, repo := newTestService(stock)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		ProductID: "PROD001", Quantity: 10, CustomerName: "alice",
	})
	require.Error(t, err)
	require.NotNil(t, order)
	require.Equal(t, domain.StatusError, order.Status)
	require.Equal(t, domain.StockCheckFailed, order.StockStatus)
	require.NotEmpty(t, order.Error)

	// 订单没有丢：仍可按 ID 查询
	stored, findErr := repo.FindByID(context.Background(), order.OrderID)
	require.NoError(t, findErr)
	require.Equal(t, domain.StatusError, stored.Status)

	// 补偿释放使用同一个 orderID，账本侧按幂等键钳制，重复无害
	require.Equal(t, []string{order.OrderID}, stock.releaseCalls)
}

func TestCreateOrder_ProductNotFound_NoCompensation(t *testing.T) {
	stock := &fakeStockReserver{reserveErr: port.ErrProductNotFound}
	svc, _ := newTestService(stock)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		ProductID: "PROD999", Quantity: 1, CustomerName: "alice",
	})
	require.Error(t, err)
	require.Equal(t, domain.StatusError, order.Status)

	// 未知商品是终态结果，账本无变更，不应释放
	require.Empty(t, stock.releaseCalls)
}

func TestCreateOrder_Validation(t *testing.T) {
	stock := &fakeStockReserver{}
	svc, repo := newTestService(stock)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		ProductID: "PROD001", Quantity: 0, CustomerName: "alice",
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	// 校验失败的请求不会触达账本，也不会留下订单
	require.Empty(t, stock.reserveCalls)
	orders, _ := repo.List(context.Background())
	require.Empty(t, orders)
}

func TestConfirmOrder(t *testing.T) {
	stock := &fakeStockReserver{reserveInfo: &domain.StockInfo{Available: true}}
	svc, _ := newTestService(stock)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		ProductID: "PROD001", Quantity: 10, CustomerName: "alice",
	})
	require.NoError(t, err)

	confirmed, err := svc.ConfirmOrder(context.Background(), order.OrderID)
	require.NoError(t, err)
	require.NotNil(t, confirmed.ConfirmedAt)
	require.Equal(t, []string{order.OrderID}, stock.confirmCalls)

	// 重复确认被拒绝
	_, err = svc.ConfirmOrder(context.Background(), order.OrderID)
	require.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestConfirmOrder_WrongState(t *testing.T) {
	stock := &fakeStockReserver{reserveInfo: &domain.StockInfo{Available: false}}
	svc, _ := newTestService(stock)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		ProductID: "PROD001", Quantity: 10, CustomerName: "alice",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, order.Status)

	_, err = svc.ConfirmOrder(context.Background(), order.OrderID)
	require.ErrorIs(t, err, domain.ErrStateConflict)
	require.Empty(t, stock.confirmCalls)
}

func TestConfirmOrder_NotFound(t *testing.T) {
	svc, _ := newTestService(&fakeStockReserver{})

	_, err := svc.ConfirmOrder(context.Background(), "ORD-missing")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestCancelOrder_ReleasesStock(t *testing.T) {
	stock := &fakeStockReserver{reserveInfo: &domain.StockInfo{Available: true}}
	svc, repo := newTestService(stock)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		ProductID: "PROD001", Quantity: 10, CustomerName: "alice",
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(context.Background(), order.OrderID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.Equal(t, []string{order.OrderID}, stock.releaseCalls)

	stored, _ := repo.FindByID(context.Background(), order.OrderID)
	require.Equal(t, domain.StatusCancelled, stored.Status)
}
