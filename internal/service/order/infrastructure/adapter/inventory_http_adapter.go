// internal/service/order/infrastructure/adapter/inventory_http_adapter.go
package adapter

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"stockpile/internal/pkg/httpclient"
	"stockpile/internal/service/order/domain"
	"stockpile/internal/service/order/port"
)

// InventoryHTTPAdapter 实现了 port.StockReserver 接口。
// 每次调用都带独立超时；超时或网络故障以 error 形式上抛，
// 由编排层转换为订单的 check_failed 状态。
type InventoryHTTPAdapter struct {
	client      *httpclient.Client
	baseURL     string
	callTimeout time.Duration
}

// NewInventoryHTTPAdapter 创建一个新的库存服务适配器。
func NewInventoryHTTPAdapter(client *httpclient.Client, baseURL string, callTimeout time.Duration) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{client: client, baseURL: baseURL, callTimeout: callTimeout}
}

type stockCallRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	OrderID   string `json:"orderId"`
}

// Reserve 调用 check-and-reserve。库存不足不是错误：
// 它体现在返回的 StockInfo.Available 上，HTTP 层面仍是成功应答。
func (a *InventoryHTTPAdapter) Reserve(ctx context.Context, productID string, quantity int, orderID string) (*domain.StockInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	var resp struct {
		Success bool `json:"success"`
		Error   bool `json:"error"`
		domain.StockInfo
	}
	status, err := a.client.PostJSON(ctx, a.baseURL+"/check-stock", stockCallRequest{
		ProductID: productID,
		Quantity:  quantity,
		OrderID:   orderID,
	}, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "call inventory check-stock")
	}
	if status == http.StatusNotFound {
		return nil, errors.Wrapf(port.ErrProductNotFound, "product %s", productID)
	}
	if status != http.StatusOK {
		return nil, errors.Errorf("inventory check-stock returned status %d: %s", status, resp.Message)
	}
	info := resp.StockInfo
	return &info, nil
}

// Release 是预占的补偿动作，释放量由库存侧钳制，重复调用安全。
func (a *InventoryHTTPAdapter) Release(ctx context.Context, productID string, quantity int, orderID string) (*domain.ReleaseInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	var resp struct {
		Success bool   `json:"success"`
		Error   bool   `json:"error"`
		Message string `json:"message"`
		domain.ReleaseInfo
	}
	status, err := a.client.PostJSON(ctx, a.baseURL+"/release-stock", stockCallRequest{
		ProductID: productID,
		Quantity:  quantity,
		OrderID:   orderID,
	}, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "call inventory release-stock")
	}
	if status == http.StatusNotFound {
		return nil, errors.Wrapf(port.ErrProductNotFound, "product %s", productID)
	}
	if status != http.StatusOK {
		return nil, errors.Errorf("inventory release-stock returned status %d: %s", status, resp.Message)
	}
	info := resp.ReleaseInfo
	return &info, nil
}

// Confirm 把该订单的预占转为永久扣减。
func (a *InventoryHTTPAdapter) Confirm(ctx context.Context, productID string, quantity int, orderID string) (*domain.ConfirmInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	var resp struct {
		Success bool   `json:"success"`
		Error   bool   `json:"error"`
		Message string `json:"message"`
		domain.ConfirmInfo
	}
	status, err := a.client.PostJSON(ctx, a.baseURL+"/confirm-stock", stockCallRequest{
		ProductID: productID,
		Quantity:  quantity,
		OrderID:   orderID,
	}, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "call inventory confirm-stock")
	}
	if status == http.StatusNotFound {
		return nil, errors.Wrapf(port.ErrProductNotFound, "product %s", productID)
	}
	if status != http.StatusOK {
		return nil, errors.Errorf("inventory confirm-stock returned status %d: %s", status, resp.Message)
	}
	info := resp.ConfirmInfo
	return &info, nil
}
