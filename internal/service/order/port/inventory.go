// internal/service/order/port/inventory.go
package port

import (
	"context"
	"errors"

	"stockpile/internal/service/order/domain"
)

// ErrProductNotFound 表示库存服务不认识该商品。
// 这是终态结果，重试没有意义。
var ErrProductNotFound = errors.New("product not found in inventory")

// StockReserver 是订单服务的出站端口：三阶段库存协议的调用方视角。
// Reserve 是 saga 的正向步骤，Release 是它文档化的补偿动作，
// Confirm 把预占转为永久扣减。三者都以 orderID 作为幂等关联键。
type StockReserver interface {
	Reserve(ctx context.Context, productID string, quantity int, orderID string) (*domain.StockInfo, error)
	Release(ctx context.Context, productID string, quantity int, orderID string) (*domain.ReleaseInfo, error)
	Confirm(ctx context.Context, productID string, quantity int, orderID string) (*domain.ConfirmInfo, error)
}
