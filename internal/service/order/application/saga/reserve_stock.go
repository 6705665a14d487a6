// internal/service/order/application/saga/reserve_stock.go
package saga

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"stockpile/internal/pkg/logger"
	"stockpile/internal/service/order/port"
)

// releaseTimeout 限定补偿调用自身的耗时，补偿不继承已失败请求的 context。
const releaseTimeout = 5 * time.Second

// ReserveStockHandler 负责库存预占步骤。
// 预占是 saga 的正向动作，对应的补偿动作是按同一 orderID 释放。
type ReserveStockHandler struct {
	NextHandler
}

func (h *ReserveStockHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.ReserveStock")
	defer span.End()

	order := orderCtx.Order
	span.SetAttributes(
		attribute.String("order.id", order.OrderID),
		attribute.String("product.id", order.ProductID),
		attribute.Int("product.quantity", order.Quantity),
	)

	info, err := orderCtx.Stock.Reserve(ctx, order.ProductID, order.Quantity, order.OrderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock reservation failed")

		// 未知商品是终态结果，账本没有任何变更，无需补偿。
		// 超时/网络故障则可能已在账本侧预占成功（at-least-once 风险），
		// 注册按 orderID 的释放作为补偿：预占带幂等键，未落账时释放被钳制为 0，重复释放无害。
		if !errors.Is(err, port.ErrProductNotFound) {
			orderCtx.AddCompensation(func(compCtx context.Context) {
				compCtx, compSpan := orderCtx.Tracer.Start(compCtx, "saga.compensation.ReleaseStock")
				defer compSpan.End()

				compCtx, cancel := context.WithTimeout(compCtx, releaseTimeout)
				defer cancel()

				if _, err := orderCtx.Stock.Release(compCtx, order.ProductID, order.Quantity, order.OrderID); err != nil {
					// 补偿失败需要人工介入，这里只能记下来
					compSpan.RecordError(err)
					logger.Ctx(compCtx).Error().Err(err).
						Str("orderId", order.OrderID).
						Msg("compensating stock release failed")
				}
			})
		}
		return err
	}

	orderCtx.StockInfo = info
	span.AddEvent("stock reservation call completed")
	return h.executeNext(orderCtx)
}
