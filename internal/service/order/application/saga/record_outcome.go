// internal/service/order/application/saga/record_outcome.go
package saga

import (
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/codes"

	"stockpile/internal/pkg/logger"
)

// RecordOutcomeHandler 把预占结果映射到订单状态并持久化。
// 库存不足走的是正常取消路径，不会触发补偿。
type RecordOutcomeHandler struct {
	NextHandler
}

func (h *RecordOutcomeHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.RecordOutcome")
	defer span.End()

	order := orderCtx.Order
	info := orderCtx.StockInfo

	if info.Available {
		if err := order.MarkStockSufficient(info); err != nil {
			span.RecordError(err)
			return err
		}
	} else {
		if err := order.MarkStockInsufficient(info); err != nil {
			span.RecordError(err)
			return err
		}
	}

	if err := orderCtx.Repo.Save(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist order outcome")
		return errors.Wrap(err, "save order outcome")
	}

	logger.Ctx(ctx).Info().
		Str("orderId", order.OrderID).
		Str("status", string(order.Status)).
		Str("stockStatus", string(order.StockStatus)).
		Msg("order outcome recorded")

	return h.executeNext(orderCtx)
}
