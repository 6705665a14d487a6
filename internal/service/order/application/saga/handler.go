// internal/service/order/application/saga/handler.go
package saga

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"stockpile/internal/pkg/logger"
	"stockpile/internal/service/order/domain"
	"stockpile/internal/service/order/port"
)

// OrderContext 在 saga 流程中传递上下文数据。
// 外部依赖全部是抽象接口，步骤本身不感知传输细节。
type OrderContext struct {
	Ctx    context.Context
	Order  *domain.Order
	Tracer trace.Tracer

	Stock port.StockReserver
	Repo  domain.OrderRepository

	// StockInfo 由预占步骤填充，供后续步骤读取。
	StockInfo *domain.StockInfo

	// 补偿函数按 LIFO 顺序执行
	compensations []func(ctx context.Context)
	compLock      sync.Mutex
}

func (c *OrderContext) AddCompensation(comp func(ctx context.Context)) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]func(context.Context){comp}, c.compensations...)
}

// TriggerCompensation 执行所有已注册的补偿动作。
// 补偿失败不会中断其余补偿，只记录错误。
func (c *OrderContext) TriggerCompensation(ctx context.Context) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	logger.Ctx(ctx).Info().
		Str("orderId", c.Order.OrderID).
		Int("count", len(c.compensations)).
		Msg("executing compensation functions")
	for _, comp := range c.compensations {
		comp(ctx)
	}
}

type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}
