// internal/service/order/application/service.go
package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockpile/internal/pkg/logger"
	"stockpile/internal/service/order/application/saga"
	"stockpile/internal/service/order/domain"
	"stockpile/internal/service/order/port"
)

// OrderApplicationService 只关注业务流程编排：
// 它通过 StockReserver 端口触达账本，从不直接改库存状态。
type OrderApplicationService struct {
	orderRepo domain.OrderRepository
	stock     port.StockReserver
	tracer    trace.Tracer
}

func NewOrderApplicationService(orderRepo domain.OrderRepository, stock port.StockReserver, tracer trace.Tracer) *OrderApplicationService {
	return &OrderApplicationService{orderRepo: orderRepo, stock: stock, tracer: tracer}
}

// CreateOrder 把一次下单请求翻译成一次库存预占，并把结果落在订单上。
// 订单在发起库存调用之前就已持久化：调用中途崩溃留下的是一个可追查的
// pending/checking 订单，而不是一笔凭空消失的请求。
//
// 返回的 *domain.Order 在任何结局下都非 nil（除校验失败外）；
// 调用失败时订单处于 error/check_failed 状态，error 描述失败原因。
func (s *OrderApplicationService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateOrder")
	defer span.End()

	order, err := domain.NewOrder(req.ProductID, req.Quantity, req.CustomerName)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save initial order")
		return nil, errors.Wrap(err, "save initial order")
	}
	span.AddEvent("initial order saved in pending/checking state")

	logger.Ctx(ctx).Info().
		Str("orderId", order.OrderID).
		Str("productId", order.ProductID).
		Int("quantity", order.Quantity).
		Str("customer", order.CustomerName).
		Msg("order received, checking stock")

	orderContext := &saga.OrderContext{
		Ctx:    ctx,
		Order:  order,
		Tracer: s.tracer,
		Stock:  s.stock,
		Repo:   s.orderRepo,
	}

	reserve := &saga.ReserveStockHandler{}
	reserve.SetNext(&saga.RecordOutcomeHandler{})

	if err := reserve.Handle(orderContext); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock check failed")

		// 调用失败不丢订单：记录失败原因后原样保留，可按 ID 查询
		order.MarkCheckFailed(err.Error())
		if saveErr := s.orderRepo.Save(ctx, order); saveErr != nil {
			logger.Ctx(ctx).Error().Err(saveErr).
				Str("orderId", order.OrderID).
				Msg("failed to persist check_failed order")
		}

		// 补偿与请求生命周期解耦，避免已取消的 context 把补偿一并杀掉
		orderContext.TriggerCompensation(context.WithoutCancel(ctx))

		logger.Ctx(ctx).Error().Err(err).
			Str("orderId", order.OrderID).
			Msg("stock reservation call failed")
		return order, err
	}

	return order, nil
}

// ConfirmOrder 把一个已成立订单的预占转为永久扣减（订单被接受）。
func (s *OrderApplicationService) ConfirmOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.ConfirmOrder")
	defer span.End()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.StatusConfirmed || order.ConfirmedAt != nil {
		return nil, domain.ErrStateConflict
	}

	if _, err := s.stock.Confirm(ctx, order.ProductID, order.Quantity, order.OrderID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock confirm failed")
		return nil, err
	}

	if err := order.MarkFinalized(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "save finalized order")
	}

	logger.Ctx(ctx).Info().Str("orderId", order.OrderID).Msg("order finalized, stock confirmed")
	return order, nil
}

// CancelOrder 取消一个已成立的订单并释放它的预占（补偿动作）。
func (s *OrderApplicationService) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.CancelOrder")
	defer span.End()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(); err != nil {
		return nil, err
	}

	if _, err := s.stock.Release(ctx, order.ProductID, order.Quantity, order.OrderID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock release failed")
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "save cancelled order")
	}

	logger.Ctx(ctx).Info().Str("orderId", order.OrderID).Msg("order cancelled, stock released")
	return order, nil
}

func (s *OrderApplicationService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orderRepo.FindByID(ctx, orderID)
}

func (s *OrderApplicationService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.orderRepo.List(ctx)
}
