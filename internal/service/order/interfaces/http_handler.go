// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"stockpile/internal/pkg/logger"
	"stockpile/internal/service/order/application"
	"stockpile/internal/service/order/domain"
)

const serviceName = "order-service"

// OrderHandler 封装了订单服务的 HTTP 处理器。
type OrderHandler struct {
	service *application.OrderApplicationService
}

func NewOrderHandler(service *application.OrderApplicationService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes 在 Router 上注册所有路由。
func (h *OrderHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/orders", h.createOrder).Methods(http.MethodPost)
	r.HandleFunc("/orders", h.listOrders).Methods(http.MethodGet)
	r.HandleFunc("/orders/{orderId}", h.getOrder).Methods(http.MethodGet)
	r.HandleFunc("/orders/{orderId}/confirm", h.confirmOrder).Methods(http.MethodPost)
	r.HandleFunc("/orders/{orderId}/cancel", h.cancelOrder).Methods(http.MethodPost)
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "order-service.CreateOrder")
	defer span.End()

	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	span.SetAttributes(
		attribute.String("product.id", req.ProductID),
		attribute.Int("product.quantity", req.Quantity),
	)

	order, err := h.service.CreateOrder(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		// 库存调用失败：订单已持久化为 error/check_failed，把 orderId 一并
		// 返回给调用方作为关联键，之后可按 ID 查询这笔订单
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   true,
			"message": "stock check failed, please retry later",
			"orderId": order.OrderID,
			"details": err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, application.NewOrderResponse(order))
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderId"]

	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(orders),
		"orders":  orders,
	})
}

func (h *OrderHandler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "order-service.ConfirmOrder")
	defer span.End()

	orderID := mux.Vars(r)["orderId"]
	order, err := h.service.ConfirmOrder(ctx, orderID)
	if err != nil {
		h.mapOrderError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, application.NewOrderResponse(order))
}

func (h *OrderHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "order-service.CancelOrder")
	defer span.End()

	orderID := mux.Vars(r)["orderId"]
	order, err := h.service.CancelOrder(ctx, orderID)
	if err != nil {
		h.mapOrderError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, application.NewOrderResponse(order))
}

func (h *OrderHandler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *OrderHandler) mapOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, domain.ErrStateConflict):
		respondError(w, http.StatusConflict, err.Error())
	default:
		logger.Ctx(ctx).Error().Err(err).Msg("inventory call failed")
		respondError(w, http.StatusBadGateway, "inventory service call failed: "+err.Error())
	}
}

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]interface{}{
		"error":   true,
		"message": message,
	})
}
