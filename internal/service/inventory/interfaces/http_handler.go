// internal/service/inventory/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"stockpile/internal/pkg/logger"
	"stockpile/internal/service/inventory/application"
	"stockpile/internal/service/inventory/domain"
)

const serviceName = "inventory-service"

// recentLogWindow 是 /logs 默认返回的窗口大小。
const recentLogWindow = 50

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_http_requests_total",
		Help: "Total HTTP requests processed, labeled by endpoint and status",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// StockHandler 封装了库存服务的 HTTP 处理器。
type StockHandler struct {
	ledger *application.Ledger
}

func NewStockHandler(ledger *application.Ledger) *StockHandler {
	return &StockHandler{ledger: ledger}
}

// RegisterRoutes 在 Router 上注册所有路由。
func (h *StockHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/check-stock", h.checkStock).Methods(http.MethodPost)
	r.HandleFunc("/release-stock", h.releaseStock).Methods(http.MethodPost)
	r.HandleFunc("/confirm-stock", h.confirmStock).Methods(http.MethodPost)
	r.HandleFunc("/stock/{productId}", h.getStock).Methods(http.MethodGet)
	r.HandleFunc("/stock", h.listStock).Methods(http.MethodGet)
	r.HandleFunc("/stock", h.addProduct).Methods(http.MethodPost)
	r.HandleFunc("/logs", h.logs).Methods(http.MethodGet)
}

type stockRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	OrderID   string `json:"orderId"`
}

type addProductRequest struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	TotalStock int    `json:"totalStock"`
}

func (h *StockHandler) checkStock(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(http.MethodPost, "/check-stock"))
	defer timer.ObserveDuration()

	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "inventory-service.CheckStock")
	defer span.End()

	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.MethodPost, "/check-stock", http.StatusBadRequest, "malformed JSON body")
		return
	}
	if req.ProductID == "" || req.Quantity <= 0 {
		h.respondError(w, http.MethodPost, "/check-stock", http.StatusBadRequest, "missing required fields: productId, quantity")
		return
	}

	span.SetAttributes(
		attribute.String("product.id", req.ProductID),
		attribute.Int("product.quantity", req.Quantity),
		attribute.String("order.id", req.OrderID),
	)

	result, err := h.ledger.CheckAndReserve(ctx, req.ProductID, req.Quantity, req.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			logger.Ctx(ctx).Warn().Str("productId", req.ProductID).Msg("check-stock for unknown product")
			h.respond(w, http.MethodPost, "/check-stock", http.StatusNotFound, map[string]interface{}{
				"error":             true,
				"message":           "product not found",
				"available":         false,
				"productId":         req.ProductID,
				"requestedQuantity": req.Quantity,
			})
			return
		}
		h.respondError(w, http.MethodPost, "/check-stock", http.StatusBadRequest, err.Error())
		return
	}

	logger.Ctx(ctx).Info().
		Str("productId", req.ProductID).
		Str("orderId", req.OrderID).
		Int("quantity", req.Quantity).
		Bool("available", result.Available).
		Msg("check-stock processed")

	h.respond(w, http.MethodPost, "/check-stock", http.StatusOK, struct {
		Success bool `json:"success"`
		domain.ReservationResult
	}{true, result})
}

func (h *StockHandler) releaseStock(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "inventory-service.ReleaseStock")
	defer span.End()

	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.MethodPost, "/release-stock", http.StatusBadRequest, "malformed JSON body")
		return
	}

	result, err := h.ledger.Release(ctx, req.ProductID, req.Quantity, req.OrderID)
	if err != nil {
		h.mapLedgerError(w, http.MethodPost, "/release-stock", err)
		return
	}

	logger.Ctx(ctx).Info().
		Str("productId", req.ProductID).
		Str("orderId", req.OrderID).
		Int("releasedQuantity", result.ReleasedQuantity).
		Msg("release-stock processed")

	h.respond(w, http.MethodPost, "/release-stock", http.StatusOK, struct {
		Success bool `json:"success"`
		domain.ReleaseResult
	}{true, result})
}

func (h *StockHandler) confirmStock(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "inventory-service.ConfirmStock")
	defer span.End()

	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.MethodPost, "/confirm-stock", http.StatusBadRequest, "malformed JSON body")
		return
	}

	result, err := h.ledger.Confirm(ctx, req.ProductID, req.Quantity, req.OrderID)
	if err != nil {
		h.mapLedgerError(w, http.MethodPost, "/confirm-stock", err)
		return
	}

	logger.Ctx(ctx).Info().
		Str("productId", req.ProductID).
		Str("orderId", req.OrderID).
		Int("confirmedQuantity", result.ConfirmedQuantity).
		Msg("confirm-stock processed")

	h.respond(w, http.MethodPost, "/confirm-stock", http.StatusOK, struct {
		Success bool `json:"success"`
		domain.ConfirmResult
	}{true, result})
}

func (h *StockHandler) getStock(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["productId"]

	view, err := h.ledger.GetStock(productID)
	if err != nil {
		h.respondError(w, http.MethodGet, "/stock/{productId}", http.StatusNotFound, "product not found")
		return
	}

	h.respond(w, http.MethodGet, "/stock/{productId}", http.StatusOK, struct {
		Success bool `json:"success"`
		domain.StockView
	}{true, view})
}

func (h *StockHandler) listStock(w http.ResponseWriter, r *http.Request) {
	views := h.ledger.ListStock()
	h.respond(w, http.MethodGet, "/stock", http.StatusOK, map[string]interface{}{
		"success":   true,
		"count":     len(views),
		"inventory": views,
	})
}

func (h *StockHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	var req addProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.MethodPost, "/stock", http.StatusBadRequest, "malformed JSON body")
		return
	}

	if err := h.ledger.AddProduct(req.ProductID, req.Name, req.TotalStock); err != nil {
		switch {
		case errors.Is(err, domain.ErrProductExists):
			h.respondError(w, http.MethodPost, "/stock", http.StatusConflict, "product already exists")
		default:
			h.respondError(w, http.MethodPost, "/stock", http.StatusBadRequest, err.Error())
		}
		return
	}

	view, _ := h.ledger.GetStock(req.ProductID)
	h.respond(w, http.MethodPost, "/stock", http.StatusCreated, struct {
		Success bool `json:"success"`
		domain.StockView
	}{true, view})
}

func (h *StockHandler) logs(w http.ResponseWriter, r *http.Request) {
	entries := h.ledger.RecentLogs(recentLogWindow)
	h.respond(w, http.MethodGet, "/logs", http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   h.ledger.LogCount(),
		"logs":    entries,
	})
}

func (h *StockHandler) health(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.MethodGet, "/health", http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// mapLedgerError 把 ledger 的哨兵错误映射为 HTTP 状态码。
func (h *StockHandler) mapLedgerError(w http.ResponseWriter, method, endpoint string, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		h.respondError(w, method, endpoint, http.StatusNotFound, "product not found")
	case errors.Is(err, domain.ErrInvalidInput):
		h.respondError(w, method, endpoint, http.StatusBadRequest, err.Error())
	default:
		h.respondError(w, method, endpoint, http.StatusInternalServerError, "internal error")
	}
}

func (h *StockHandler) respond(w http.ResponseWriter, method, endpoint string, code int, payload interface{}) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func (h *StockHandler) respondError(w http.ResponseWriter, method, endpoint string, code int, message string) {
	h.respond(w, method, endpoint, code, map[string]interface{}{
		"error":   true,
		"message": message,
	})
}
