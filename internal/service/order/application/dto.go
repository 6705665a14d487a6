// internal/service/order/application/dto.go
package application

import (
	"time"

	"stockpile/internal/service/order/domain"
)

// CreateOrderRequest 是订单创建的入参。
type CreateOrderRequest struct {
	ProductID    string `json:"productId"`
	Quantity     int    `json:"quantity"`
	CustomerName string `json:"customerName"`
}

// OrderResponse 是订单操作的成功应答信封。
type OrderResponse struct {
	Success      bool               `json:"success"`
	OrderID      string             `json:"orderId"`
	ProductID    string             `json:"productId"`
	Quantity     int                `json:"quantity"`
	CustomerName string             `json:"customerName"`
	Status       domain.Status      `json:"status"`
	StockStatus  domain.StockStatus `json:"stockStatus"`
	StockInfo    *domain.StockInfo  `json:"stockInfo,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// NewOrderResponse 把订单实体包装为对外应答。
func NewOrderResponse(order *domain.Order) *OrderResponse {
	return &OrderResponse{
		Success:      true,
		OrderID:      order.OrderID,
		ProductID:    order.ProductID,
		Quantity:     order.Quantity,
		CustomerName: order.CustomerName,
		Status:       order.Status,
		StockStatus:  order.StockStatus,
		StockInfo:    order.StockInfo,
		CreatedAt:    order.CreatedAt,
	}
}
