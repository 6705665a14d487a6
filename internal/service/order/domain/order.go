// internal/service/order/domain/order.go
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrValidation    = errors.New("productId, a positive quantity and customerName are required")
	ErrOrderNotFound = errors.New("order not found")
	ErrStateConflict = errors.New("order is not in a state that allows this operation")
)

// Order 是订单聚合的根实体。
// 它最多关联一次针对单个商品的库存预占，以 OrderID 作为关联键。
type Order struct {
	OrderID      string      `json:"orderId"`
	ProductID    string      `json:"productId"`
	Quantity     int         `json:"quantity"`
	CustomerName string      `json:"customerName"`
	Status       Status      `json:"status"`
	StockStatus  StockStatus `json:"stockStatus"`
	StockInfo    *StockInfo  `json:"stockInfo,omitempty"`
	Error        string      `json:"error,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	ConfirmedAt  *time.Time  `json:"confirmedAt,omitempty"`
}

// NewOrder 创建一个处于 pending/checking 状态的订单。
func NewOrder(productID string, quantity int, customerName string) (*Order, error) {
	if productID == "" || customerName == "" || quantity <= 0 {
		return nil, ErrValidation
	}
	now := time.Now()
	return &Order{
		OrderID:      GenerateOrderID(),
		ProductID:    productID,
		Quantity:     quantity,
		CustomerName: customerName,
		Status:       StatusPending,
		StockStatus:  StockChecking,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GenerateOrderID 生成形如 ORD<毫秒时间戳><5位大写后缀> 的订单号。
// 时间戳前缀让订单号天然携带创建时间，便于排查问题。
func GenerateOrderID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:5]
	return fmt.Sprintf("ORD%d%s", time.Now().UnixMilli(), suffix)
}

// MarkStockSufficient 记录预占成功：订单成立。
func (o *Order) MarkStockSufficient(info *StockInfo) error {
	if o.Status != StatusPending {
		return ErrStateConflict
	}
	o.Status = StatusConfirmed
	o.StockStatus = StockSufficient
	o.StockInfo = info
	o.UpdatedAt = time.Now()
	return nil
}

// MarkStockInsufficient 记录库存不足：订单取消，但这不是错误路径。
func (o *Order) MarkStockInsufficient(info *StockInfo) error {
	if o.Status != StatusPending {
		return ErrStateConflict
	}
	o.Status = StatusCancelled
	o.StockStatus = StockInsufficient
	o.StockInfo = info
	o.UpdatedAt = time.Now()
	return nil
}

// MarkCheckFailed 记录库存调用失败。订单保留下来，之后仍可按 ID 查询。
func (o *Order) MarkCheckFailed(detail string) {
	o.Status = StatusError
	o.StockStatus = StockCheckFailed
	o.Error = detail
	o.UpdatedAt = time.Now()
}

// MarkFinalized 在库存确认（永久扣减）之后记录订单完成时间。
// 只有已成立的订单可以被确认。
func (o *Order) MarkFinalized() error {
	if o.Status != StatusConfirmed {
		return ErrStateConflict
	}
	now := time.Now()
	o.ConfirmedAt = &now
	o.UpdatedAt = now
	return nil
}

// Cancel 取消一个已成立的订单，对应的预占由调用方负责释放。
func (o *Order) Cancel() error {
	if o.Status != StatusConfirmed {
		return ErrStateConflict
	}
	if o.ConfirmedAt != nil {
		return ErrStateConflict
	}
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now()
	return nil
}
