// internal/service/order/domain/state.go
package domain

// Status 定义了订单的生命周期状态。
type Status string

const (
	StatusPending   Status = "pending"   // 订单已记录，库存结果未知
	StatusConfirmed Status = "confirmed" // 库存已预占，订单成立
	StatusCancelled Status = "cancelled" // 库存不足或订单被取消
	StatusError     Status = "error"     // 库存调用失败，结果未知
)

// StockStatus 记录库存检查这一步的结论，与订单状态正交。
type StockStatus string

const (
	StockChecking     StockStatus = "checking"
	StockSufficient   StockStatus = "sufficient"
	StockInsufficient StockStatus = "insufficient"
	StockCheckFailed  StockStatus = "check_failed"
)
