// internal/service/inventory/domain/stock.go
package domain

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductExists   = errors.New("product already exists")
	ErrInvalidInput    = errors.New("productId and a positive quantity are required")
)

// StockRecord 是单个商品的库存账目，不变量：0 <= Reserved <= Total。
type StockRecord struct {
	ProductID string
	Name      string
	Total     int
	Reserved  int
}

// Available 返回可供新预占使用的数量。
func (r *StockRecord) Available() int {
	return r.Total - r.Reserved
}

// StockView 是对外暴露的库存快照，Total/Reserved/Available 来自同一个临界区。
type StockView struct {
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName"`
	TotalStock     int    `json:"totalStock"`
	ReservedStock  int    `json:"reservedStock"`
	AvailableStock int    `json:"availableStock"`
}

// ReservationResult 是一次 check-and-reserve 的结果。
// Available == false 表示库存不足，是正常业务结果而非错误。
type ReservationResult struct {
	Available         bool   `json:"available"`
	ProductID         string `json:"productId"`
	ProductName       string `json:"productName"`
	RequestedQuantity int    `json:"requestedQuantity"`
	AvailableStock    int    `json:"availableStock"`
	TotalStock        int    `json:"totalStock"`
	ReservedStock     int    `json:"reservedStock"`
	Message           string `json:"message"`
}

// ReleaseResult 是一次预占释放的结果。ReleasedQuantity 可能为 0（被钳制）。
type ReleaseResult struct {
	ProductID        string `json:"productId"`
	ProductName      string `json:"productName"`
	ReleasedQuantity int    `json:"releasedQuantity"`
	AvailableStock   int    `json:"availableStock"`
	ReservedStock    int    `json:"reservedStock"`
}

// ConfirmResult 是一次预占确认（永久扣减）的结果。
type ConfirmResult struct {
	ProductID         string `json:"productId"`
	ProductName       string `json:"productName"`
	ConfirmedQuantity int    `json:"confirmedQuantity"`
	RemainingStock    int    `json:"remainingStock"`
	ReservedStock     int    `json:"reservedStock"`
}
