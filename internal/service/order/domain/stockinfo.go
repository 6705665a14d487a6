// internal/service/order/domain/stockinfo.go
package domain

// StockInfo 是库存服务对一次 check-and-reserve 的应答。
// Available == false 表示库存不足——这是正常业务结果，不是错误。
type StockInfo struct {
	Available         bool   `json:"available"`
	ProductID         string `json:"productId"`
	ProductName       string `json:"productName"`
	RequestedQuantity int    `json:"requestedQuantity"`
	AvailableStock    int    `json:"availableStock"`
	TotalStock        int    `json:"totalStock"`
	ReservedStock     int    `json:"reservedStock"`
	Message           string `json:"message"`
}

// ReleaseInfo 是库存服务对一次预占释放的应答。
type ReleaseInfo struct {
	ProductID        string `json:"productId"`
	ProductName      string `json:"productName"`
	ReleasedQuantity int    `json:"releasedQuantity"`
	AvailableStock   int    `json:"availableStock"`
	ReservedStock    int    `json:"reservedStock"`
}

// ConfirmInfo 是库存服务对一次预占确认的应答。
type ConfirmInfo struct {
	ProductID         string `json:"productId"`
	ProductName       string `json:"productName"`
	ConfirmedQuantity int    `json:"confirmedQuantity"`
	RemainingStock    int    `json:"remainingStock"`
	ReservedStock     int    `json:"reservedStock"`
}
