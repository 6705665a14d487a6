// internal/service/inventory/application/service.go
package application

import (
	"context"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"stockpile/internal/pkg/logger"
	"stockpile/internal/service/inventory/domain"
)

var stockOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "inventory_stock_operations_total",
	Help: "Ledger mutation attempts, labeled by operation and outcome",
}, []string{"operation", "result"})

// productEntry 持有单个商品的账目和它自己的锁。
// 锁粒度是单商品：不同商品之间的操作互不竞争。
type productEntry struct {
	mu  sync.Mutex
	rec domain.StockRecord
}

// Ledger 是库存的唯一事实来源。
// 所有变更都在商品自己的临界区内完成，日志追加也发生在同一临界区，
// 因此任何操作都不可能把 Reserved 推到 Total 之上或 0 之下。
type Ledger struct {
	mu       sync.RWMutex // 保护 products 注册表本身
	products map[string]*productEntry
	log      *domain.OperationLog

	// reservations 按 orderID 缓存预占结果，重复调用直接返回原结果（幂等键）。
	resMu        sync.Mutex
	reservations map[string]domain.ReservationResult
}

func NewLedger() *Ledger {
	return &Ledger{
		products:     make(map[string]*productEntry),
		log:          domain.NewOperationLog(),
		reservations: make(map[string]domain.ReservationResult),
	}
}

// AddProduct 注册一个新商品，用于初始化或管理面补录。
func (l *Ledger) AddProduct(productID, name string, total int) error {
	if productID == "" || total < 0 {
		return domain.ErrInvalidInput
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.products[productID]; ok {
		return domain.ErrProductExists
	}
	l.products[productID] = &productEntry{rec: domain.StockRecord{
		ProductID: productID,
		Name:      name,
		Total:     total,
	}}
	return nil
}

func (l *Ledger) lookup(productID string) (*productEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.products[productID]
	return entry, ok
}

func (l *Ledger) append(entry domain.LogEntry) {
	l.log.Append(entry)
	stockOpsTotal.WithLabelValues(string(entry.Operation), string(entry.Result)).Inc()
}

// CheckAndReserve 检查可用库存并在充足时预占。
// 每次调用恰好产生一条日志；orderID 非空时按幂等键去重，
// 重复调用返回首次的结果，不会二次预占。
func (l *Ledger) CheckAndReserve(ctx context.Context, productID string, quantity int, orderID string) (domain.ReservationResult, error) {
	if productID == "" || quantity <= 0 {
		return domain.ReservationResult{}, domain.ErrInvalidInput
	}

	entry, ok := l.lookup(productID)
	if !ok {
		l.append(domain.LogEntry{
			Operation: domain.OpCheck,
			ProductID: productID,
			Quantity:  quantity,
			OrderID:   orderID,
			Result:    domain.ResultNotFound,
		})
		return domain.ReservationResult{}, domain.ErrProductNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if orderID != "" {
		if cached, ok := l.cachedReservation(orderID); ok {
			l.append(domain.LogEntry{
				Operation:    domain.OpReserve,
				ProductID:    productID,
				Quantity:     quantity,
				OrderID:      orderID,
				Result:       domain.ResultDuplicate,
				CurrentStock: entry.rec.Total,
			})
			logger.Ctx(ctx).Info().
				Str("orderId", orderID).
				Str("productId", productID).
				Msg("duplicate reservation request, returning cached result")
			return cached, nil
		}
	}

	available := entry.rec.Available()
	if available < quantity {
		result := domain.ReservationResult{
			Available:         false,
			ProductID:         productID,
			ProductName:       entry.rec.Name,
			RequestedQuantity: quantity,
			AvailableStock:    available,
			TotalStock:        entry.rec.Total,
			ReservedStock:     entry.rec.Reserved,
			Message:           "insufficient stock",
		}
		l.append(domain.LogEntry{
			Operation:    domain.OpCheck,
			ProductID:    productID,
			Quantity:     quantity,
			OrderID:      orderID,
			Result:       domain.ResultInsufficient,
			CurrentStock: entry.rec.Total,
		})
		return result, nil
	}

	entry.rec.Reserved += quantity
	result := domain.ReservationResult{
		Available:         true,
		ProductID:         productID,
		ProductName:       entry.rec.Name,
		RequestedQuantity: quantity,
		AvailableStock:    available - quantity,
		TotalStock:        entry.rec.Total,
		ReservedStock:     entry.rec.Reserved,
		Message:           "stock reserved",
	}
	if orderID != "" {
		l.storeReservation(orderID, result)
	}
	l.append(domain.LogEntry{
		Operation:    domain.OpReserve,
		ProductID:    productID,
		Quantity:     quantity,
		OrderID:      orderID,
		Result:       domain.ResultSuccess,
		CurrentStock: entry.rec.Total,
	})
	return result, nil
}

// Release 释放预占。释放量被钳制到当前预占量，Reserved 永远不会为负；
// 对已清空的预占重复释放会得到 releasedQuantity == 0 的成功结果。
func (l *Ledger) Release(ctx context.Context, productID string, quantity int, orderID string) (domain.ReleaseResult, error) {
	if productID == "" || quantity < 0 {
		return domain.ReleaseResult{}, domain.ErrInvalidInput
	}

	entry, ok := l.lookup(productID)
	if !ok {
		l.append(domain.LogEntry{
			Operation: domain.OpRelease,
			ProductID: productID,
			Quantity:  quantity,
			OrderID:   orderID,
			Result:    domain.ResultNotFound,
		})
		return domain.ReleaseResult{}, domain.ErrProductNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	released := quantity
	if released > entry.rec.Reserved {
		released = entry.rec.Reserved
	}
	entry.rec.Reserved -= released

	if orderID != "" {
		l.forgetReservation(orderID)
	}
	l.append(domain.LogEntry{
		Operation:    domain.OpRelease,
		ProductID:    productID,
		Quantity:     released,
		OrderID:      orderID,
		Result:       domain.ResultSuccess,
		CurrentStock: entry.rec.Total,
	})

	return domain.ReleaseResult{
		ProductID:        productID,
		ProductName:      entry.rec.Name,
		ReleasedQuantity: released,
		AvailableStock:   entry.rec.Available(),
		ReservedStock:    entry.rec.Reserved,
	}, nil
}

// Confirm 把预占转为永久扣减：Total 和 Reserved 在同一临界区内一起减少，
// 不会出现只改其一、破坏 Reserved <= Total 的中间状态。
func (l *Ledger) Confirm(ctx context.Context, productID string, quantity int, orderID string) (domain.ConfirmResult, error) {
	if productID == "" || quantity < 0 {
		return domain.ConfirmResult{}, domain.ErrInvalidInput
	}

	entry, ok := l.lookup(productID)
	if !ok {
		l.append(domain.LogEntry{
			Operation: domain.OpConfirm,
			ProductID: productID,
			Quantity:  quantity,
			OrderID:   orderID,
			Result:    domain.ResultNotFound,
		})
		return domain.ConfirmResult{}, domain.ErrProductNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	confirmed := quantity
	if confirmed > entry.rec.Reserved {
		confirmed = entry.rec.Reserved
	}
	entry.rec.Total -= confirmed
	entry.rec.Reserved -= confirmed

	if orderID != "" {
		l.forgetReservation(orderID)
	}
	l.append(domain.LogEntry{
		Operation:    domain.OpConfirm,
		ProductID:    productID,
		Quantity:     confirmed,
		OrderID:      orderID,
		Result:       domain.ResultSuccess,
		CurrentStock: entry.rec.Total,
	})

	return domain.ConfirmResult{
		ProductID:         productID,
		ProductName:       entry.rec.Name,
		ConfirmedQuantity: confirmed,
		RemainingStock:    entry.rec.Total,
		ReservedStock:     entry.rec.Reserved,
	}, nil
}

// GetStock 返回单个商品的一致性快照。
func (l *Ledger) GetStock(productID string) (domain.StockView, error) {
	entry, ok := l.lookup(productID)
	if !ok {
		return domain.StockView{}, domain.ErrProductNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return snapshot(&entry.rec), nil
}

// ListStock 返回全部商品快照，按商品 ID 排序保证输出稳定。
// 每个商品是一个独立快照，跨商品之间没有全局一致性保证。
func (l *Ledger) ListStock() []domain.StockView {
	l.mu.RLock()
	ids := make([]string, 0, len(l.products))
	for id := range l.products {
		ids = append(ids, id)
	}
	l.mu.RUnlock()
	sort.Strings(ids)

	views := make([]domain.StockView, 0, len(ids))
	for _, id := range ids {
		if view, err := l.GetStock(id); err == nil {
			views = append(views, view)
		}
	}
	return views
}

func (l *Ledger) RecentLogs(limit int) []domain.LogEntry {
	return l.log.Recent(limit)
}

func (l *Ledger) LogCount() int {
	return l.log.Count()
}

func (l *Ledger) cachedReservation(orderID string) (domain.ReservationResult, bool) {
	l.resMu.Lock()
	defer l.resMu.Unlock()
	cached, ok := l.reservations[orderID]
	return cached, ok
}

func (l *Ledger) storeReservation(orderID string, result domain.ReservationResult) {
	l.resMu.Lock()
	defer l.resMu.Unlock()
	l.reservations[orderID] = result
}

func (l *Ledger) forgetReservation(orderID string) {
	l.resMu.Lock()
	defer l.resMu.Unlock()
	delete(l.reservations, orderID)
}

func snapshot(rec *domain.StockRecord) domain.StockView {
	return domain.StockView{
		ProductID:      rec.ProductID,
		ProductName:    rec.Name,
		TotalStock:     rec.Total,
		ReservedStock:  rec.Reserved,
		AvailableStock: rec.Available(),
	}
}
