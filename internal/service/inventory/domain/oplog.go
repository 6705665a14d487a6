// internal/service/inventory/domain/oplog.go
package domain

import (
	"sync"
	"time"
)

type Operation string

const (
	OpCheck   Operation = "check"
	OpReserve Operation = "reserve"
	OpRelease Operation = "release"
	OpConfirm Operation = "confirm"
)

type OpResult string

const (
	ResultSuccess      OpResult = "success"
	ResultInsufficient OpResult = "insufficient"
	ResultNotFound     OpResult = "product_not_found"
	ResultDuplicate    OpResult = "duplicate"
)

// LogEntry 是一条库存操作记录，追加后不可变。
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Operation Operation `json:"operation"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	OrderID   string    `json:"orderId,omitempty"`
	Result    OpResult  `json:"result"`
	// CurrentStock 记录操作完成后的总库存；未发生变更时为当前值。
	CurrentStock int `json:"currentStock"`
}

// OperationLog 是追加式操作日志，保存全量序列。
// 追加发生在商品的临界区内，因此单个商品的日志顺序与实际串行化顺序一致。
type OperationLog struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewOperationLog() *OperationLog {
	return &OperationLog{}
}

func (l *OperationLog) Append(entry LogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Recent 返回最近 limit 条记录，窗口内保持插入顺序（旧的在前）。
func (l *OperationLog) Recent(limit int) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := 0
	if limit > 0 && len(l.entries) > limit {
		start = len(l.entries) - limit
	}
	out := make([]LogEntry, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out
}

// Count 返回历史总条数，与 Recent 的窗口大小无关。
func (l *OperationLog) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
