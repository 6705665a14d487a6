package domain

import (
	"testing"
)

func TestOperationLog_RecentWindow(t *testing.T) {
	log := NewOperationLog()
	for i := 0; i < 10; i++ {
		log.Append(LogEntry{Operation: OpReserve, ProductID: "P", Quantity: i, Result: ResultSuccess})
	}

	recent := log.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("expected window of 3, got %d", len(recent))
	}
	// 窗口内旧的在前
	if recent[0].Quantity != 7 || recent[2].Quantity != 9 {
		t.Errorf("unexpected window contents: %+v", recent)
	}

	if got := log.Count(); got != 10 {
		t.Errorf("expected full count 10, got %d", got)
	}
}

func TestOperationLog_RecentSmallerThanWindow(t *testing.T) {
	log := NewOperationLog()
	log.Append(LogEntry{Operation: OpCheck, ProductID: "P", Result: ResultInsufficient})

	recent := log.Recent(50)
	if len(recent) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(recent))
	}
	if recent[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be stamped on append")
	}
}

func TestStockRecord_Available(t *testing.T) {
	rec := StockRecord{ProductID: "P", Total: 50, Reserved: 10}
	if rec.Available() != 40 {
		t.Errorf("expected 40 available, got %d", rec.Available())
	}
}
