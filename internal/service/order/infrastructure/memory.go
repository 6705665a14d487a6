// internal/service/order/infrastructure/memory.go
package infrastructure

import (
	"context"
	"sort"
	"sync"

	"stockpile/internal/service/order/domain"
)

// InMemoryOrderRepository 是 domain.OrderRepository 的内存实现。
// 订单不跨进程存活（持久化是明确的非目标），但读写必须是并发安全的：
// 存取都做值拷贝，调用方拿到的指针不会和仓储内部共享。
type InMemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

func NewInMemoryOrderRepository() *InMemoryOrderRepository {
	return &InMemoryOrderRepository{orders: make(map[string]domain.Order)}
}

func (r *InMemoryOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.OrderID] = *order
	return nil
}

func (r *InMemoryOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &order, nil
}

func (r *InMemoryOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	r.mu.RLock()
	out := make([]*domain.Order, 0, len(r.orders))
	for id := range r.orders {
		order := r.orders[id]
		out = append(out, &order)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OrderID < out[j].OrderID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
