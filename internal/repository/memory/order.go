package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sumire/storefront/internal/domain"
)

// OrderRepository is an in-memory order store. It shares the product store so
// that stock and orders change under the same locks.
type OrderRepository struct {
	mu       sync.RWMutex
	orders   map[int64]*domain.Order
	nextID   int64
	products *ProductRepository
}

// NewOrderRepository creates a new in-memory order repository reserving stock in products.
func NewOrderRepository(products *ProductRepository) *OrderRepository {
	return &OrderRepository{orders: make(map[int64]*domain.Order), products: products}
}

func (r *OrderRepository) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyOrder(o), nil
}

// FindByUser returns a user's orders, newest first.
func (r *OrderRepository) FindByUser(_ context.Context, userID int64) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			result = append(result, *copyOrder(o))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// Place checks every item before touching any stock, so a rejected order
// leaves all products unchanged. Lock order is products, then orders.
func (r *OrderRepository) Place(_ context.Context, order domain.Order) (*domain.Order, error) {
	r.products.mu.Lock()
	defer r.products.mu.Unlock()

	for _, it := range order.Items {
		p, ok := r.products.products[it.ProductID]
		if !ok || p.IsDeleted() {
			return nil, fmt.Errorf("product %d: %w", it.ProductID, domain.ErrNotFound)
		}
		if p.Stock < it.Quantity {
			return nil, &domain.StockError{ProductID: p.ID, Name: p.Name, Requested: it.Quantity, Available: p.Stock}
		}
	}

	now := time.Now()
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	order.TotalCents = 0
	for i, it := range order.Items {
		p := r.products.products[it.ProductID]
		p.Stock -= it.Quantity
		p.UpdatedAt = now
		order.Items[i].UnitPriceCents = p.PriceCents
		order.TotalCents += p.PriceCents * int64(it.Quantity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	order.ID = r.nextID
	order.CreatedAt = now
	order.UpdatedAt = now
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	r.orders[order.ID] = copyOrder(&order)
	return copyOrder(&order), nil
}

// Cancel restocks products that still exist. Deleted products stay deleted.
func (r *OrderRepository) Cancel(_ context.Context, id int64) (*domain.Order, error) {
	r.products.mu.Lock()
	defer r.products.mu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("cancel order %d: %w", id, domain.ErrNotFound)
	}
	if o.Status != domain.OrderStatusPending {
		return nil, fmt.Errorf("cancel order %d: %w", id, domain.ErrOrderNotPending)
	}

	now := time.Now()
	for _, it := range o.Items {
		if p, ok := r.products.products[it.ProductID]; ok && !p.IsDeleted() {
			p.Stock += it.Quantity
			p.UpdatedAt = now
		}
	}
	o.Status = domain.OrderStatusCancelled
	o.UpdatedAt = now
	return copyOrder(o), nil
}

func copyOrder(o *domain.Order) *domain.Order {
	result := *o
	result.Items = make([]domain.OrderItem, len(o.Items))
	copy(result.Items, o.Items)
	return &result
}
