package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/storefront/internal/domain"
)

const orderColumns = `id, user_id, status, total_cents, created_at, updated_at`

// OrderRepository handles order data access operations.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	err := r.db.GetContext(ctx, &order, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find order by id %d: %w", id, err)
	}

	if err := r.db.SelectContext(ctx, &order.Items,
		`SELECT order_id, product_id, quantity, unit_price_cents FROM order_items WHERE order_id = $1 ORDER BY product_id`,
		id); err != nil {
		return nil, fmt.Errorf("load items of order %d: %w", id, err)
	}
	return &order, nil
}

// FindByUser returns a user's orders with their items, newest first.
func (r *OrderRepository) FindByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders := []domain.Order{}
	if err := r.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY id DESC`, userID); err != nil {
		return nil, fmt.Errorf("list orders of user %d: %w", userID, err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	query, args, err := sqlx.In(
		`SELECT order_id, product_id, quantity, unit_price_cents FROM order_items WHERE order_id IN (?) ORDER BY product_id`, ids)
	if err != nil {
		return nil, fmt.Errorf("build order items query: %w", err)
	}

	var items []domain.OrderItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load order items of user %d: %w", userID, err)
	}
	for _, it := range items {
		o := &orders[index[it.OrderID]]
		o.Items = append(o.Items, it)
	}
	return orders, nil
}

// Place reserves stock and inserts the order and its items in one
// transaction. Each reservation is a conditional decrement, so a concurrent
// order can never take stock this one already counted.
func (r *OrderRepository) Place(ctx context.Context, order domain.Order) (*domain.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin order placement: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Rows are locked in product id order so two orders cannot deadlock.
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	var total int64
	for i, it := range items {
		var price int64
		err := tx.GetContext(ctx, &price,
			`UPDATE products SET stock = stock - $2, updated_at = NOW()
			 WHERE id = $1 AND stock >= $2 AND deleted_at IS NULL
			 RETURNING price_cents`,
			it.ProductID, it.Quantity)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shortage(ctx, tx, it)
		}
		if err != nil {
			return nil, fmt.Errorf("reserve product %d: %w", it.ProductID, err)
		}
		items[i].UnitPriceCents = price
		total += price * int64(it.Quantity)
	}

	var result domain.Order
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO orders (user_id, status, total_cents) VALUES ($1, $2, $3) RETURNING `+orderColumns,
		order.UserID, order.Status, total,
	).StructScan(&result)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, it := range items {
		it.OrderID = result.ID
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price_cents)
			 VALUES (:order_id, :product_id, :quantity, :unit_price_cents)`, it); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		result.Items = append(result.Items, it)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order placement: %w", err)
	}
	return &result, nil
}

// shortage explains why a conditional decrement matched no row.
func shortage(ctx context.Context, tx *sqlx.Tx, it domain.OrderItem) error {
	var p struct {
		Name  string `db:"name"`
		Stock int    `db:"stock"`
	}
	err := tx.GetContext(ctx, &p, `SELECT name, stock FROM products WHERE id = $1 AND deleted_at IS NULL`, it.ProductID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("product %d: %w", it.ProductID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read stock of product %d: %w", it.ProductID, err)
	}
	return &domain.StockError{ProductID: it.ProductID, Name: p.Name, Requested: it.Quantity, Available: p.Stock}
}

// Cancel flips a pending order to cancelled and restocks its items in one
// transaction. The status guard makes a second cancel match no row.
func (r *OrderRepository) Cancel(ctx context.Context, id int64) (*domain.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin order cancel: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var result domain.Order
	err = tx.QueryRowxContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3 RETURNING `+orderColumns,
		id, domain.OrderStatusCancelled, domain.OrderStatusPending,
	).StructScan(&result)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id); err != nil {
			return nil, fmt.Errorf("check order %d: %w", id, err)
		}
		if !exists {
			return nil, fmt.Errorf("cancel order %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("cancel order %d: %w", id, domain.ErrOrderNotPending)
	}
	if err != nil {
		return nil, fmt.Errorf("cancel order %d: %w", id, err)
	}

	if err := tx.SelectContext(ctx, &result.Items,
		`SELECT order_id, product_id, quantity, unit_price_cents FROM order_items WHERE order_id = $1 ORDER BY product_id`,
		id); err != nil {
		return nil, fmt.Errorf("load items of order %d: %w", id, err)
	}

	// Deleted products stay deleted and are not restocked.
	for _, it := range result.Items {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
			it.ProductID, it.Quantity); err != nil {
			return nil, fmt.Errorf("restock product %d: %w", it.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order cancel: %w", err)
	}
	return &result, nil
}
