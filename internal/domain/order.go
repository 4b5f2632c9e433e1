package domain

import "time"

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderItem is one line of an order. The unit price is captured when the order is placed.
type OrderItem struct {
	OrderID        int64 `db:"order_id"`
	ProductID      int64 `db:"product_id"`
	Quantity       int   `db:"quantity"`
	UnitPriceCents int64 `db:"unit_price_cents"`
}

// Order is a purchase made by a user.
type Order struct {
	ID         int64       `db:"id"`
	UserID     int64       `db:"user_id"`
	Status     OrderStatus `db:"status"`
	TotalCents int64       `db:"total_cents"`
	Items      []OrderItem `db:"-"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

// WithStatus returns a copy of the order with the given status.
func (o Order) WithStatus(status OrderStatus) Order {
	items := make([]OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	o.Status = status
	o.UpdatedAt = time.Now()
	return o
}
