package domain

import "time"

// Product is an item for sale within a category.
type Product struct {
	ID          int64      `db:"id"`
	CategoryID  int64      `db:"category_id"`
	Name        string     `db:"name"`
	Description string     `db:"description"`
	PriceCents  int64      `db:"price_cents"`
	Stock       int        `db:"stock"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

func (p *Product) IsDeleted() bool {
	return p.DeletedAt != nil
}
