package domain

import "time"

// Category groups products.
type Category struct {
	ID          int64      `db:"id"`
	Name        string     `db:"name"`
	Description string     `db:"description"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

func (c *Category) IsDeleted() bool {
	return c.DeletedAt != nil
}
