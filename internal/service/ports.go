package service

import (
	"context"
	"time"

	"github.com/sumire/storefront/internal/domain"
)

// Stores return domain.ErrNotFound for absent or soft-deleted records and
// never return soft-deleted records from FindAll.

// UserStore defines the user data access interface.
type UserStore interface {
	FindAll(ctx context.Context) ([]domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Save(ctx context.Context, user domain.User) (*domain.User, error)
	Update(ctx context.Context, user domain.User) (*domain.User, error)
}

// CategoryStore defines the category data access interface.
type CategoryStore interface {
	FindAll(ctx context.Context) ([]domain.Category, error)
	FindByID(ctx context.Context, id int64) (*domain.Category, error)
	FindByName(ctx context.Context, name string) (*domain.Category, error)
	Save(ctx context.Context, category domain.Category) (*domain.Category, error)
	Update(ctx context.Context, category domain.Category) (*domain.Category, error)
}

// ProductStore defines the product data access interface.
type ProductStore interface {
	FindAll(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	Save(ctx context.Context, product domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// OrderStore defines the order data access interface. Orders are never deleted.
//
// Place and Cancel change stock and the order together, so two concurrent
// calls can never both take the last unit or both return the same stock.
type OrderStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	FindByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	// Place decrements stock for every item and stores the order, or changes
	// nothing. Unit prices and the total are taken from the products as
	// reserved. It fails with *domain.StockError when a product cannot cover
	// its quantity and with domain.ErrNotFound when a product is gone.
	Place(ctx context.Context, order domain.Order) (*domain.Order, error)
	// Cancel moves a pending order to cancelled and returns its stock. It fails
	// with domain.ErrOrderNotPending when the order already left pending.
	Cancel(ctx context.Context, id int64) (*domain.Order, error)
}

// Cache stores JSON-encodable values. Any Get error is treated as a miss.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Notifier pushes an event to subscribers without blocking the caller.
type Notifier interface {
	NotifySubscribers(ctx context.Context, event domain.Event)
}

// Mailer queues an email without blocking the caller.
type Mailer interface {
	EnqueueEmail(ctx context.Context, email domain.Email)
}

// Caller identifies the authenticated user making a request.
type Caller struct {
	UserID int64
	Role   domain.Role
}

// IsAdmin reports whether the caller has the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == domain.RoleAdmin
}
