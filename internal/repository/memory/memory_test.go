package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sumire/storefront/internal/domain"
)

func TestCategoryRepository_SoftDeletedIsHiddenButKept(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository()

	saved, err := repo.Save(ctx, domain.Category{Name: "Books"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	now := time.Now()
	saved.DeletedAt = &now
	if _, err := repo.Update(ctx, *saved); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := repo.FindByID(ctx, saved.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.FindByName(ctx, "books"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected deleted name to be free, got %v", err)
	}
	all, _ := repo.FindAll(ctx)
	if len(all) != 0 {
		t.Errorf("expected no visible categories, got %d", len(all))
	}
	if raw, ok := repo.Raw(saved.ID); !ok || raw.DeletedAt == nil {
		t.Error("expected the deleted record to remain stored")
	}
}

func TestUserRepository_LookupsAndCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	saved, err := repo.Save(ctx, domain.User{Username: "bob", Email: "bob@x.com", Role: domain.RoleCustomer})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID != 1 {
		t.Errorf("expected ID 1, got %d", saved.ID)
	}

	byEmail, err := repo.FindByEmail(ctx, "BOB@x.com")
	if err != nil || byEmail.ID != saved.ID {
		t.Fatalf("expected case-insensitive email match, got %v %v", byEmail, err)
	}

	byEmail.Username = "mutated"
	again, _ := repo.FindByUsername(ctx, "bob")
	if again == nil {
		t.Fatal("mutating a returned user changed the stored copy")
	}

	if _, err := repo.Update(ctx, domain.User{ID: 99}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
	if repo.Len() != 1 {
		t.Errorf("expected 1 stored user, got %d", repo.Len())
	}
}

func seedProduct(t *testing.T, products *ProductRepository, stock int) *domain.Product {
	t.Helper()
	p, err := products.Save(context.Background(), domain.Product{CategoryID: 1, Name: "Keyboard", PriceCents: 4999, Stock: stock})
	if err != nil {
		t.Fatalf("Save product failed: %v", err)
	}
	return p
}

func TestOrderRepository_FindByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	products := NewProductRepository()
	p := seedProduct(t, products, 10)
	repo := NewOrderRepository(products)

	for range 3 {
		if _, err := repo.Place(ctx, domain.Order{UserID: 7, Status: domain.OrderStatusPending, Items: []domain.OrderItem{{ProductID: p.ID, Quantity: 1}}}); err != nil {
			t.Fatalf("Place failed: %v", err)
		}
	}
	if _, err := repo.Place(ctx, domain.Order{UserID: 8, Status: domain.OrderStatusPending, Items: []domain.OrderItem{{ProductID: p.ID, Quantity: 1}}}); err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	orders, err := repo.FindByUser(ctx, 7)
	if err != nil {
		t.Fatalf("FindByUser failed: %v", err)
	}
	if len(orders) != 3 || orders[0].ID != 3 || orders[2].ID != 1 {
		t.Errorf("unexpected orders %+v", orders)
	}
	if orders[0].Items[0].OrderID != 3 {
		t.Errorf("expected items to carry order id, got %d", orders[0].Items[0].OrderID)
	}
}

func TestOrderRepository_PlaceReservesStockAndPrices(t *testing.T) {
	ctx := context.Background()
	products := NewProductRepository()
	p := seedProduct(t, products, 3)
	repo := NewOrderRepository(products)

	o, err := repo.Place(ctx, domain.Order{UserID: 1, Status: domain.OrderStatusPending, Items: []domain.OrderItem{{ProductID: p.ID, Quantity: 2}}})
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if o.TotalCents != 9998 || o.Items[0].UnitPriceCents != 4999 {
		t.Errorf("unexpected pricing %+v", o)
	}

	_, err = repo.Place(ctx, domain.Order{UserID: 1, Status: domain.OrderStatusPending, Items: []domain.OrderItem{{ProductID: p.ID, Quantity: 2}}})
	var stockErr *domain.StockError
	if !errors.As(err, &stockErr) || stockErr.Available != 1 || !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected StockError with 1 available, got %v", err)
	}

	got, _ := products.FindByID(ctx, p.ID)
	if got.Stock != 1 {
		t.Errorf("expected stock 1, got %d", got.Stock)
	}
}

func TestOrderRepository_PlaceLeavesStockOnFailure(t *testing.T) {
	ctx := context.Background()
	products := NewProductRepository()
	p := seedProduct(t, products, 5)
	repo := NewOrderRepository(products)

	_, err := repo.Place(ctx, domain.Order{UserID: 1, Status: domain.OrderStatusPending, Items: []domain.OrderItem{
		{ProductID: p.ID, Quantity: 2},
		{ProductID: 99, Quantity: 1},
	}})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, _ := products.FindByID(ctx, p.ID)
	if got.Stock != 5 {
		t.Errorf("expected stock untouched, got %d", got.Stock)
	}
}

func TestOrderRepository_CancelOnlyOnce(t *testing.T) {
	ctx := context.Background()
	products := NewProductRepository()
	p := seedProduct(t, products, 4)
	repo := NewOrderRepository(products)

	o, err := repo.Place(ctx, domain.Order{UserID: 1, Status: domain.OrderStatusPending, Items: []domain.OrderItem{{ProductID: p.ID, Quantity: 3}}})
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if _, err := repo.Cancel(ctx, o.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if _, err := repo.Cancel(ctx, o.ID); !errors.Is(err, domain.ErrOrderNotPending) {
		t.Fatalf("expected ErrOrderNotPending, got %v", err)
	}
	if _, err := repo.Cancel(ctx, 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, _ := products.FindByID(ctx, p.ID)
	if got.Stock != 4 {
		t.Errorf("expected stock restored once to 4, got %d", got.Stock)
	}
}
