package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/domain"
	"github.com/sumire/storefront/internal/repository/memory"
)

func newTestProductService(t *testing.T) (*ProductService, int64) {
	t.Helper()
	categories := memory.NewCategoryRepository()
	c, err := categories.Save(context.Background(), domain.Category{Name: "Peripherals"})
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return NewProductService(memory.NewProductRepository(), categories, zap.NewNop()), c.ID
}

func TestProductService_CreateAndGet(t *testing.T) {
	svc, categoryID := newTestProductService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, ProductInput{CategoryID: categoryID, Name: " Keyboard ", PriceCents: 4999, Stock: 3})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != "Keyboard" {
		t.Errorf("expected trimmed name, got %q", created.Name)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.PriceCents != 4999 {
		t.Errorf("unexpected product %+v", got)
	}
}

func TestProductService_Errors(t *testing.T) {
	svc, categoryID := newTestProductService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, ProductInput{CategoryID: categoryID, Name: "Mouse"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := svc.Create(ctx, ProductInput{CategoryID: categoryID, Name: "mouse"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	_, err = svc.Create(ctx, ProductInput{CategoryID: categoryID + 1, Name: "Monitor"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "category_id" {
		t.Errorf("expected category_id validation error, got %v", err)
	}

	_, err = svc.Create(ctx, ProductInput{CategoryID: categoryID, Name: "TV"})
	if !errors.As(err, &verr) || verr.Field != "name" {
		t.Errorf("expected name validation error, got %v", err)
	}

	if _, err := svc.Get(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProductService_UpdateAndDelete(t *testing.T) {
	svc, categoryID := newTestProductService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, ProductInput{CategoryID: categoryID, Name: "Headset", Stock: 1})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := svc.Update(ctx, p.ID, ProductInput{CategoryID: categoryID, Name: "Headset", Stock: 9})
	if err != nil {
		t.Fatalf("Update to own name failed: %v", err)
	}
	if updated.Stock != 9 {
		t.Errorf("expected stock 9, got %d", updated.Stock)
	}

	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	list, err := svc.List(ctx)
	if err != nil || len(list) != 0 {
		t.Errorf("expected empty list, got %+v, %v", list, err)
	}
}
