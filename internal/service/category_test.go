package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/domain"
	"github.com/sumire/storefront/internal/repository/memory"
)

type categoryFixture struct {
	svc      *CategoryService
	repo     *memory.CategoryRepository
	cache    *fakeCache
	notifier *fakeNotifier
	mailer   *fakeMailer
}

func newCategoryFixture() categoryFixture {
	f := categoryFixture{
		repo:     memory.NewCategoryRepository(),
		cache:    newFakeCache(),
		notifier: &fakeNotifier{},
		mailer:   &fakeMailer{},
	}
	f.svc = NewCategoryService(f.repo, f.cache, f.notifier, f.mailer,
		CategoryConfig{CacheTTL: time.Minute, AdminEmail: "admin@example.com"}, zap.NewNop())
	return f
}

func TestCategoryService_CreateTooShortName(t *testing.T) {
	f := newCategoryFixture()

	err := wantFailure(t, f.svc.Create(context.Background(), CategoryInput{Name: "AB"}), domain.ErrorValidation)
	if !strings.Contains(err.Message, "at least 3") {
		t.Errorf("expected message to mention the minimum length, got %q", err.Message)
	}
	if len(err.ValidationErrors) != 1 || err.ValidationErrors[0].Field != "name" {
		t.Errorf("expected one violation on name, got %+v", err.ValidationErrors)
	}
	if len(f.notifier.types()) != 0 || len(f.mailer.sent()) != 0 {
		t.Error("expected no side effects on failure")
	}
}

func TestCategoryService_CreateCollectsEveryViolation(t *testing.T) {
	f := newCategoryFixture()

	err := wantFailure(t, f.svc.Create(context.Background(), CategoryInput{
		Name:        "",
		Description: strings.Repeat("x", 501),
	}), domain.ErrorValidation)

	if len(err.ValidationErrors) != 2 {
		t.Fatalf("expected 2 violations, got %+v", err.ValidationErrors)
	}
	if err.ValidationErrors[0].Field != "name" || err.ValidationErrors[1].Field != "description" {
		t.Errorf("expected name then description, got %+v", err.ValidationErrors)
	}
}

func TestCategoryService_CreateDuplicate(t *testing.T) {
	f := newCategoryFixture()
	ctx := context.Background()

	wantSuccess(t, f.svc.Create(ctx, CategoryInput{Name: "Electronics"}))
	err := wantFailure(t, f.svc.Create(ctx, CategoryInput{Name: "electronics"}), domain.ErrorConflict)
	if !strings.Contains(err.Message, "already exists") {
		t.Errorf("unexpected conflict message %q", err.Message)
	}
}

func TestCategoryService_CreateNotifies(t *testing.T) {
	f := newCategoryFixture()

	v := wantSuccess(t, f.svc.Create(context.Background(), CategoryInput{Name: "  Books  ", Description: "Paper"}))
	if v.ID == 0 || v.Name != "Books" {
		t.Errorf("unexpected view %+v", v)
	}

	types := f.notifier.types()
	if len(types) != 1 || types[0] != domain.EventCategoryCreated {
		t.Errorf("expected one category.created event, got %v", types)
	}
	emails := f.mailer.sent()
	if len(emails) != 1 || emails[0].To != "admin@example.com" {
		t.Errorf("expected one admin email, got %+v", emails)
	}
}

func TestCategoryService_UpdateMissing(t *testing.T) {
	f := newCategoryFixture()

	err := wantFailure(t, f.svc.Update(context.Background(), 42, CategoryInput{Name: "Garden"}), domain.ErrorNotFound)
	if err.Message != "category not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestCategoryService_UpdateKeepingOwnName(t *testing.T) {
	f := newCategoryFixture()
	ctx := context.Background()

	created := wantSuccess(t, f.svc.Create(ctx, CategoryInput{Name: "Toys"}))
	updated := wantSuccess(t, f.svc.Update(ctx, created.ID, CategoryInput{Name: "Toys", Description: "Fun"}))
	if updated.Description != "Fun" {
		t.Errorf("expected description to change, got %+v", updated)
	}
}

func TestCategoryService_UpdateToTakenName(t *testing.T) {
	f := newCategoryFixture()
	ctx := context.Background()

	wantSuccess(t, f.svc.Create(ctx, CategoryInput{Name: "Toys"}))
	games := wantSuccess(t, f.svc.Create(ctx, CategoryInput{Name: "Games"}))

	wantFailure(t, f.svc.Update(ctx, games.ID, CategoryInput{Name: "Toys"}), domain.ErrorConflict)
}

func TestCategoryService_DeleteThenFind(t *testing.T) {
	f := newCategoryFixture()
	ctx := context.Background()

	created := wantSuccess(t, f.svc.Create(ctx, CategoryInput{Name: "Garden"}))
	wantSuccess(t, f.svc.FindByID(ctx, created.ID))
	if !f.cache.has(categoryKey(created.ID)) {
		t.Fatal("expected category to be cached after lookup")
	}

	wantSuccess(t, f.svc.Delete(ctx, created.ID))
	if f.cache.has(categoryKey(created.ID)) {
		t.Error("expected cache entry to be invalidated on delete")
	}
	wantFailure(t, f.svc.FindByID(ctx, created.ID), domain.ErrorNotFound)
	wantFailure(t, f.svc.Delete(ctx, created.ID), domain.ErrorNotFound)

	all := wantSuccess(t, f.svc.FindAll(ctx))
	if len(all) != 0 {
		t.Errorf("expected deleted category hidden from FindAll, got %+v", all)
	}
	if raw, ok := f.repo.Raw(created.ID); !ok || raw.DeletedAt == nil {
		t.Error("expected record kept with a deletion timestamp")
	}
}

func TestCategoryService_FindByIDUsesCache(t *testing.T) {
	f := newCategoryFixture()
	ctx := context.Background()

	created := wantSuccess(t, f.svc.Create(ctx, CategoryInput{Name: "Music"}))
	wantSuccess(t, f.svc.FindByID(ctx, created.ID))
	v := wantSuccess(t, f.svc.FindByID(ctx, created.ID))

	if v.Name != "Music" {
		t.Errorf("unexpected cached view %+v", v)
	}
	if f.cache.hits != 1 {
		t.Errorf("expected one cache hit, got %d", f.cache.hits)
	}
}

func TestCategoryService_FindAllEmpty(t *testing.T) {
	f := newCategoryFixture()

	all := wantSuccess(t, f.svc.FindAll(context.Background()))
	if all == nil || len(all) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", all)
	}
}

func TestCategoryService_StoreFaultIsInternal(t *testing.T) {
	cause := errors.New("connection reset")
	svc := NewCategoryService(failingCategoryStore{err: cause}, newFakeCache(), &fakeNotifier{}, &fakeMailer{},
		CategoryConfig{}, zap.NewNop())

	err := wantFailure(t, svc.FindByID(context.Background(), 1), domain.ErrorInternal)
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
	wantFailure(t, svc.FindAll(context.Background()), domain.ErrorInternal)
}
