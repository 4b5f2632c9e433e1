package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/domain"
	"github.com/sumire/storefront/internal/result"
)

// CategoryInput carries the writable fields of a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (in CategoryInput) normalized() CategoryInput {
	return CategoryInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
}

// CategoryConfig holds CategoryService settings.
type CategoryConfig struct {
	CacheTTL   time.Duration
	AdminEmail string
}

// CategoryService implements category CRUD on Results.
type CategoryService struct {
	categories CategoryStore
	cache      Cache
	notifier   Notifier
	mailer     Mailer
	cfg        CategoryConfig
	logger     *zap.Logger
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(
	categories CategoryStore,
	cache Cache,
	notifier Notifier,
	mailer Mailer,
	cfg CategoryConfig,
	logger *zap.Logger,
) *CategoryService {
	return &CategoryService{
		categories: categories,
		cache:      cache,
		notifier:   notifier,
		mailer:     mailer,
		cfg:        cfg,
		logger:     logger.With(zap.String("service", "category")),
	}
}

// FindAll lists every category that is not deleted. It only fails on a storage fault.
func (s *CategoryService) FindAll(ctx context.Context) domain.Result[[]CategoryView] {
	categories, err := s.categories.FindAll(ctx)
	if err != nil {
		return domain.Fail[[]CategoryView](domain.NewInternal("list categories", err))
	}
	return domain.Ok(project(categories, ToCategoryView))
}

// FindByID returns a category or NotFound.
func (s *CategoryService) FindByID(ctx context.Context, id int64) domain.Result[CategoryView] {
	return result.Map(s.load(ctx, id), ToCategoryView)
}

// Create validates the input, rejects duplicate names and stores a new category.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) domain.Result[CategoryView] {
	in = in.normalized()

	checked := result.BindCtx(ctx, validateCategory(in), func(ctx context.Context, in CategoryInput) domain.Result[CategoryInput] {
		return carry(s.ensureUniqueName(ctx, in.Name, 0), in)
	})
	created := result.BindCtx(ctx, checked, func(ctx context.Context, in CategoryInput) domain.Result[*domain.Category] {
		category, err := s.categories.Save(ctx, domain.Category{Name: in.Name, Description: in.Description})
		return stored(category, err, "category")
	})

	return result.Map(created, ToCategoryView).Tap(func(v CategoryView) {
		s.logger.Info("Category created", zap.Int64("category_id", v.ID))
		s.announce(ctx, domain.EventCategoryCreated, v)
	})
}

// Update changes name and description of an existing category.
func (s *CategoryService) Update(ctx context.Context, id int64, in CategoryInput) domain.Result[CategoryView] {
	in = in.normalized()

	current := result.BindCtx(ctx, validateCategory(in), func(ctx context.Context, _ CategoryInput) domain.Result[*domain.Category] {
		return s.load(ctx, id)
	})
	checked := result.BindCtx(ctx, current, func(ctx context.Context, c *domain.Category) domain.Result[*domain.Category] {
		return carry(s.ensureUniqueName(ctx, in.Name, c.ID), c)
	})
	updated := result.BindCtx(ctx, checked, func(ctx context.Context, c *domain.Category) domain.Result[*domain.Category] {
		c.Name = in.Name
		c.Description = in.Description
		saved, err := s.categories.Update(ctx, *c)
		return stored(saved, err, "category")
	})

	return result.Map(updated, ToCategoryView).Tap(func(v CategoryView) {
		s.logger.Info("Category updated", zap.Int64("category_id", v.ID))
		s.announce(ctx, domain.EventCategoryUpdated, v)
	})
}

// Delete soft-deletes a category.
func (s *CategoryService) Delete(ctx context.Context, id int64) domain.Result[result.Unit] {
	deleted := result.BindCtx(ctx, s.load(ctx, id), func(ctx context.Context, c *domain.Category) domain.Result[*domain.Category] {
		now := time.Now()
		c.DeletedAt = &now
		saved, err := s.categories.Update(ctx, *c)
		return stored(saved, err, "category")
	})

	return discard(deleted.Tap(func(c *domain.Category) {
		s.logger.Info("Category deleted", zap.Int64("category_id", c.ID))
		s.announce(ctx, domain.EventCategoryDeleted, ToCategoryView(c))
	}))
}

func validateCategory(in CategoryInput) domain.Result[CategoryInput] {
	var v violations
	if v.required("name", in.Name) {
		v.length("name", in.Name, nameMinLength, nameMaxLength)
	}
	if len(in.Description) > 0 {
		v.length("description", in.Description, 0, descriptionMaxLength)
	}
	return check(v, in)
}

func (s *CategoryService) ensureUniqueName(ctx context.Context, name string, selfID int64) domain.Result[result.Unit] {
	existing, err := s.categories.FindByName(ctx, name)
	var hit int64
	if existing != nil {
		hit = existing.ID
	}
	return unique(hit, err, selfID, fmt.Sprintf("category %q already exists", name))
}

// load reads through the cache. Cache faults only cost a store round-trip.
func (s *CategoryService) load(ctx context.Context, id int64) domain.Result[*domain.Category] {
	var cached domain.Category
	if err := s.cache.Get(ctx, categoryKey(id), &cached); err == nil {
		return domain.Ok(&cached)
	}

	category, err := s.categories.FindByID(ctx, id)
	return found(category, err, "category").Tap(func(c *domain.Category) {
		if err := s.cache.Set(ctx, categoryKey(c.ID), c, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("Failed to cache category", zap.Int64("category_id", c.ID), zap.Error(err))
		}
	})
}

func (s *CategoryService) announce(ctx context.Context, eventType domain.EventType, v CategoryView) {
	if err := s.cache.Delete(ctx, categoryKey(v.ID)); err != nil {
		s.logger.Warn("Failed to invalidate category cache", zap.Int64("category_id", v.ID), zap.Error(err))
	}

	s.notifier.NotifySubscribers(ctx, domain.Event{Type: eventType, ResourceID: v.ID, Data: v})
	s.mailer.EnqueueEmail(ctx, domain.Email{
		To:      s.cfg.AdminEmail,
		Subject: fmt.Sprintf("[storefront] %s: %s", eventType, v.Name),
		Body:    fmt.Sprintf("Category %d (%s) changed: %s.", v.ID, v.Name, eventType),
	})
}

func categoryKey(id int64) string {
	return fmt.Sprintf("category:%d", id)
}
