package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sumire/storefront/internal/domain"
)

// CategoryRepository is an in-memory category store.
type CategoryRepository struct {
	mu         sync.RWMutex
	categories map[int64]*domain.Category
	nextID     int64
}

// NewCategoryRepository creates a new in-memory category repository.
func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{categories: make(map[int64]*domain.Category)}
}

func (r *CategoryRepository) FindAll(_ context.Context) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		if !c.IsDeleted() {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *CategoryRepository) FindByID(_ context.Context, id int64) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok || c.IsDeleted() {
		return nil, domain.ErrNotFound
	}
	result := *c
	return &result, nil
}

// FindByName matches case-insensitively.
func (r *CategoryRepository) FindByName(_ context.Context, name string) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if !c.IsDeleted() && strings.EqualFold(c.Name, name) {
			result := *c
			return &result, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *CategoryRepository) Save(_ context.Context, category domain.Category) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now()
	category.ID = r.nextID
	category.CreatedAt = now
	category.UpdatedAt = now

	stored := category
	r.categories[category.ID] = &stored
	return &category, nil
}

func (r *CategoryRepository) Update(_ context.Context, category domain.Category) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.categories[category.ID]
	if !ok {
		return nil, fmt.Errorf("update category %d: %w", category.ID, domain.ErrNotFound)
	}
	category.CreatedAt = existing.CreatedAt
	category.UpdatedAt = time.Now()

	stored := category
	r.categories[category.ID] = &stored
	return &category, nil
}

// Raw returns a stored category even when it is soft-deleted.
func (r *CategoryRepository) Raw(id int64) (domain.Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return domain.Category{}, false
	}
	return *c, true
}
