package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/storefront/internal/domain"
)

const categoryColumns = `id, name, description, created_at, updated_at, deleted_at`

// CategoryRepository handles category data access operations.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}
	err := r.db.SelectContext(ctx, &categories,
		`SELECT `+categoryColumns+` FROM categories WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	var category domain.Category
	err := r.db.GetContext(ctx, &category,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find category by id %d: %w", id, err)
	}
	return &category, nil
}

// FindByName matches case-insensitively, as the unique index does.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	var category domain.Category
	err := r.db.GetContext(ctx, &category,
		`SELECT `+categoryColumns+` FROM categories WHERE lower(name) = lower($1) AND deleted_at IS NULL`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find category by name: %w", err)
	}
	return &category, nil
}

func (r *CategoryRepository) Save(ctx context.Context, category domain.Category) (*domain.Category, error) {
	var result domain.Category
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING `+categoryColumns,
		category.Name, category.Description,
	).StructScan(&result)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &result, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) (*domain.Category, error) {
	var result domain.Category
	err := r.db.QueryRowxContext(ctx,
		`UPDATE categories
		 SET name = $2, description = $3, deleted_at = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+categoryColumns,
		category.ID, category.Name, category.Description, category.DeletedAt,
	).StructScan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update category %d: %w", category.ID, err)
	}
	return &result, nil
}
