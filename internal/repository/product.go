package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/storefront/internal/domain"
)

const productColumns = `id, category_id, name, description, price_cents, stock, created_at, updated_at, deleted_at`

// ProductRepository handles product data access operations.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	err := r.db.SelectContext(ctx, &products,
		`SELECT `+productColumns+` FROM products WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	err := r.db.GetContext(ctx, &product,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find product by id %d: %w", id, err)
	}
	return &product, nil
}

func (r *ProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	var product domain.Product
	err := r.db.GetContext(ctx, &product,
		`SELECT `+productColumns+` FROM products WHERE lower(name) = lower($1) AND deleted_at IS NULL`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find product by name: %w", err)
	}
	return &product, nil
}

func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (*domain.Product, error) {
	var result domain.Product
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO products (category_id, name, description, price_cents, stock)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+productColumns,
		product.CategoryID, product.Name, product.Description, product.PriceCents, product.Stock,
	).StructScan(&result)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return &result, nil
}

func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (*domain.Product, error) {
	var result domain.Product
	err := r.db.QueryRowxContext(ctx,
		`UPDATE products
		 SET category_id = $2, name = $3, description = $4, price_cents = $5, stock = $6,
		     deleted_at = $7, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+productColumns,
		product.ID, product.CategoryID, product.Name, product.Description, product.PriceCents,
		product.Stock, product.DeletedAt,
	).StructScan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update product %d: %w", product.ID, err)
	}
	return &result, nil
}
