package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/domain"
)

// ProductInput carries the writable fields of a product.
type ProductInput struct {
	CategoryID  int64  `json:"category_id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"max=500"`
	PriceCents  int64  `json:"price_cents" validate:"gte=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

// ProductService manages products with plain error returns. Its handlers
// return the error to echo, whose HTTPErrorHandler picks the response.
type ProductService struct {
	products   ProductStore
	categories CategoryStore
	logger     *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(products ProductStore, categories CategoryStore, logger *zap.Logger) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
		logger:     logger.With(zap.String("service", "product")),
	}
}

// List returns all products that are not deleted.
func (s *ProductService) List(ctx context.Context) ([]ProductView, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return project(products, ToProductView), nil
}

// Get returns a product by ID.
func (s *ProductService) Get(ctx context.Context, id int64) (ProductView, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return ProductView{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return ToProductView(product), nil
}

// Create stores a new product in an existing category.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (ProductView, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateProductName(in.Name); err != nil {
		return ProductView{}, err
	}
	if err := s.ensureCategory(ctx, in.CategoryID); err != nil {
		return ProductView{}, err
	}
	if err := s.ensureUniqueName(ctx, in.Name, 0); err != nil {
		return ProductView{}, err
	}

	product, err := s.products.Save(ctx, domain.Product{
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		PriceCents:  in.PriceCents,
		Stock:       in.Stock,
	})
	if err != nil {
		return ProductView{}, fmt.Errorf("save product: %w", err)
	}

	s.logger.Info("Product created", zap.Int64("product_id", product.ID))
	return ToProductView(product), nil
}

// Update replaces the writable fields of a product.
func (s *ProductService) Update(ctx context.Context, id int64, in ProductInput) (ProductView, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateProductName(in.Name); err != nil {
		return ProductView{}, err
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return ProductView{}, fmt.Errorf("get product %d: %w", id, err)
	}
	if err := s.ensureCategory(ctx, in.CategoryID); err != nil {
		return ProductView{}, err
	}
	if err := s.ensureUniqueName(ctx, in.Name, product.ID); err != nil {
		return ProductView{}, err
	}

	product.CategoryID = in.CategoryID
	product.Name = in.Name
	product.Description = strings.TrimSpace(in.Description)
	product.PriceCents = in.PriceCents
	product.Stock = in.Stock

	updated, err := s.products.Update(ctx, *product)
	if err != nil {
		return ProductView{}, fmt.Errorf("update product %d: %w", id, err)
	}

	s.logger.Info("Product updated", zap.Int64("product_id", id))
	return ToProductView(updated), nil
}

// Delete soft-deletes a product.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product %d: %w", id, err)
	}

	now := time.Now()
	product.DeletedAt = &now
	if _, err := s.products.Update(ctx, *product); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}

	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *ProductService) ensureCategory(ctx context.Context, categoryID int64) error {
	_, err := s.categories.FindByID(ctx, categoryID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.ValidationError{Field: "category_id", Message: fmt.Sprintf("category %d does not exist", categoryID)}
	}
	if err != nil {
		return fmt.Errorf("check category %d: %w", categoryID, err)
	}
	return nil
}

func (s *ProductService) ensureUniqueName(ctx context.Context, name string, selfID int64) error {
	existing, err := s.products.FindByName(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check product name: %w", err)
	case existing.ID == selfID:
		return nil
	}
	return fmt.Errorf("%w: product %q already exists", domain.ErrConflict, name)
}

func validateProductName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < nameMinLength || n > nameMaxLength {
		return &domain.ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("name must be between %d and %d characters", nameMinLength, nameMaxLength),
		}
	}
	return nil
}
