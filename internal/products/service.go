package products

import (
	"context"
	"strings"
)

// ListFilter narrows product listings.
type ListFilter struct {
	Search     string
	CategoryID *int64
}

// Repository defines persistence operations for products.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	GetByID(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, product Product) (Product, error)
	Delete(ctx context.Context, id int64) error
}

// Service wraps product master-data rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries fields for a new product.
type CreateInput struct {
	Name       string
	CategoryID *int64
	Unit       string
}

// UpdateInput carries fields an existing product may change. Nil fields
// are left untouched.
type UpdateInput struct {
	Name       *string
	CategoryID *int64
	Unit       *string
}

// List returns products matching the filter, ordered by name.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

// GetByID fetches one product.
func (s *Service) GetByID(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create adds a product. Stock starts at zero; only inbound recording
// moves it.
func (s *Service) Create(ctx context.Context, in CreateInput) (Product, error) {
	unit, err := ParseUnit(in.Unit)
	if err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, Product{
		Name:       strings.TrimSpace(in.Name),
		CategoryID: in.CategoryID,
		Unit:       unit,
	})
}

// Update changes product master data. The stock aggregate cannot be set
// here.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.CategoryID != nil {
		product.CategoryID = in.CategoryID
	}
	if in.Unit != nil {
		unit, err := ParseUnit(*in.Unit)
		if err != nil {
			return Product{}, err
		}
		product.Unit = unit
	}
	return s.repo.Update(ctx, product)
}

// Delete removes a product that has no ledger history.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
