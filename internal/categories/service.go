package categories

import (
	"context"
	"strings"
)

// Repository defines persistence operations for categories.
type Repository interface {
	List(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id int64) (Category, error)
	Create(ctx context.Context, name string) (Category, error)
	Rename(ctx context.Context, id int64, name string) (Category, error)
	Delete(ctx context.Context, id int64) error
}

// Service wraps category business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all categories ordered by name.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

// GetByID fetches one category.
func (s *Service) GetByID(ctx context.Context, id int64) (Category, error) {
	return s.repo.GetByID(ctx, id)
}

// Create adds a category with a unique, trimmed name.
func (s *Service) Create(ctx context.Context, name string) (Category, error) {
	return s.repo.Create(ctx, strings.TrimSpace(name))
}

// Rename changes a category's name, keeping uniqueness.
func (s *Service) Rename(ctx context.Context, id int64, name string) (Category, error) {
	return s.repo.Rename(ctx, id, strings.TrimSpace(name))
}

// Delete removes a category that no product references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
