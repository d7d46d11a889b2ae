package activities

import "context"

// Repository defines read operations over activities.
type Repository interface {
	List(ctx context.Context) ([]Activity, error)
	GetDetail(ctx context.Context, id int64) (Detail, error)
}

// Service exposes activity lookups.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all activities, newest first.
func (s *Service) List(ctx context.Context) ([]Activity, error) {
	return s.repo.List(ctx)
}

// GetDetail returns one activity with its outbound usage.
func (s *Service) GetDetail(ctx context.Context, id int64) (Detail, error) {
	return s.repo.GetDetail(ctx, id)
}
