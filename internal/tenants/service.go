package tenants

import "context"

// Service handles tenant business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all tenants.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	return s.repo.List(ctx)
}

// GetByID returns one tenant.
func (s *Service) GetByID(ctx context.Context, id int64) (Tenant, error) {
	return s.repo.GetByID(ctx, id)
}
