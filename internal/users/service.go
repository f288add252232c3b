package users

import (
	"context"
)

// Service handles user directory business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListByTenant returns the users of a tenant.
func (s *Service) ListByTenant(ctx context.Context, tenantID int64) ([]User, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

// GetByID returns one user.
func (s *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}
