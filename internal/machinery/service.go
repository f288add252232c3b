package machinery

import "context"

// Service handles machinery directory logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListByTenant returns the tenant's machinery.
func (s *Service) ListByTenant(ctx context.Context, tenantID int64) ([]Asset, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

// GetByID returns one asset.
func (s *Service) GetByID(ctx context.Context, id int64) (Asset, error) {
	return s.repo.GetByID(ctx, id)
}
