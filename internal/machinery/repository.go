package machinery

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetgrid/fleetgrid/internal/shared"
)

// RepositoryPort defines data access methods for machinery.
type RepositoryPort interface {
	ListByTenant(ctx context.Context, tenantID int64) ([]Asset, error)
	GetByID(ctx context.Context, id int64) (Asset, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByTenant returns the tenant's machinery ordered by name.
func (r *Repository) ListByTenant(ctx context.Context, tenantID int64) ([]Asset, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, name, location, created_at, updated_at FROM machinery WHERE tenant_id = $1 ORDER BY name, id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Name, &a.Location, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one asset.
func (r *Repository) GetByID(ctx context.Context, id int64) (Asset, error) {
	var a Asset
	err := r.pool.QueryRow(ctx, `SELECT id, tenant_id, name, location, created_at, updated_at FROM machinery WHERE id = $1`, id).
		Scan(&a.ID, &a.TenantID, &a.Name, &a.Location, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, shared.ErrNotFound
		}
		return Asset{}, err
	}
	return a, nil
}

var _ RepositoryPort = (*Repository)(nil)
