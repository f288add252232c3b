package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetgrid/fleetgrid/internal/roles"
	"github.com/fleetgrid/fleetgrid/internal/shared"
)

// RepositoryPort defines data access methods for the user directory.
type RepositoryPort interface {
	ListByTenant(ctx context.Context, tenantID int64) ([]User, error)
	GetByID(ctx context.Context, id int64) (User, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByTenant returns every user belonging to the tenant. Inactive
// accounts are included; callers decide how to present them.
func (r *Repository) ListByTenant(ctx context.Context, tenantID int64) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, email, display_name, role_labels, is_active, created_at, updated_at FROM users WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a single user.
func (r *Repository) GetByID(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, tenant_id, email, display_name, role_labels, is_active, created_at, updated_at FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var user User
	var labels []string
	if err := row.Scan(&user.ID, &user.TenantID, &user.Email, &user.DisplayName, &labels, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return User{}, err
	}
	user.Labels = make([]roles.Label, len(labels))
	for i, l := range labels {
		user.Labels[i] = roles.Label(l)
	}
	return user, nil
}

var _ RepositoryPort = (*Repository)(nil)
