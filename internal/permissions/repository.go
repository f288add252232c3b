package permissions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnknownSubject indicates a record referenced a user or asset that
// does not exist.
var ErrUnknownSubject = errors.New("permissions: unknown user or asset")

// Repository provides PostgreSQL backed persistence for permission
// records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByUser returns the user's stored records across all assets.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, machinery_id, access,
		       dashboards_read, dashboards_modify, dashboards_write,
		       documents_read, documents_modify, documents_write
		  FROM permission_records
		 WHERE user_id = $1
		 ORDER BY machinery_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.UserID, &rec.AssetID, &rec.Access,
			&rec.DashboardsRead, &rec.DashboardsModify, &rec.DashboardsWrite,
			&rec.DocumentsRead, &rec.DocumentsModify, &rec.DocumentsWrite,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert persists one record. Records are created implicitly on the
// first grant; a record whose every bit is false is deleted instead of
// stored, so "no access" has a single observable representation.
func (r *Repository) Upsert(ctx context.Context, rec Record) error {
	if rec.Empty() {
		_, err := r.pool.Exec(ctx,
			`DELETE FROM permission_records WHERE user_id = $1 AND machinery_id = $2`,
			rec.UserID, rec.AssetID)
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO permission_records (
			user_id, machinery_id, access,
			dashboards_read, dashboards_modify, dashboards_write,
			documents_read, documents_modify, documents_write,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (user_id, machinery_id) DO UPDATE SET
			access = EXCLUDED.access,
			dashboards_read = EXCLUDED.dashboards_read,
			dashboards_modify = EXCLUDED.dashboards_modify,
			dashboards_write = EXCLUDED.dashboards_write,
			documents_read = EXCLUDED.documents_read,
			documents_modify = EXCLUDED.documents_modify,
			documents_write = EXCLUDED.documents_write,
			updated_at = NOW()`,
		rec.UserID, rec.AssetID, rec.Access,
		rec.DashboardsRead, rec.DashboardsModify, rec.DashboardsWrite,
		rec.DocumentsRead, rec.DocumentsModify, rec.DocumentsWrite)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrUnknownSubject
		}
		return err
	}
	return nil
}

// CountInconsistent counts stored rows violating the implication
// invariants, for the integrity scan. A bare access row is legal and
// not counted.
func (r *Repository) CountInconsistent(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM permission_records
		 WHERE (dashboards_write AND NOT dashboards_modify)
		    OR (dashboards_modify AND NOT dashboards_read)
		    OR (documents_write AND NOT documents_modify)
		    OR (documents_modify AND NOT documents_read)
		    OR (NOT access AND (
		        dashboards_read OR dashboards_modify OR dashboards_write OR
		        documents_read OR documents_modify OR documents_write))`).Scan(&n)
	return n, err
}

var _ RecordStore = (*Repository)(nil)
