package permissions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fleetgrid/fleetgrid/internal/shared"
	"github.com/fleetgrid/fleetgrid/internal/users"
)

// Mutation is one checkbox toggle: a single capability change for a
// (user, asset) cell.
type Mutation struct {
	UserID     int64
	AssetID    int64
	Capability Capability
	Value      bool
}

// SaveOutcome reports the result of a save cycle together with the
// refreshed matrix. The matrix is re-assembled after every reconcile
// because a successful grant can change what the actor may edit next.
type SaveOutcome struct {
	Result  ReconcileResult
	Matrix  *Matrix
	Warning string
}

// AuditSink records audit trail entries.
type AuditSink interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the permission matrix pipeline:
// assemble -> guard-checked mutations -> reconcile -> re-assemble.
type Service struct {
	assembler  *Assembler
	reconciler *Reconciler
	store      RecordStore
	audit      AuditSink
	cache      *Cache
	logger     *slog.Logger
}

// NewService constructs the engine service.
func NewService(assembler *Assembler, reconciler *Reconciler, store RecordStore, audit AuditSink, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		assembler:  assembler,
		reconciler: reconciler,
		store:      store,
		audit:      audit,
		cache:      cache,
		logger:     logger,
	}
}

// Matrix assembles the permission table for a tenant on behalf of the
// principal.
func (s *Service) Matrix(ctx context.Context, principal users.User, tenantID int64) (*Matrix, error) {
	return s.assembler.Assemble(ctx, principal, tenantID)
}

// Save applies a batch of mutations and persists the resulting diff.
// Every mutation must pass the delegation guard; a mutation for a
// locked cell means the caller ignored a false CanEdit and the whole
// request fails fast with ErrPreconditionViolation before any write.
func (s *Service) Save(ctx context.Context, principal users.User, tenantID int64, muts []Mutation) (*SaveOutcome, error) {
	matrix, err := s.assembler.Assemble(ctx, principal, tenantID)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, principal, tenantID, matrix, muts)
}

// GrantAllAssets grants the access switch for every asset of the tenant
// the actor may edit for the target. No new rule: it is a loop of
// access grants filtered through the guard plus one reconcile.
func (s *Service) GrantAllAssets(ctx context.Context, principal users.User, tenantID, targetID int64) (*SaveOutcome, error) {
	return s.bulkAccess(ctx, principal, tenantID, targetID, true)
}

// RemoveAllAssets revokes everything for the target on every asset the
// actor may edit. Removing from an already fully revoked user is a
// reported no-op with zero persisted calls.
func (s *Service) RemoveAllAssets(ctx context.Context, principal users.User, tenantID, targetID int64) (*SaveOutcome, error) {
	return s.bulkAccess(ctx, principal, tenantID, targetID, false)
}

func (s *Service) bulkAccess(ctx context.Context, principal users.User, tenantID, targetID int64, value bool) (*SaveOutcome, error) {
	matrix, err := s.assembler.Assemble(ctx, principal, tenantID)
	if err != nil {
		return nil, err
	}
	row, ok := matrix.Row(targetID)
	if !ok {
		return nil, shared.ErrNotFound
	}
	guard := NewGuard(principal, matrix.Principal)
	var muts []Mutation
	for _, asset := range matrix.Assets {
		if !guard.CanEdit(row.User, asset.ID, CapAccess) {
			continue
		}
		muts = append(muts, Mutation{UserID: targetID, AssetID: asset.ID, Capability: CapAccess, Value: value})
	}
	return s.save(ctx, principal, tenantID, matrix, muts)
}

func (s *Service) save(ctx context.Context, principal users.User, tenantID int64, matrix *Matrix, muts []Mutation) (*SaveOutcome, error) {
	guard := NewGuard(principal, matrix.Principal)

	baseline := matrix.Sets()
	edited := matrix.Sets()
	byUser := make(map[int64]*UserSet, len(edited))
	for i := range edited {
		byUser[edited[i].UserID] = &edited[i]
	}

	for _, mut := range muts {
		row, ok := matrix.Row(mut.UserID)
		if !ok {
			return nil, shared.ErrNotFound
		}
		if !assetInScope(matrix, mut.AssetID) {
			return nil, shared.ErrNotFound
		}
		if !guard.CanEdit(row.User, mut.AssetID, mut.Capability) {
			return nil, fmt.Errorf("%w: user %d asset %d %s",
				ErrPreconditionViolation, mut.UserID, mut.AssetID, mut.Capability)
		}
		set := byUser[mut.UserID]
		applyToSet(set, mut)
	}

	result := s.reconciler.Reconcile(ctx, baseline, edited, principal.ID)

	warning := ""
	if result.NoChanges() {
		warning = "no permission changes to apply"
		s.logger.Warn("permission save was a no-op",
			slog.Int64("tenant_id", tenantID),
			slog.Int64("actor_id", principal.ID))
	}

	for _, rec := range result.Changed {
		if s.audit == nil {
			break
		}
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  principal.ID,
			TenantID: tenantID,
			Action:   "permissions.update",
			Entity:   "permission_record",
			EntityID: fmt.Sprintf("%d:%d", rec.UserID, rec.AssetID),
			Meta: map[string]any{
				"batch_id":          result.BatchID.String(),
				"access":            rec.Access,
				"dashboards_read":   rec.DashboardsRead,
				"dashboards_modify": rec.DashboardsModify,
				"dashboards_write":  rec.DashboardsWrite,
				"documents_read":    rec.DocumentsRead,
				"documents_modify":  rec.DocumentsModify,
				"documents_write":   rec.DocumentsWrite,
			},
		}); err != nil {
			s.logger.Warn("audit permission change", slog.Any("error", err))
		}
	}

	if result.Succeeded > 0 {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump permission cache", slog.Any("error", err))
		}
	}
	if result.Failed > 0 {
		s.logger.Error("permission reconcile partial failure",
			slog.Int("failed", result.Failed),
			slog.Int("submitted", result.Submitted))
	}

	refreshed, err := s.assembler.Assemble(ctx, principal, tenantID)
	if err != nil {
		// The writes are already durable; surface the stale matrix with
		// the result rather than failing the save.
		s.logger.Error("re-assemble after reconcile", slog.Any("error", err))
		refreshed = matrix
	}

	return &SaveOutcome{Result: result, Matrix: refreshed, Warning: warning}, nil
}

// EffectiveSet returns the user's permission set for resolver queries,
// served through the snapshot cache.
func (s *Service) EffectiveSet(ctx context.Context, user users.User) (UserSet, error) {
	return s.cache.FetchSet(ctx, user.TenantID, user.ID, func(ctx context.Context) (UserSet, error) {
		recs, err := s.store.ListByUser(ctx, user.ID)
		if err != nil {
			return UserSet{}, err
		}
		return UserSet{UserID: user.ID, Records: recs}, nil
	})
}

func assetInScope(m *Matrix, assetID int64) bool {
	for _, a := range m.Assets {
		if a.ID == assetID {
			return true
		}
	}
	return false
}

func applyToSet(set *UserSet, mut Mutation) {
	for i, rec := range set.Records {
		if rec.AssetID == mut.AssetID {
			set.Records[i] = Apply(rec, mut.Capability, mut.Value)
			return
		}
	}
	rec := Apply(Record{UserID: mut.UserID, AssetID: mut.AssetID}, mut.Capability, mut.Value)
	set.Records = append(set.Records, rec)
}
