package permissions

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/fleetgrid/fleetgrid/internal/machinery"
	"github.com/fleetgrid/fleetgrid/internal/roles"
	"github.com/fleetgrid/fleetgrid/internal/users"
)

// UserDirectory lists the users in scope for a matrix.
type UserDirectory interface {
	ListByTenant(ctx context.Context, tenantID int64) ([]users.User, error)
}

// AssetDirectory lists the machinery in scope for a matrix.
type AssetDirectory interface {
	ListByTenant(ctx context.Context, tenantID int64) ([]machinery.Asset, error)
}

// RecordStore is the persisted permission record interface.
type RecordStore interface {
	ListByUser(ctx context.Context, userID int64) ([]Record, error)
	Upsert(ctx context.Context, rec Record) error
}

// Row is one user's row group in the matrix.
type Row struct {
	User users.User
	Set  UserSet
}

// OmittedRow reports a user whose records could not be fetched. The
// rest of the matrix is still served.
type OmittedRow struct {
	UserID      int64
	DisplayName string
	Reason      string
}

// Matrix is the assembled permission table for one tenant: all in-scope
// users crossed with all in-scope assets.
type Matrix struct {
	TenantID  int64
	Assets    []machinery.Asset
	Rows      []Row
	Principal UserSet
	Omitted   []OmittedRow
}

// Row returns the row for a user id, if present.
func (m *Matrix) Row(userID int64) (Row, bool) {
	for _, row := range m.Rows {
		if row.User.ID == userID {
			return row, true
		}
	}
	return Row{}, false
}

// Sets extracts the row sets, the baseline shape the reconciler diffs.
func (m *Matrix) Sets() []UserSet {
	out := make([]UserSet, len(m.Rows))
	for i, row := range m.Rows {
		out[i] = row.Set.Clone()
	}
	return out
}

const defaultFetchLimit = 8

// Assembler composes permission matrices from the directories and the
// record store.
type Assembler struct {
	users  UserDirectory
	assets AssetDirectory
	store  RecordStore
	logger *slog.Logger
	limit  int
}

// NewAssembler constructs an Assembler.
func NewAssembler(userDir UserDirectory, assetDir AssetDirectory, store RecordStore, logger *slog.Logger) *Assembler {
	return &Assembler{users: userDir, assets: assetDir, store: store, logger: logger, limit: defaultFetchLimit}
}

// Assemble builds the matrix for a tenant on behalf of the principal.
// Directory failures are fatal; a single user's record fetch failing
// only omits that row. The principal's own set is always captured, and
// an operator principal's row is removed from the editable rows while
// a customer principal keeps theirs (the guard locks its cells).
func (a *Assembler) Assemble(ctx context.Context, principal users.User, tenantID int64) (*Matrix, error) {
	tenantUsers, err := a.users.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	assets, err := a.assets.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	sortUsersByName(tenantUsers)

	principalInScope := false
	for _, u := range tenantUsers {
		if u.ID == principal.ID {
			principalInScope = true
			break
		}
	}

	fetchIDs := make([]int64, 0, len(tenantUsers)+1)
	for _, u := range tenantUsers {
		fetchIDs = append(fetchIDs, u.ID)
	}
	if !principalInScope {
		fetchIDs = append(fetchIDs, principal.ID)
	}

	fetched := make([][]Record, len(fetchIDs))
	fetchErrs := make([]error, len(fetchIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for i, id := range fetchIDs {
		g.Go(func() error {
			recs, err := a.store.ListByUser(gctx, id)
			if err != nil {
				// Recorded per user, never fatal to the assembly.
				fetchErrs[i] = err
				return nil
			}
			fetched[i] = recs
			return nil
		})
	}
	_ = g.Wait()

	matrix := &Matrix{TenantID: tenantID, Assets: assets}
	operatorPrincipal := roles.KindOf(principal.TenantID) == roles.TenantOperator

	for i, u := range tenantUsers {
		if fetchErrs[i] != nil {
			a.logger.Warn("permission fetch failed, row omitted",
				slog.Int64("user_id", u.ID),
				slog.Any("error", fetchErrs[i]))
			matrix.Omitted = append(matrix.Omitted, OmittedRow{
				UserID:      u.ID,
				DisplayName: u.DisplayName,
				Reason:      fetchErrs[i].Error(),
			})
			continue
		}
		set := joinRecords(u.ID, assets, fetched[i])
		if u.ID == principal.ID {
			matrix.Principal = set.Clone()
			if operatorPrincipal {
				continue
			}
		}
		matrix.Rows = append(matrix.Rows, Row{User: u, Set: set})
	}

	if !principalInScope {
		idx := len(fetchIDs) - 1
		if fetchErrs[idx] != nil {
			// Without the principal's own set every delegation check is
			// false. Serve the matrix read-only rather than failing it.
			a.logger.Warn("principal permission fetch failed, matrix is read-only",
				slog.Int64("user_id", principal.ID),
				slog.Any("error", fetchErrs[idx]))
			matrix.Principal = UserSet{UserID: principal.ID}
		} else {
			matrix.Principal = joinRecords(principal.ID, assets, fetched[idx])
		}
	}

	return matrix, nil
}

// joinRecords left joins the asset list with a user's stored records:
// exactly one record per asset, missing ones synthesized as all-false.
func joinRecords(userID int64, assets []machinery.Asset, stored []Record) UserSet {
	byAsset := make(map[int64]Record, len(stored))
	for _, rec := range stored {
		byAsset[rec.AssetID] = rec
	}
	set := UserSet{UserID: userID, Records: make([]Record, 0, len(assets))}
	for _, asset := range assets {
		if rec, ok := byAsset[asset.ID]; ok {
			rec.UserID = userID
			set.Records = append(set.Records, rec)
			continue
		}
		set.Records = append(set.Records, Record{UserID: userID, AssetID: asset.ID})
	}
	return set
}

func sortUsersByName(list []users.User) {
	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(list, func(i, j int) bool {
		if c := col.CompareString(list[i].DisplayName, list[j].DisplayName); c != 0 {
			return c < 0
		}
		return list[i].ID < list[j].ID
	})
}
