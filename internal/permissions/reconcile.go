package permissions

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ReconcileResult aggregates the outcome of one persistence batch.
// There is no cross-record transaction: successes stand even when
// siblings fail.
type ReconcileResult struct {
	BatchID   uuid.UUID
	Submitted int
	Succeeded int
	Failed    int
	Errors    []error
	// Changed lists the records that were submitted, for auditing.
	Changed []Record
}

// NoChanges reports whether the diff found nothing to persist.
func (r ReconcileResult) NoChanges() bool {
	return r.Submitted == 0
}

const persistLimit = 8

// Reconciler diffs edited permission sets against their baseline and
// persists only the changed records, concurrently and independently.
type Reconciler struct {
	store RecordStore
	limit int
}

// NewReconciler constructs a Reconciler over the record store.
func NewReconciler(store RecordStore) *Reconciler {
	return &Reconciler{store: store, limit: persistLimit}
}

// Reconcile computes the structural diff between baseline and edited
// sets and persists each changed record. The principal's own records
// are never submitted. Writes run on a context detached from caller
// cancellation: each is a small idempotent single-record upsert, and
// letting it finish beats leaving the row ambiguous when the caller
// goes away mid-batch.
func (rc *Reconciler) Reconcile(ctx context.Context, baseline, edited []UserSet, principalID int64) ReconcileResult {
	result := ReconcileResult{BatchID: uuid.New()}

	base := make(map[int64]UserSet, len(baseline))
	for _, set := range baseline {
		base[set.UserID] = set
	}

	for _, set := range edited {
		if set.UserID == principalID {
			continue
		}
		before := base[set.UserID]
		for _, rec := range set.Records {
			if rec.SameBits(before.Record(rec.AssetID)) {
				continue
			}
			result.Changed = append(result.Changed, rec)
		}
	}
	result.Submitted = len(result.Changed)
	if result.Submitted == 0 {
		return result
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(rc.limit)
	writeCtx := context.WithoutCancel(ctx)
	for _, rec := range result.Changed {
		g.Go(func() error {
			err := rc.store.Upsert(writeCtx, rec)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors,
					fmt.Errorf("persist user %d asset %d: %w", rec.UserID, rec.AssetID, err))
				return nil
			}
			result.Succeeded++
			return nil
		})
	}
	_ = g.Wait()
	return result
}
