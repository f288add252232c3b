package permissions

import (
	"context"
	"errors"
	"testing"
)

func TestReconcileSubmitsOnlyChanges(t *testing.T) {
	store := newStubStore()
	rc := NewReconciler(store)

	unchanged := Apply(Record{UserID: 2, AssetID: 10}, CapAccess, true)
	baseline := []UserSet{{UserID: 2, Records: []Record{unchanged, {UserID: 2, AssetID: 11}}}}

	edited := []UserSet{{UserID: 2, Records: []Record{
		unchanged,
		Apply(Record{UserID: 2, AssetID: 11}, CapDocumentsRead, true),
	}}}

	result := rc.Reconcile(context.Background(), baseline, edited, 99)
	if result.Submitted != 1 || result.Succeeded != 1 || result.Failed != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(store.upserts) != 1 || store.upserts[0].AssetID != 11 {
		t.Fatalf("expected single upsert for asset 11, got %+v", store.upserts)
	}
}

func TestReconcileSkipsPrincipalRecords(t *testing.T) {
	store := newStubStore()
	rc := NewReconciler(store)

	baseline := []UserSet{{UserID: 1, Records: []Record{{UserID: 1, AssetID: 10}}}}
	edited := []UserSet{{UserID: 1, Records: []Record{
		Apply(Record{UserID: 1, AssetID: 10}, CapAccess, true),
	}}}

	result := rc.Reconcile(context.Background(), baseline, edited, 1)
	if !result.NoChanges() {
		t.Fatalf("self edits must never be submitted: %+v", result)
	}
	if len(store.upserts) != 0 {
		t.Fatal("no persist calls expected")
	}
}

func TestReconcilePartialFailure(t *testing.T) {
	store := newStubStore()
	rc := NewReconciler(store)

	const n = 6
	baseline := make([]UserSet, 0, n)
	edited := make([]UserSet, 0, n)
	for i := int64(1); i <= n; i++ {
		baseline = append(baseline, UserSet{UserID: i, Records: []Record{{UserID: i, AssetID: 10}}})
		edited = append(edited, UserSet{UserID: i, Records: []Record{
			Apply(Record{UserID: i, AssetID: 10}, CapAccess, true),
		}})
	}
	// Exactly two writes fail.
	store.upsertErrs["2:10"] = errors.New("timeout")
	store.upsertErrs["5:10"] = errors.New("timeout")

	result := rc.Reconcile(context.Background(), baseline, edited, 99)
	if result.Submitted != n {
		t.Fatalf("submitted = %d, want %d", result.Submitted, n)
	}
	if result.Failed != 2 || result.Succeeded != n-2 {
		t.Fatalf("failed/succeeded = %d/%d, want 2/%d", result.Failed, result.Succeeded, n-2)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(result.Errors))
	}
	// Successes are durable regardless of the sibling failures.
	if len(store.upserts) != n-2 {
		t.Fatalf("expected %d durable writes, got %d", n-2, len(store.upserts))
	}
}

func TestReconcileSurvivesCancelledCaller(t *testing.T) {
	store := newStubStore()
	rc := NewReconciler(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // UI torn down before the batch starts

	baseline := []UserSet{{UserID: 2, Records: []Record{{UserID: 2, AssetID: 10}}}}
	edited := []UserSet{{UserID: 2, Records: []Record{
		Apply(Record{UserID: 2, AssetID: 10}, CapAccess, true),
	}}}

	result := rc.Reconcile(ctx, baseline, edited, 99)
	if result.Succeeded != 1 {
		t.Fatalf("in-flight writes must complete after cancellation: %+v", result)
	}
}

func TestReconcileDeletesClearedRecords(t *testing.T) {
	store := newStubStore()
	full := Apply(Record{UserID: 2, AssetID: 10}, CapAccess, true)
	store.records[2] = []Record{full}
	rc := NewReconciler(store)

	baseline := []UserSet{{UserID: 2, Records: []Record{full}}}
	edited := []UserSet{{UserID: 2, Records: []Record{
		Apply(full, CapAccess, false),
	}}}

	result := rc.Reconcile(context.Background(), baseline, edited, 99)
	if result.Succeeded != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(store.records[2]) != 0 {
		t.Fatal("cleared record must be removed from storage")
	}
}
