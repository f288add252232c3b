package permissions

import "testing"

func TestApplyAccessToggleIsAllOrNothing(t *testing.T) {
	full := Apply(Record{UserID: 1, AssetID: 2}, CapAccess, true)
	for _, c := range Capabilities() {
		if !full.Get(c) {
			t.Fatalf("access grant left %s false", c)
		}
	}
	cleared := Apply(full, CapAccess, false)
	if !cleared.Empty() {
		t.Fatalf("access revoke left bits set: %+v", cleared)
	}
}

func TestApplyGrantCascades(t *testing.T) {
	cases := []struct {
		name string
		cap  Capability
		want Record
	}{
		{"write pulls modify and read", CapDashboardsWrite, Record{
			Access: true, DashboardsRead: true, DashboardsModify: true, DashboardsWrite: true,
		}},
		{"modify pulls read", CapDashboardsModify, Record{
			Access: true, DashboardsRead: true, DashboardsModify: true,
		}},
		{"read stands alone", CapDashboardsRead, Record{
			Access: true, DashboardsRead: true,
		}},
		{"documents write", CapDocumentsWrite, Record{
			Access: true, DocumentsRead: true, DocumentsModify: true, DocumentsWrite: true,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(Record{}, tc.cap, true)
			if !got.SameBits(tc.want) {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestApplyRevokeCascades(t *testing.T) {
	full := Apply(Record{}, CapAccess, true)

	noRead := Apply(full, CapDashboardsRead, false)
	if noRead.DashboardsRead || noRead.DashboardsModify || noRead.DashboardsWrite {
		t.Fatalf("revoking read must clear the whole triple: %+v", noRead)
	}
	if !noRead.DocumentsRead || !noRead.DocumentsModify || !noRead.DocumentsWrite {
		t.Fatal("documents triple must be untouched by a dashboards revoke")
	}
	if !noRead.Access {
		t.Fatal("access must stay set while documents bits remain")
	}

	noModify := Apply(full, CapDocumentsModify, false)
	if noModify.DocumentsModify || noModify.DocumentsWrite {
		t.Fatalf("revoking modify must clear write: %+v", noModify)
	}
	if !noModify.DocumentsRead {
		t.Fatal("revoking modify must keep read")
	}
}

func TestApplyAccessClearsWhenLastBitDrops(t *testing.T) {
	rec := Apply(Record{}, CapDashboardsRead, true)
	rec = Apply(rec, CapDashboardsRead, false)
	if rec.Access {
		t.Fatal("access must drop when the last capability clears")
	}
	if !rec.Empty() {
		t.Fatalf("expected empty record, got %+v", rec)
	}
}

// Every bit sequence must leave both invariants intact after each step.
func TestApplySequencesKeepInvariants(t *testing.T) {
	caps := Capabilities()
	rec := Record{UserID: 7, AssetID: 9}
	step := 0
	for _, first := range caps {
		for _, second := range caps {
			for _, v1 := range []bool{true, false} {
				for _, v2 := range []bool{true, false} {
					rec = Apply(rec, first, v1)
					assertInvariants(t, rec, step)
					rec = Apply(rec, second, v2)
					assertInvariants(t, rec, step+1)
					step += 2
				}
			}
		}
	}
}

func assertInvariants(t *testing.T, r Record, step int) {
	t.Helper()
	if !Consistent(r) {
		t.Fatalf("step %d: inconsistent record %+v", step, r)
	}
	// The engine never produces bare access: access tracks the bits.
	if r.Access != r.AnyCapability() && !r.Access {
		t.Fatalf("step %d: access false with bits set %+v", step, r)
	}
}

func TestApplyIdempotent(t *testing.T) {
	for _, c := range Capabilities() {
		for _, v := range []bool{true, false} {
			once := Apply(Record{}, c, v)
			twice := Apply(once, c, v)
			if !once.SameBits(twice) {
				t.Fatalf("%s=%v not idempotent: %+v vs %+v", c, v, once, twice)
			}
		}
	}
}

func TestParseCapability(t *testing.T) {
	for _, c := range Capabilities() {
		parsed, err := ParseCapability(c.String())
		if err != nil || parsed != c {
			t.Fatalf("round trip %s failed: %v", c, err)
		}
	}
	if _, err := ParseCapability("dashboards_delete"); err == nil {
		t.Fatal("expected unknown capability error")
	}
}

func TestApplyIgnoresOutOfRangeCapability(t *testing.T) {
	in := Record{UserID: 1, AssetID: 2}
	if got := Apply(in, Capability(99), true); got != in {
		t.Fatalf("out-of-range grant changed the record: %+v", got)
	}
	held := Record{UserID: 1, AssetID: 2, Access: true, DashboardsRead: true}
	if got := Apply(held, Capability(-1), false); got != held {
		t.Fatalf("out-of-range revoke changed the record: %+v", got)
	}
}
