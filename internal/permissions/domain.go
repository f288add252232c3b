package permissions

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine.
var (
	// ErrUnknownCapability indicates a capability name outside the
	// closed set reached the engine. Programmer error, fails the single
	// mutation.
	ErrUnknownCapability = errors.New("permissions: unknown capability")
	// ErrPreconditionViolation indicates a mutation was submitted for a
	// cell the delegation guard rejects. Caller bug, fails fast.
	ErrPreconditionViolation = errors.New("permissions: mutation not permitted for actor")
)

// Capability identifies one bit of a permission record. The set is
// closed: wire names are parsed through ParseCapability so an unknown
// name is rejected at the boundary instead of growing the record.
type Capability int

const (
	// CapAccess is the aggregate all-or-nothing switch.
	CapAccess Capability = iota
	CapDashboardsRead
	CapDashboardsModify
	CapDashboardsWrite
	CapDocumentsRead
	CapDocumentsModify
	CapDocumentsWrite
)

var capabilityNames = map[Capability]string{
	CapAccess:           "access",
	CapDashboardsRead:   "dashboards_read",
	CapDashboardsModify: "dashboards_modify",
	CapDashboardsWrite:  "dashboards_write",
	CapDocumentsRead:    "documents_read",
	CapDocumentsModify:  "documents_modify",
	CapDocumentsWrite:   "documents_write",
}

// Capabilities lists every capability in record order.
func Capabilities() []Capability {
	return []Capability{
		CapAccess,
		CapDashboardsRead, CapDashboardsModify, CapDashboardsWrite,
		CapDocumentsRead, CapDocumentsModify, CapDocumentsWrite,
	}
}

// String returns the wire name of the capability.
func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("capability(%d)", int(c))
}

// ParseCapability resolves a wire name into a Capability.
func ParseCapability(name string) (Capability, error) {
	for c, n := range capabilityNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCapability, name)
}

// Record is the stored permission state for one (user, asset) pair.
// Absence of a record reads as the zero value: no access.
type Record struct {
	UserID  int64
	AssetID int64

	Access bool

	DashboardsRead   bool
	DashboardsModify bool
	DashboardsWrite  bool

	DocumentsRead   bool
	DocumentsModify bool
	DocumentsWrite  bool
}

// Get returns the value of one bit.
func (r Record) Get(c Capability) bool {
	switch c {
	case CapAccess:
		return r.Access
	case CapDashboardsRead:
		return r.DashboardsRead
	case CapDashboardsModify:
		return r.DashboardsModify
	case CapDashboardsWrite:
		return r.DashboardsWrite
	case CapDocumentsRead:
		return r.DocumentsRead
	case CapDocumentsModify:
		return r.DocumentsModify
	case CapDocumentsWrite:
		return r.DocumentsWrite
	}
	return false
}

// AnyCapability reports whether any of the six capability bits is set.
// The access switch itself does not count.
func (r Record) AnyCapability() bool {
	return r.DashboardsRead || r.DashboardsModify || r.DashboardsWrite ||
		r.DocumentsRead || r.DocumentsModify || r.DocumentsWrite
}

// Empty reports whether every bit including access is false. An empty
// record is observably identical to a missing one and is deleted from
// storage on persist.
func (r Record) Empty() bool {
	return !r.Access && !r.AnyCapability()
}

// SameBits reports whether two records carry identical flag values,
// ignoring the key fields.
func (r Record) SameBits(o Record) bool {
	return r.Access == o.Access &&
		r.DashboardsRead == o.DashboardsRead &&
		r.DashboardsModify == o.DashboardsModify &&
		r.DashboardsWrite == o.DashboardsWrite &&
		r.DocumentsRead == o.DocumentsRead &&
		r.DocumentsModify == o.DocumentsModify &&
		r.DocumentsWrite == o.DocumentsWrite
}

// UserSet is one user's permission records across the in-scope assets,
// exactly one entry per asset in asset order.
type UserSet struct {
	UserID  int64
	Records []Record
}

// Record returns the record for an asset, or a synthesized empty one.
func (s UserSet) Record(assetID int64) Record {
	for _, r := range s.Records {
		if r.AssetID == assetID {
			return r
		}
	}
	return Record{UserID: s.UserID, AssetID: assetID}
}

// Has reports whether the set holds the given bit for the asset.
func (s UserSet) Has(assetID int64, c Capability) bool {
	return s.Record(assetID).Get(c)
}

// Clone returns a deep copy. Consumers of a shared principal set take
// snapshots; the set itself is only ever replaced wholesale after a
// re-assembly.
func (s UserSet) Clone() UserSet {
	out := UserSet{UserID: s.UserID, Records: make([]Record, len(s.Records))}
	copy(out.Records, s.Records)
	return out
}
