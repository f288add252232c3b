package permissions

import "github.com/fleetgrid/fleetgrid/internal/roles"

// Read-side queries over a user's permission set, used by navigation
// guards. They never mutate state and never fail: absence of data is
// simply false. Elevated operator roles bypass the stored records.

// HasAnyAccess reports whether the member can reach any asset at all.
func HasAnyAccess(m roles.Member, set UserSet) bool {
	if roles.IsOperatorSupervisorOrAbove(m) {
		return true
	}
	for _, r := range set.Records {
		if r.Access {
			return true
		}
	}
	return false
}

// HasAnyCapability reports whether the member holds the bit on at
// least one asset.
func HasAnyCapability(m roles.Member, set UserSet, c Capability) bool {
	if roles.IsOperatorSupervisorOrAbove(m) {
		return true
	}
	for _, r := range set.Records {
		if r.Get(c) {
			return true
		}
	}
	return false
}

// HasCapabilityOnAsset reports whether the member holds the bit on the
// given asset.
func HasCapabilityOnAsset(m roles.Member, set UserSet, assetID int64, c Capability) bool {
	if roles.IsOperatorSupervisorOrAbove(m) {
		return true
	}
	return set.Has(assetID, c)
}
