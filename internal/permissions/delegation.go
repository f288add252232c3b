package permissions

import (
	"github.com/fleetgrid/fleetgrid/internal/roles"
	"github.com/fleetgrid/fleetgrid/internal/users"
)

// Guard decides whether an actor may view or alter a matrix cell.
// The actor's own permission set is the delegation bound: nobody grants
// a capability they do not themselves hold on that asset.
type Guard struct {
	Actor     users.User
	Principal UserSet
}

// NewGuard builds a Guard for the acting user with a snapshot of their
// own permission set.
func NewGuard(actor users.User, principal UserSet) Guard {
	return Guard{Actor: actor, Principal: principal.Clone()}
}

// CanEdit reports whether the actor may toggle the capability for the
// target on the asset. All conditions must hold:
//
//   - not a self edit; own permissions are immutable through this
//     surface
//   - the target is not elevated operator staff, who are always fully
//     permitted and cannot be restricted through the matrix
//   - the target ranks strictly below the actor, unless the actor is
//     elevated operator staff
//   - the actor's own record for the asset holds the same bit
//
// An actor with no record for the asset fails the last condition for
// every bit, locking the whole column.
func (g Guard) CanEdit(target users.User, assetID int64, c Capability) bool {
	if target.ID == g.Actor.ID {
		return false
	}
	targetMember := target.Member()
	if roles.IsOperatorChief(targetMember) {
		return false
	}
	if roles.IsOperatorSupervisorOrAbove(targetMember) {
		return false
	}
	actorMember := g.Actor.Member()
	if !roles.IsOperatorSupervisorOrAbove(actorMember) {
		if targetMember.Rank() >= actorMember.Rank() {
			return false
		}
	}
	return g.Principal.Has(assetID, c)
}

// DisplayValue returns the value a matrix cell should show. Elevated
// operator roles bypass per-asset checks at evaluation time, so their
// cells render as fully granted regardless of storage; everyone else
// shows the stored bit.
func (g Guard) DisplayValue(target users.User, stored Record, c Capability) bool {
	targetMember := target.Member()
	if roles.IsOperatorChief(targetMember) || roles.IsOperatorSupervisorOrAbove(targetMember) {
		return true
	}
	return stored.Get(c)
}
