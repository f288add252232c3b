package roles

// rankTable maps (tenant kind, label) onto a rank. Keeping one table
// for both label sets avoids duplicated tier logic.
var rankTable = map[TenantKind]map[Label]Rank{
	TenantCustomer: {
		CustomerWorker:  RankStaff,
		CustomerManager: RankManager,
		CustomerAdmin:   RankAdmin,
	},
	TenantOperator: {
		OperatorOfficer:    RankStaff,
		OperatorSupervisor: RankManager,
		OperatorChief:      RankAdmin,
	},
}

// Rank returns the maximum tier among the member's labels. Unknown
// labels are ignored; an empty or unrecognised set yields RankNone.
// Users normally hold a single label, but the maximum rule keeps
// multi-label accounts well defined.
func (m Member) Rank() Rank {
	table := rankTable[m.Kind()]
	rank := RankNone
	for _, label := range m.Labels {
		if r, ok := table[label]; ok && r > rank {
			rank = r
		}
	}
	return rank
}

// IsOperatorChief reports whether the member is top-tier operator
// staff. Chiefs bypass the permission matrix entirely.
func IsOperatorChief(m Member) bool {
	return m.Kind() == TenantOperator && m.Rank() == RankAdmin
}

// IsOperatorSupervisorOrAbove reports whether the member is elevated
// operator staff (supervisor or chief).
func IsOperatorSupervisorOrAbove(m Member) bool {
	return m.Kind() == TenantOperator && m.Rank() >= RankManager
}

// IsCustomerAdmin reports whether the member is a customer tenant
// admin. The tenancy check matters: operator chiefs share the admin
// rank but must not be classified as customer admins.
func IsCustomerAdmin(m Member) bool {
	return m.Kind() == TenantCustomer && m.Rank() == RankAdmin
}

// IsCustomerManagerOrAbove reports whether the member is a customer
// manager or admin.
func IsCustomerManagerOrAbove(m Member) bool {
	return m.Kind() == TenantCustomer && m.Rank() >= RankManager
}
