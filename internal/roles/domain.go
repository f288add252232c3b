package roles

// OperatorTenantID is the distinguished tenant overseeing all customer
// tenants. Every other tenant id belongs to a customer company.
const OperatorTenantID int64 = 0

// TenantKind distinguishes operator staff from customer staff.
type TenantKind int

const (
	// TenantCustomer marks a customer company tenant.
	TenantCustomer TenantKind = iota
	// TenantOperator marks the platform operator tenant.
	TenantOperator
)

// KindOf derives tenancy kind from a tenant id.
func KindOf(tenantID int64) TenantKind {
	if tenantID == OperatorTenantID {
		return TenantOperator
	}
	return TenantCustomer
}

// Label is a role label. The two tenancy kinds carry parallel label
// sets mapping onto the same three ranks.
type Label string

// Customer tenant labels.
const (
	CustomerWorker  Label = "worker"
	CustomerManager Label = "manager"
	CustomerAdmin   Label = "admin"
)

// Operator tenant labels.
const (
	OperatorOfficer    Label = "officer"
	OperatorSupervisor Label = "supervisor"
	OperatorChief      Label = "chief"
)

// Rank is the tier derived from role labels, comparable across the two
// label sets.
type Rank int

const (
	// RankNone means no recognised label.
	RankNone Rank = 0
	// RankStaff covers workers and officers.
	RankStaff Rank = 1
	// RankManager covers managers and supervisors.
	RankManager Rank = 2
	// RankAdmin covers admins and chiefs.
	RankAdmin Rank = 3
)

// Member describes a user's tenancy and role labels, the inputs for
// every rank predicate.
type Member struct {
	TenantID int64
	Labels   []Label
}

// Kind returns the member's tenancy kind.
func (m Member) Kind() TenantKind {
	return KindOf(m.TenantID)
}
