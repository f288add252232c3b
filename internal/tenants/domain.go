package tenants

import (
	"time"

	"github.com/fleetgrid/fleetgrid/internal/roles"
)

// Tenant represents either the operator tenant or a customer company.
type Tenant struct {
	ID        int64
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Kind reports whether the tenant is the operator or a customer.
func (t Tenant) Kind() roles.TenantKind {
	return roles.KindOf(t.ID)
}
