package users

import (
	"time"

	"github.com/fleetgrid/fleetgrid/internal/roles"
)

// User represents a staff account in the user directory.
type User struct {
	ID          int64
	TenantID    int64
	Email       string
	DisplayName string
	Labels      []roles.Label
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Member projects the user onto the role hierarchy.
func (u User) Member() roles.Member {
	return roles.Member{TenantID: u.TenantID, Labels: u.Labels}
}
