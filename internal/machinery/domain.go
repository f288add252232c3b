package machinery

import "time"

// Asset represents a machinery unit. An asset belongs to exactly one
// tenant at a time; the location grouping is informational only.
type Asset struct {
	ID        int64
	TenantID  int64
	Name      string
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
