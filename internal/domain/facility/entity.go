package facility

import "time"

// Facility is owned by the facility registry; the payroll engine uses it only
// to scope generation runs.
type Facility struct {
	ID             string
	OrganizationID string
	Name           string
	Address        *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
