package employee

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string, organizationID string) (Employee, error)
	// ListActive returns employees eligible for payroll generation: active
	// only, optionally restricted to one facility.
	ListActive(ctx context.Context, organizationID string, facilityID *string) ([]Employee, error)
}
