package facility

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string, organizationID string) (Facility, error)
}
