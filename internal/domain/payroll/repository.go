package payroll

import (
	"context"
	"time"
)

// Repository defines data access for compensation records.
// All methods take organizationID to prevent cross-organization data access.
type Repository interface {
	Create(ctx context.Context, record CompensationRecord) (CompensationRecord, error)
	GetByID(ctx context.Context, id string, organizationID string) (CompensationRecord, error)
	// GetByIDForUpdate locks the row for the duration of the surrounding
	// transaction so fetch-merge-recompute updates are atomic.
	GetByIDForUpdate(ctx context.Context, id string, organizationID string) (CompensationRecord, error)
	// FindActiveByEmployeePeriod returns the non-cancelled record for
	// (employee, period), or ErrRecordNotFound.
	FindActiveByEmployeePeriod(ctx context.Context, organizationID, employeeID string, month, year int) (CompensationRecord, error)
	List(ctx context.Context, organizationID string, filter Filter) ([]CompensationRecord, int64, error)
	// UpdateFinancials persists base amount, currency, line items, derived
	// amounts, and bank routing for an editable record.
	UpdateFinancials(ctx context.Context, organizationID string, record CompensationRecord) (CompensationRecord, error)
	UpdateStatus(ctx context.Context, organizationID, id string, status Status, paymentDate *time.Time) (CompensationRecord, error)
	UpdateSigning(ctx context.Context, organizationID, id string, signedBy string, signedAt time.Time) (CompensationRecord, error)
	GetPeriodSummary(ctx context.Context, organizationID string, month, year int) (PeriodSummaryResponse, error)
}

// TxManager runs fn inside a single store transaction. Repository calls made
// with the context passed to fn join that transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
