package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type EmploymentStatus string

const (
	EmploymentStatusActive  EmploymentStatus = "active"
	EmploymentStatusRetired EmploymentStatus = "retired"
	EmploymentStatusRemoved EmploymentStatus = "removed"
)

// Employee is owned by the personnel directory; the payroll engine reads it
// for roster and base-compensation data and never mutates it.
type Employee struct {
	ID                string
	OrganizationID    string
	FacilityID        *string
	FullName          string
	Department        *string
	Status            EmploymentStatus
	BaseCompensation  *decimal.Decimal
	Currency          string
	BankName          *string
	BankAccountNumber *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
