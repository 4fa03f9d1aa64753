package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enum — lifecycle of a compensation record
type Status string

const (
	StatusDraft     Status = "draft"
	StatusApproved  Status = "approved"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// transitions is the closed transition table. Paid and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusApproved, StatusPaid, StatusCancelled},
	StatusApproved:  {StatusPaid, StatusCancelled},
	StatusPaid:      {},
	StatusCancelled: {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Editable reports whether base amount and line items may still change.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusApproved
}

func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// LineItem - named monetary adjustment (allowance, deduction, or bonus).
// Amounts may be negative when the caller intends a clawback.
type LineItem struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// CompensationRecord - one settlement per employee per pay period
type CompensationRecord struct {
	ID             string
	OrganizationID string
	EmployeeID     string
	FacilityID     *string
	PeriodMonth    int
	PeriodYear     int

	BaseAmount decimal.Decimal
	Currency   string
	Allowances []LineItem
	Deductions []LineItem
	Bonuses    []LineItem

	// Derived by the calculation engine, never set directly.
	GrossAmount     decimal.Decimal
	TotalDeductions decimal.Decimal
	NetAmount       decimal.Decimal

	Status      Status
	PaymentDate *time.Time

	Signed   bool
	SignedBy *string
	SignedAt *time.Time

	// Informational only, not validated by the engine.
	BankName          *string
	BankAccountNumber *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined fields
	EmployeeName *string
	FacilityName *string
	Department   *string
}
