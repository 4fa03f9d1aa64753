package payroll

import (
	"time"

	"github.com/orgnest/console-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== RECORD DTOs ==========

type CreateRecordRequest struct {
	EmployeeID        string          `json:"employee_id"`
	FacilityID        *string         `json:"facility_id,omitempty"`
	PeriodMonth       int             `json:"period_month"`
	PeriodYear        int             `json:"period_year"`
	BaseAmount        decimal.Decimal `json:"base_amount"`
	Currency          string          `json:"currency"`
	Allowances        []LineItem      `json:"allowances,omitempty"`
	Deductions        []LineItem      `json:"deductions,omitempty"`
	Bonuses           []LineItem      `json:"bonuses,omitempty"`
	BankName          *string         `json:"bank_name,omitempty"`
	BankAccountNumber *string         `json:"bank_account_number,omitempty"`
}

func (r *CreateRecordRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID == "" {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if r.PeriodMonth < 1 || r.PeriodMonth > 12 {
		errs = append(errs, validator.ValidationError{Field: "period_month", Message: "must be between 1 and 12"})
	}
	if r.PeriodYear < 2000 {
		errs = append(errs, validator.ValidationError{Field: "period_year", Message: "must be 2000 or later"})
	}
	if r.BaseAmount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "base_amount", Message: "must be non-negative"})
	}
	errs = append(errs, validateLineItems("allowances", r.Allowances)...)
	errs = append(errs, validateLineItems("deductions", r.Deductions)...)
	errs = append(errs, validateLineItems("bonuses", r.Bonuses)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateRecordRequest carries a partial edit. A nil collection keeps the
// stored one; a supplied collection replaces it wholesale, so recomputation
// always sees the full set.
type UpdateRecordRequest struct {
	ID                string
	BaseAmount        *decimal.Decimal `json:"base_amount,omitempty"`
	Currency          *string          `json:"currency,omitempty"`
	Allowances        *[]LineItem      `json:"allowances,omitempty"`
	Deductions        *[]LineItem      `json:"deductions,omitempty"`
	Bonuses           *[]LineItem      `json:"bonuses,omitempty"`
	BankName          *string          `json:"bank_name,omitempty"`
	BankAccountNumber *string          `json:"bank_account_number,omitempty"`
}

func (r *UpdateRecordRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.BaseAmount != nil && r.BaseAmount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "base_amount", Message: "must be non-negative"})
	}
	if r.Allowances != nil {
		errs = append(errs, validateLineItems("allowances", *r.Allowances)...)
	}
	if r.Deductions != nil {
		errs = append(errs, validateLineItems("deductions", *r.Deductions)...)
	}
	if r.Bonuses != nil {
		errs = append(errs, validateLineItems("bonuses", *r.Bonuses)...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// TouchesFinancials reports whether the edit requires recalculation.
func (r *UpdateRecordRequest) TouchesFinancials() bool {
	return r.BaseAmount != nil || r.Allowances != nil || r.Deductions != nil || r.Bonuses != nil
}

func validateLineItems(field string, items []LineItem) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for _, item := range items {
		if validator.IsEmpty(item.Name) {
			errs = append(errs, validator.ValidationError{Field: field, Message: "line item name is required"})
			break
		}
	}
	return errs
}

type MarkPaidRequest struct {
	PaymentDate *string `json:"payment_date,omitempty"` // "2006-01-02"; defaults to today
}

func (r *MarkPaidRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.PaymentDate != nil {
		if _, ok := validator.IsValidDate(*r.PaymentDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "payment_date", Message: "must be in YYYY-MM-DD format"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SignRequest struct {
	SignerName string `json:"signer_name"`
}

func (r *SignRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.SignerName) {
		errs = append(errs, validator.ValidationError{Field: "signer_name", Message: "is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== BULK DTOs ==========

type BulkMarkPaidRequest struct {
	RecordIDs   []string `json:"record_ids"`
	PaymentDate *string  `json:"payment_date,omitempty"`
}

func (r *BulkMarkPaidRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.RecordIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "record_ids", Message: "at least one record is required"})
	}
	if r.PaymentDate != nil {
		if _, ok := validator.IsValidDate(*r.PaymentDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "payment_date", Message: "must be in YYYY-MM-DD format"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type BulkSignRequest struct {
	RecordIDs []string `json:"record_ids"`
	// SignerNameByEmployee maps employee id to the acknowledging signer name.
	SignerNameByEmployee map[string]string `json:"signer_name_by_employee"`
}

func (r *BulkSignRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.RecordIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "record_ids", Message: "at least one record is required"})
	}
	if len(r.SignerNameByEmployee) == 0 {
		errs = append(errs, validator.ValidationError{Field: "signer_name_by_employee", Message: "is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ItemOutcome is one per-id result of a bulk operation, in input order.
// Exactly one of Record or Error is set.
type ItemOutcome struct {
	RecordID string          `json:"record_id"`
	Record   *RecordResponse `json:"record,omitempty"`
	Error    *OutcomeError   `json:"error,omitempty"`
}

type OutcomeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BulkOperationResult struct {
	Outcomes  []ItemOutcome `json:"outcomes"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

// ========== GENERATION DTOs ==========

type GeneratePayrollRequest struct {
	PeriodMonth int     `json:"period_month"`
	PeriodYear  int     `json:"period_year"`
	FacilityID  *string `json:"facility_id,omitempty"` // empty = whole organization
}

func (r *GeneratePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.PeriodMonth < 1 || r.PeriodMonth > 12 {
		errs = append(errs, validator.ValidationError{Field: "period_month", Message: "must be between 1 and 12"})
	}
	if r.PeriodYear < 2000 {
		errs = append(errs, validator.ValidationError{Field: "period_year", Message: "must be 2000 or later"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type GenerationFailure struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

// GenerationResult reports a partial-success generation run: created drafts,
// employees skipped because a non-cancelled record already exists, and
// per-employee failures that did not abort the run.
type GenerationResult struct {
	Created         []RecordResponse    `json:"created"`
	SkippedExisting int                 `json:"skipped_existing"`
	Failures        []GenerationFailure `json:"failures,omitempty"`
}

// ========== RESPONSES ==========

type RecordResponse struct {
	ID                string          `json:"id"`
	EmployeeID        string          `json:"employee_id"`
	EmployeeName      string          `json:"employee_name,omitempty"`
	Department        *string         `json:"department,omitempty"`
	FacilityID        *string         `json:"facility_id,omitempty"`
	FacilityName      *string         `json:"facility_name,omitempty"`
	PeriodMonth       int             `json:"period_month"`
	PeriodYear        int             `json:"period_year"`
	BaseAmount        decimal.Decimal `json:"base_amount"`
	Currency          string          `json:"currency"`
	Allowances        []LineItem      `json:"allowances"`
	Deductions        []LineItem      `json:"deductions"`
	Bonuses           []LineItem      `json:"bonuses"`
	GrossAmount       decimal.Decimal `json:"gross_amount"`
	TotalDeductions   decimal.Decimal `json:"total_deductions"`
	NetAmount         decimal.Decimal `json:"net_amount"`
	Status            string          `json:"status"`
	PaymentDate       *string         `json:"payment_date,omitempty"`
	Signed            bool            `json:"signed"`
	SignedBy          *string         `json:"signed_by,omitempty"`
	SignedAt          *string         `json:"signed_at,omitempty"`
	BankName          *string         `json:"bank_name,omitempty"`
	BankAccountNumber *string         `json:"bank_account_number,omitempty"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
}

type Filter struct {
	EmployeeID       *string `json:"employee_id,omitempty"`
	Department       *string `json:"department,omitempty"`
	FacilityID       *string `json:"facility_id,omitempty"`
	Status           *Status `json:"status,omitempty"`
	PeriodMonth      *int    `json:"period_month,omitempty"`
	PeriodYear       *int    `json:"period_year,omitempty"`
	IncludeCancelled bool    `json:"include_cancelled"`
	Page             int     `json:"page"`
	Limit            int     `json:"limit"`
	SortBy           string  `json:"sort_by"`
	SortOrder        string  `json:"sort_order"`
}

type ListRecordsResponse struct {
	Data       []RecordResponse `json:"data"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
}

type PeriodSummaryResponse struct {
	PeriodMonth     int             `json:"period_month"`
	PeriodYear      int             `json:"period_year"`
	TotalRecords    int             `json:"total_records"`
	DraftCount      int             `json:"draft_count"`
	ApprovedCount   int             `json:"approved_count"`
	PaidCount       int             `json:"paid_count"`
	CancelledCount  int             `json:"cancelled_count"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNet        decimal.Decimal `json:"total_net"`
}

// ParsePaymentDate resolves an optional "YYYY-MM-DD" payment date, falling
// back to now.
func ParsePaymentDate(s *string, now time.Time) time.Time {
	if s == nil {
		return now
	}
	if d, ok := validator.IsValidDate(*s); ok {
		return d
	}
	return now
}
