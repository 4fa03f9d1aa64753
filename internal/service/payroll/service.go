package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/orgnest/console-backend-go/internal/domain/employee"
	"github.com/orgnest/console-backend-go/internal/domain/facility"
	"github.com/orgnest/console-backend-go/internal/domain/payroll"
	"github.com/orgnest/console-backend-go/internal/pkg/validator"
)

type PayrollServiceImpl struct {
	tx            payroll.TxManager
	payrollRepo   payroll.Repository
	employeeRepo  employee.Repository
	facilityRepo  facility.Repository
	poster        *LedgerPoster
	signingStates map[payroll.Status]bool
	logger        *slog.Logger
	now           func() time.Time
}

func NewPayrollService(
	tx payroll.TxManager,
	payrollRepo payroll.Repository,
	employeeRepo employee.Repository,
	facilityRepo facility.Repository,
	poster *LedgerPoster,
	allowedSigningStates []payroll.Status,
	logger *slog.Logger,
) payroll.PayrollService {
	// A nil map means no restriction: signing is allowed in any state.
	var signingStates map[payroll.Status]bool
	if len(allowedSigningStates) > 0 {
		signingStates = make(map[payroll.Status]bool, len(allowedSigningStates))
		for _, s := range allowedSigningStates {
			signingStates[s] = true
		}
	}
	return &PayrollServiceImpl{
		tx:            tx,
		payrollRepo:   payrollRepo,
		employeeRepo:  employeeRepo,
		facilityRepo:  facilityRepo,
		poster:        poster,
		signingStates: signingStates,
		logger:        logger,
		now:           time.Now,
	}
}

// Helper to get organization_id and user_id from JWT context
func getClaimsFromContext(ctx context.Context) (organizationID, userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	organizationID, ok := claims["organization_id"].(string)
	if !ok || organizationID == "" {
		return "", "", fmt.Errorf("organization_id claim is missing or invalid")
	}

	userID, _ = claims["user_id"].(string)

	return organizationID, userID, nil
}

// ========== QUERIES ==========

func (s *PayrollServiceImpl) ListRecords(ctx context.Context, filter payroll.Filter) (payroll.ListRecordsResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.ListRecordsResponse{}, err
	}

	records, totalCount, err := s.payrollRepo.List(ctx, organizationID, filter)
	if err != nil {
		return payroll.ListRecordsResponse{}, err
	}

	return payroll.ListRecordsResponse{
		Data:       mapToRecordResponses(records),
		TotalCount: totalCount,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *PayrollServiceImpl) GetRecord(ctx context.Context, id string) (payroll.RecordResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	record, err := s.payrollRepo.GetByID(ctx, id, organizationID)
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	return mapToRecordResponse(record), nil
}

func (s *PayrollServiceImpl) GetPeriodSummary(ctx context.Context, month, year int) (payroll.PeriodSummaryResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PeriodSummaryResponse{}, err
	}

	if month < 1 || month > 12 {
		return payroll.PeriodSummaryResponse{}, payroll.ErrInvalidPeriod
	}

	return s.payrollRepo.GetPeriodSummary(ctx, organizationID, month, year)
}

// ========== CREATE / UPDATE ==========

func (s *PayrollServiceImpl) CreateRecord(ctx context.Context, req payroll.CreateRecordRequest) (payroll.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RecordResponse{}, err
	}

	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, organizationID)
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	facilityID := req.FacilityID
	if facilityID == nil {
		facilityID = emp.FacilityID
	}
	if req.FacilityID != nil {
		if _, err := s.facilityRepo.GetByID(ctx, *req.FacilityID, organizationID); err != nil {
			return payroll.RecordResponse{}, err
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = emp.Currency
	}

	record := payroll.CompensationRecord{
		OrganizationID:    organizationID,
		EmployeeID:        req.EmployeeID,
		FacilityID:        facilityID,
		PeriodMonth:       req.PeriodMonth,
		PeriodYear:        req.PeriodYear,
		BaseAmount:        req.BaseAmount,
		Currency:          currency,
		Allowances:        req.Allowances,
		Deductions:        req.Deductions,
		Bonuses:           req.Bonuses,
		Status:            payroll.StatusDraft,
		BankName:          req.BankName,
		BankAccountNumber: req.BankAccountNumber,
	}
	if record.BankName == nil {
		record.BankName = emp.BankName
	}
	if record.BankAccountNumber == nil {
		record.BankAccountNumber = emp.BankAccountNumber
	}

	if err := payroll.Recalculate(&record); err != nil {
		return payroll.RecordResponse{}, err
	}

	created, err := s.payrollRepo.Create(ctx, record)
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	return mapToRecordResponse(created), nil
}

func (s *PayrollServiceImpl) UpdateRecord(ctx context.Context, req payroll.UpdateRecordRequest) (payroll.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RecordResponse{}, err
	}

	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	var updated payroll.CompensationRecord
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.payrollRepo.GetByIDForUpdate(txCtx, req.ID, organizationID)
		if err != nil {
			return err
		}
		if !current.Status.Editable() {
			return fmt.Errorf("record %s is %s: %w", current.ID, current.Status, payroll.ErrRecordNotEditable)
		}

		// Merge the partial edit over the stored record. Collections are
		// replaced wholesale so recomputation always sees the full set.
		if req.BaseAmount != nil {
			current.BaseAmount = *req.BaseAmount
		}
		if req.Currency != nil {
			current.Currency = *req.Currency
		}
		if req.Allowances != nil {
			current.Allowances = *req.Allowances
		}
		if req.Deductions != nil {
			current.Deductions = *req.Deductions
		}
		if req.Bonuses != nil {
			current.Bonuses = *req.Bonuses
		}
		if req.BankName != nil {
			current.BankName = req.BankName
		}
		if req.BankAccountNumber != nil {
			current.BankAccountNumber = req.BankAccountNumber
		}

		if req.TouchesFinancials() {
			if err := payroll.Recalculate(&current); err != nil {
				return err
			}
		}

		updated, err = s.payrollRepo.UpdateFinancials(txCtx, organizationID, current)
		return err
	})
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	return mapToRecordResponse(updated), nil
}

// ========== LIFECYCLE ==========

func (s *PayrollServiceImpl) ApproveRecord(ctx context.Context, id string) (payroll.RecordResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	record, err := s.transition(ctx, organizationID, id, payroll.StatusApproved, nil)
	if err != nil {
		return payroll.RecordResponse{}, err
	}
	return mapToRecordResponse(record), nil
}

func (s *PayrollServiceImpl) CancelRecord(ctx context.Context, id string) error {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = s.transition(ctx, organizationID, id, payroll.StatusCancelled, nil)
	return err
}

// MarkPaid transitions a record to paid and posts the settlement ledger entry
// in the same transaction. A posting failure rolls the transition back; a
// pre-existing entry for the record's reference code is success.
func (s *PayrollServiceImpl) MarkPaid(ctx context.Context, id string, req payroll.MarkPaidRequest) (payroll.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RecordResponse{}, err
	}

	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	paymentDate := payroll.ParsePaymentDate(req.PaymentDate, s.now())

	record, err := s.transition(ctx, organizationID, id, payroll.StatusPaid, &paymentDate)
	if err != nil {
		return payroll.RecordResponse{}, err
	}
	return mapToRecordResponse(record), nil
}

// transition moves one record to the target status, holding the row lock for
// the duration so concurrent transitions on the same record serialize.
func (s *PayrollServiceImpl) transition(ctx context.Context, organizationID, id string, to payroll.Status, paymentDate *time.Time) (payroll.CompensationRecord, error) {
	var result payroll.CompensationRecord
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.payrollRepo.GetByIDForUpdate(txCtx, id, organizationID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(to) {
			return fmt.Errorf("record %s: %s -> %s: %w", id, current.Status, to, payroll.ErrInvalidStateTransition)
		}

		updated, err := s.payrollRepo.UpdateStatus(txCtx, organizationID, id, to, paymentDate)
		if err != nil {
			return err
		}

		if to == payroll.StatusPaid {
			if err := s.poster.PostIfAbsent(txCtx, updated); err != nil {
				s.logger.Error("settlement posting failed, rolling back payment",
					slog.String("record_id", id),
					slog.Any("error", err),
				)
				return err
			}
		}

		result = updated
		return nil
	})
	if err != nil {
		return payroll.CompensationRecord{}, err
	}
	return result, nil
}

// ========== SIGNING ==========

func (s *PayrollServiceImpl) Sign(ctx context.Context, id string, req payroll.SignRequest) (payroll.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RecordResponse{}, err
	}

	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	record, err := s.sign(ctx, organizationID, id, req.SignerName)
	if err != nil {
		return payroll.RecordResponse{}, err
	}
	return mapToRecordResponse(record), nil
}

func (s *PayrollServiceImpl) sign(ctx context.Context, organizationID, id, signerName string) (payroll.CompensationRecord, error) {
	record, err := s.payrollRepo.GetByID(ctx, id, organizationID)
	if err != nil {
		return payroll.CompensationRecord{}, err
	}
	if len(s.signingStates) > 0 && !s.signingStates[record.Status] {
		return payroll.CompensationRecord{}, fmt.Errorf("record %s is %s: %w", id, record.Status, payroll.ErrSigningNotAllowed)
	}

	return s.payrollRepo.UpdateSigning(ctx, organizationID, id, signerName, s.now())
}

// ========== BULK OPERATIONS ==========

func (s *PayrollServiceImpl) BulkMarkPaid(ctx context.Context, req payroll.BulkMarkPaidRequest) (payroll.BulkOperationResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.BulkOperationResult{}, err
	}

	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.BulkOperationResult{}, err
	}

	paymentDate := payroll.ParsePaymentDate(req.PaymentDate, s.now())

	result := payroll.BulkOperationResult{Outcomes: make([]payroll.ItemOutcome, 0, len(req.RecordIDs))}
	for _, id := range req.RecordIDs {
		record, err := s.transition(ctx, organizationID, id, payroll.StatusPaid, &paymentDate)
		result.Outcomes = append(result.Outcomes, itemOutcome(id, record, err))
		if err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	return result, nil
}

func (s *PayrollServiceImpl) BulkSign(ctx context.Context, req payroll.BulkSignRequest) (payroll.BulkOperationResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.BulkOperationResult{}, err
	}

	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.BulkOperationResult{}, err
	}

	result := payroll.BulkOperationResult{Outcomes: make([]payroll.ItemOutcome, 0, len(req.RecordIDs))}
	for _, id := range req.RecordIDs {
		record, err := s.signForEmployee(ctx, organizationID, id, req.SignerNameByEmployee)
		result.Outcomes = append(result.Outcomes, itemOutcome(id, record, err))
		if err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	return result, nil
}

func (s *PayrollServiceImpl) signForEmployee(ctx context.Context, organizationID, id string, nameByEmployee map[string]string) (payroll.CompensationRecord, error) {
	record, err := s.payrollRepo.GetByID(ctx, id, organizationID)
	if err != nil {
		return payroll.CompensationRecord{}, err
	}
	signerName, ok := nameByEmployee[record.EmployeeID]
	if !ok || validator.IsEmpty(signerName) {
		return payroll.CompensationRecord{}, validator.ValidationErrors{
			{Field: "signer_name_by_employee", Message: "no signer name for employee " + record.EmployeeID},
		}
	}
	return s.sign(ctx, organizationID, id, signerName)
}

// ========== GENERATION ==========

// GeneratePeriod creates one draft record per active employee lacking a
// non-cancelled record for the period. One employee's failure never aborts
// the run; re-running for the same period only fills gaps.
func (s *PayrollServiceImpl) GeneratePeriod(ctx context.Context, req payroll.GeneratePayrollRequest) (payroll.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.GenerationResult{}, err
	}

	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.GenerationResult{}, err
	}

	if req.FacilityID != nil {
		if _, err := s.facilityRepo.GetByID(ctx, *req.FacilityID, organizationID); err != nil {
			return payroll.GenerationResult{}, err
		}
	}

	employees, err := s.employeeRepo.ListActive(ctx, organizationID, req.FacilityID)
	if err != nil {
		return payroll.GenerationResult{}, fmt.Errorf("failed to list active employees: %w", err)
	}

	result := payroll.GenerationResult{Created: []payroll.RecordResponse{}}
	for _, emp := range employees {
		if emp.BaseCompensation == nil {
			result.Failures = append(result.Failures, payroll.GenerationFailure{
				EmployeeID: emp.ID,
				Reason:     payroll.ErrEmployeeHasNoBaseCompensation.Error(),
			})
			continue
		}

		_, err := s.payrollRepo.FindActiveByEmployeePeriod(ctx, organizationID, emp.ID, req.PeriodMonth, req.PeriodYear)
		if err == nil {
			result.SkippedExisting++
			continue
		}
		if !errors.Is(err, payroll.ErrRecordNotFound) {
			result.Failures = append(result.Failures, payroll.GenerationFailure{EmployeeID: emp.ID, Reason: err.Error()})
			continue
		}

		record := payroll.CompensationRecord{
			OrganizationID:    organizationID,
			EmployeeID:        emp.ID,
			FacilityID:        emp.FacilityID,
			PeriodMonth:       req.PeriodMonth,
			PeriodYear:        req.PeriodYear,
			BaseAmount:        *emp.BaseCompensation,
			Currency:          emp.Currency,
			Status:            payroll.StatusDraft,
			BankName:          emp.BankName,
			BankAccountNumber: emp.BankAccountNumber,
		}
		if err := payroll.Recalculate(&record); err != nil {
			result.Failures = append(result.Failures, payroll.GenerationFailure{EmployeeID: emp.ID, Reason: err.Error()})
			continue
		}

		created, err := s.payrollRepo.Create(ctx, record)
		if err != nil {
			if errors.Is(err, payroll.ErrRecordAlreadyExists) {
				result.SkippedExisting++
				continue
			}
			s.logger.Warn("failed to generate compensation record",
				slog.String("employee_id", emp.ID),
				slog.Any("error", err),
			)
			result.Failures = append(result.Failures, payroll.GenerationFailure{EmployeeID: emp.ID, Reason: err.Error()})
			continue
		}
		result.Created = append(result.Created, mapToRecordResponse(created))
	}

	return result, nil
}

// ========== HELPERS ==========

func itemOutcome(id string, record payroll.CompensationRecord, err error) payroll.ItemOutcome {
	if err != nil {
		return payroll.ItemOutcome{
			RecordID: id,
			Error:    &payroll.OutcomeError{Code: outcomeCode(err), Message: err.Error()},
		}
	}
	resp := mapToRecordResponse(record)
	return payroll.ItemOutcome{RecordID: id, Record: &resp}
}

func outcomeCode(err error) string {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, payroll.ErrRecordNotFound):
		return "NOT_FOUND"
	case errors.Is(err, payroll.ErrInvalidStateTransition), errors.Is(err, payroll.ErrRecordNotEditable):
		return "INVALID_STATE"
	case errors.Is(err, payroll.ErrSigningNotAllowed):
		return "SIGNING_NOT_ALLOWED"
	case errors.Is(err, payroll.ErrInvalidAmount):
		return "INVALID_AMOUNT"
	case errors.As(err, &validationErrs):
		return "VALIDATION_ERROR"
	default:
		return "STORE_ERROR"
	}
}

func mapToRecordResponse(r payroll.CompensationRecord) payroll.RecordResponse {
	var paymentDateStr *string
	if r.PaymentDate != nil {
		str := r.PaymentDate.Format("2006-01-02")
		paymentDateStr = &str
	}

	var signedAtStr *string
	if r.SignedAt != nil {
		str := r.SignedAt.Format(time.RFC3339)
		signedAtStr = &str
	}

	employeeName := ""
	if r.EmployeeName != nil {
		employeeName = *r.EmployeeName
	}

	return payroll.RecordResponse{
		ID:                r.ID,
		EmployeeID:        r.EmployeeID,
		EmployeeName:      employeeName,
		Department:        r.Department,
		FacilityID:        r.FacilityID,
		FacilityName:      r.FacilityName,
		PeriodMonth:       r.PeriodMonth,
		PeriodYear:        r.PeriodYear,
		BaseAmount:        r.BaseAmount,
		Currency:          r.Currency,
		Allowances:        emptyIfNil(r.Allowances),
		Deductions:        emptyIfNil(r.Deductions),
		Bonuses:           emptyIfNil(r.Bonuses),
		GrossAmount:       r.GrossAmount,
		TotalDeductions:   r.TotalDeductions,
		NetAmount:         r.NetAmount,
		Status:            string(r.Status),
		PaymentDate:       paymentDateStr,
		Signed:            r.Signed,
		SignedBy:          r.SignedBy,
		SignedAt:          signedAtStr,
		BankName:          r.BankName,
		BankAccountNumber: r.BankAccountNumber,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         r.UpdatedAt.Format(time.RFC3339),
	}
}

func mapToRecordResponses(records []payroll.CompensationRecord) []payroll.RecordResponse {
	result := make([]payroll.RecordResponse, 0, len(records))
	for _, r := range records {
		result = append(result, mapToRecordResponse(r))
	}
	return result
}

func emptyIfNil(items []payroll.LineItem) []payroll.LineItem {
	if items == nil {
		return []payroll.LineItem{}
	}
	return items
}
