package payroll

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgnest/console-backend-go/internal/domain/employee"
	"github.com/orgnest/console-backend-go/internal/domain/facility"
	"github.com/orgnest/console-backend-go/internal/domain/ledger"
	"github.com/orgnest/console-backend-go/internal/domain/payroll"
)

const testOrgID = "org-1"

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func authedContext(t *testing.T) context.Context {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"organization_id": testOrgID,
		"user_id":         "user-1",
		"type":            "access",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

// ========== FAKES ==========

type fakePayrollRepo struct {
	records map[string]payroll.CompensationRecord
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{records: make(map[string]payroll.CompensationRecord)}
}

func (r *fakePayrollRepo) snapshot() map[string]payroll.CompensationRecord {
	copied := make(map[string]payroll.CompensationRecord, len(r.records))
	for k, v := range r.records {
		copied[k] = v
	}
	return copied
}

func (r *fakePayrollRepo) restore(s map[string]payroll.CompensationRecord) {
	r.records = s
}

func (r *fakePayrollRepo) Create(ctx context.Context, record payroll.CompensationRecord) (payroll.CompensationRecord, error) {
	for _, existing := range r.records {
		if existing.OrganizationID == record.OrganizationID &&
			existing.EmployeeID == record.EmployeeID &&
			existing.PeriodMonth == record.PeriodMonth &&
			existing.PeriodYear == record.PeriodYear &&
			existing.Status != payroll.StatusCancelled {
			return payroll.CompensationRecord{}, payroll.ErrRecordAlreadyExists
		}
	}
	record.ID = uuid.NewString()
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	r.records[record.ID] = record
	return record, nil
}

func (r *fakePayrollRepo) GetByID(ctx context.Context, id string, organizationID string) (payroll.CompensationRecord, error) {
	record, ok := r.records[id]
	if !ok || record.OrganizationID != organizationID {
		return payroll.CompensationRecord{}, payroll.ErrRecordNotFound
	}
	return record, nil
}

func (r *fakePayrollRepo) GetByIDForUpdate(ctx context.Context, id string, organizationID string) (payroll.CompensationRecord, error) {
	return r.GetByID(ctx, id, organizationID)
}

func (r *fakePayrollRepo) FindActiveByEmployeePeriod(ctx context.Context, organizationID, employeeID string, month, year int) (payroll.CompensationRecord, error) {
	for _, record := range r.records {
		if record.OrganizationID == organizationID &&
			record.EmployeeID == employeeID &&
			record.PeriodMonth == month &&
			record.PeriodYear == year &&
			record.Status != payroll.StatusCancelled {
			return record, nil
		}
	}
	return payroll.CompensationRecord{}, payroll.ErrRecordNotFound
}

func (r *fakePayrollRepo) List(ctx context.Context, organizationID string, filter payroll.Filter) ([]payroll.CompensationRecord, int64, error) {
	var result []payroll.CompensationRecord
	for _, record := range r.records {
		if record.OrganizationID != organizationID {
			continue
		}
		if record.Status == payroll.StatusCancelled && !filter.IncludeCancelled &&
			(filter.Status == nil || *filter.Status != payroll.StatusCancelled) {
			continue
		}
		if filter.Status != nil && record.Status != *filter.Status {
			continue
		}
		if filter.EmployeeID != nil && record.EmployeeID != *filter.EmployeeID {
			continue
		}
		result = append(result, record)
	}
	return result, int64(len(result)), nil
}

func (r *fakePayrollRepo) UpdateFinancials(ctx context.Context, organizationID string, record payroll.CompensationRecord) (payroll.CompensationRecord, error) {
	stored, err := r.GetByID(ctx, record.ID, organizationID)
	if err != nil {
		return payroll.CompensationRecord{}, err
	}
	stored.BaseAmount = record.BaseAmount
	stored.Currency = record.Currency
	stored.Allowances = record.Allowances
	stored.Deductions = record.Deductions
	stored.Bonuses = record.Bonuses
	stored.GrossAmount = record.GrossAmount
	stored.TotalDeductions = record.TotalDeductions
	stored.NetAmount = record.NetAmount
	stored.BankName = record.BankName
	stored.BankAccountNumber = record.BankAccountNumber
	stored.UpdatedAt = time.Now()
	r.records[stored.ID] = stored
	return stored, nil
}

func (r *fakePayrollRepo) UpdateStatus(ctx context.Context, organizationID, id string, status payroll.Status, paymentDate *time.Time) (payroll.CompensationRecord, error) {
	stored, err := r.GetByID(ctx, id, organizationID)
	if err != nil {
		return payroll.CompensationRecord{}, err
	}
	stored.Status = status
	if paymentDate != nil {
		stored.PaymentDate = paymentDate
	}
	stored.UpdatedAt = time.Now()
	r.records[id] = stored
	return stored, nil
}

func (r *fakePayrollRepo) UpdateSigning(ctx context.Context, organizationID, id string, signedBy string, signedAt time.Time) (payroll.CompensationRecord, error) {
	stored, err := r.GetByID(ctx, id, organizationID)
	if err != nil {
		return payroll.CompensationRecord{}, err
	}
	stored.Signed = true
	stored.SignedBy = &signedBy
	stored.SignedAt = &signedAt
	stored.UpdatedAt = time.Now()
	r.records[id] = stored
	return stored, nil
}

func (r *fakePayrollRepo) GetPeriodSummary(ctx context.Context, organizationID string, month, year int) (payroll.PeriodSummaryResponse, error) {
	summary := payroll.PeriodSummaryResponse{PeriodMonth: month, PeriodYear: year}
	for _, record := range r.records {
		if record.OrganizationID != organizationID || record.PeriodMonth != month || record.PeriodYear != year {
			continue
		}
		summary.TotalRecords++
		switch record.Status {
		case payroll.StatusDraft:
			summary.DraftCount++
		case payroll.StatusApproved:
			summary.ApprovedCount++
		case payroll.StatusPaid:
			summary.PaidCount++
		case payroll.StatusCancelled:
			summary.CancelledCount++
		}
		if record.Status != payroll.StatusCancelled {
			summary.TotalGross = summary.TotalGross.Add(record.GrossAmount)
			summary.TotalDeductions = summary.TotalDeductions.Add(record.TotalDeductions)
			summary.TotalNet = summary.TotalNet.Add(record.NetAmount)
		}
	}
	return summary, nil
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (r *fakeEmployeeRepo) GetByID(ctx context.Context, id string, organizationID string) (employee.Employee, error) {
	emp, ok := r.employees[id]
	if !ok || emp.OrganizationID != organizationID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (r *fakeEmployeeRepo) ListActive(ctx context.Context, organizationID string, facilityID *string) ([]employee.Employee, error) {
	var result []employee.Employee
	for _, emp := range r.employees {
		if emp.OrganizationID != organizationID || emp.Status != employee.EmploymentStatusActive {
			continue
		}
		if facilityID != nil && (emp.FacilityID == nil || *emp.FacilityID != *facilityID) {
			continue
		}
		result = append(result, emp)
	}
	return result, nil
}

type fakeFacilityRepo struct {
	facilities map[string]facility.Facility
}

func (r *fakeFacilityRepo) GetByID(ctx context.Context, id string, organizationID string) (facility.Facility, error) {
	f, ok := r.facilities[id]
	if !ok || f.OrganizationID != organizationID {
		return facility.Facility{}, facility.ErrFacilityNotFound
	}
	return f, nil
}

type fakeLedgerRepo struct {
	entries    map[string]ledger.Entry // keyed by reference code
	failCreate error
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: make(map[string]ledger.Entry)}
}

func (r *fakeLedgerRepo) snapshot() map[string]ledger.Entry {
	copied := make(map[string]ledger.Entry, len(r.entries))
	for k, v := range r.entries {
		copied[k] = v
	}
	return copied
}

func (r *fakeLedgerRepo) restore(s map[string]ledger.Entry) {
	r.entries = s
}

func (r *fakeLedgerRepo) FindByReferenceCode(ctx context.Context, organizationID, code string) (ledger.Entry, error) {
	entry, ok := r.entries[code]
	if !ok || entry.OrganizationID != organizationID {
		return ledger.Entry{}, ledger.ErrEntryNotFound
	}
	return entry, nil
}

func (r *fakeLedgerRepo) CreateExpenseEntry(ctx context.Context, entry ledger.Entry) (ledger.Entry, error) {
	if r.failCreate != nil {
		return ledger.Entry{}, r.failCreate
	}
	if _, exists := r.entries[entry.ReferenceCode]; exists {
		return ledger.Entry{}, ledger.ErrDuplicateEntry
	}
	entry.ID = uuid.NewString()
	entry.Type = ledger.EntryTypeExpense
	entry.CreatedAt = time.Now()
	r.entries[entry.ReferenceCode] = entry
	return entry, nil
}

// fakeTxManager snapshots both stores before fn and restores them when fn
// fails, mirroring the transactional rollback the production manager gives.
type fakeTxManager struct {
	payrollRepo *fakePayrollRepo
	ledgerRepo  *fakeLedgerRepo
}

func (m *fakeTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	recordsSnap := m.payrollRepo.snapshot()
	entriesSnap := m.ledgerRepo.snapshot()
	if err := fn(ctx); err != nil {
		m.payrollRepo.restore(recordsSnap)
		m.ledgerRepo.restore(entriesSnap)
		return err
	}
	return nil
}

// ========== FIXTURE ==========

type fixture struct {
	svc         payroll.PayrollService
	payrollRepo *fakePayrollRepo
	ledgerRepo  *fakeLedgerRepo
	employees   *fakeEmployeeRepo
}

func newFixture(signingStates ...payroll.Status) *fixture {
	payrollRepo := newFakePayrollRepo()
	ledgerRepo := newFakeLedgerRepo()
	employees := &fakeEmployeeRepo{employees: make(map[string]employee.Employee)}
	facilities := &fakeFacilityRepo{facilities: make(map[string]facility.Facility)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewPayrollService(
		&fakeTxManager{payrollRepo: payrollRepo, ledgerRepo: ledgerRepo},
		payrollRepo,
		employees,
		facilities,
		NewLedgerPoster(ledgerRepo, logger),
		signingStates,
		logger,
	)
	return &fixture{svc: svc, payrollRepo: payrollRepo, ledgerRepo: ledgerRepo, employees: employees}
}

func (f *fixture) addEmployee(id string, base *decimal.Decimal) {
	f.employees.employees[id] = employee.Employee{
		ID:               id,
		OrganizationID:   testOrgID,
		FullName:         "Employee " + id,
		Status:           employee.EmploymentStatusActive,
		BaseCompensation: base,
		Currency:         "USD",
	}
}

func (f *fixture) seedRecord(t *testing.T, employeeID string, status payroll.Status) payroll.CompensationRecord {
	t.Helper()
	record := payroll.CompensationRecord{
		OrganizationID: testOrgID,
		EmployeeID:     employeeID,
		PeriodMonth:    3,
		PeriodYear:     2025,
		BaseAmount:     d("10000"),
		Currency:       "USD",
		Allowances:     []payroll.LineItem{{Name: "housing", Amount: d("300")}},
		Bonuses:        []payroll.LineItem{{Name: "quarterly", Amount: d("200")}},
		Deductions: []payroll.LineItem{
			{Name: "tax", Amount: d("900")},
			{Name: "insurance", Amount: d("300")},
		},
		Status: payroll.StatusDraft,
	}
	require.NoError(t, payroll.Recalculate(&record))
	created, err := f.payrollRepo.Create(context.Background(), record)
	require.NoError(t, err)
	if status != payroll.StatusDraft {
		created.Status = status
		f.payrollRepo.records[created.ID] = created
	}
	return created
}

// ========== GENERATION ==========

func TestGeneratePeriod(t *testing.T) {
	ctx := authedContext(t)

	t.Run("creates drafts for active employees", func(t *testing.T) {
		f := newFixture()
		base := d("10000")
		f.addEmployee("emp-1", &base)
		f.addEmployee("emp-2", &base)

		result, err := f.svc.GeneratePeriod(ctx, payroll.GeneratePayrollRequest{PeriodMonth: 3, PeriodYear: 2025})
		require.NoError(t, err)
		assert.Len(t, result.Created, 2)
		assert.Equal(t, 0, result.SkippedExisting)
		assert.Empty(t, result.Failures)

		for _, created := range result.Created {
			assert.Equal(t, "draft", created.Status)
			assert.True(t, created.NetAmount.Equal(d("10000")))
		}
	})

	t.Run("rerun skips existing records", func(t *testing.T) {
		f := newFixture()
		base := d("10000")
		f.addEmployee("emp-1", &base)
		f.addEmployee("emp-2", &base)

		_, err := f.svc.GeneratePeriod(ctx, payroll.GeneratePayrollRequest{PeriodMonth: 3, PeriodYear: 2025})
		require.NoError(t, err)

		result, err := f.svc.GeneratePeriod(ctx, payroll.GeneratePayrollRequest{PeriodMonth: 3, PeriodYear: 2025})
		require.NoError(t, err)
		assert.Empty(t, result.Created)
		assert.Equal(t, 2, result.SkippedExisting)
		assert.Len(t, f.payrollRepo.records, 2)
	})

	t.Run("employee without base compensation is reported, run continues", func(t *testing.T) {
		f := newFixture()
		base := d("10000")
		f.addEmployee("emp-1", &base)
		f.addEmployee("emp-2", nil)

		result, err := f.svc.GeneratePeriod(ctx, payroll.GeneratePayrollRequest{PeriodMonth: 3, PeriodYear: 2025})
		require.NoError(t, err)
		assert.Len(t, result.Created, 1)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "emp-2", result.Failures[0].EmployeeID)
	})

	t.Run("cancelled record does not block regeneration", func(t *testing.T) {
		f := newFixture()
		base := d("10000")
		f.addEmployee("emp-1", &base)

		first, err := f.svc.GeneratePeriod(ctx, payroll.GeneratePayrollRequest{PeriodMonth: 3, PeriodYear: 2025})
		require.NoError(t, err)
		require.Len(t, first.Created, 1)

		require.NoError(t, f.svc.CancelRecord(ctx, first.Created[0].ID))

		second, err := f.svc.GeneratePeriod(ctx, payroll.GeneratePayrollRequest{PeriodMonth: 3, PeriodYear: 2025})
		require.NoError(t, err)
		assert.Len(t, second.Created, 1)
		assert.NotEqual(t, first.Created[0].ID, second.Created[0].ID)
	})

	t.Run("invalid period rejected", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.GeneratePeriod(ctx, payroll.GeneratePayrollRequest{PeriodMonth: 13, PeriodYear: 2025})
		require.Error(t, err)
	})
}

// ========== CREATE / UPDATE ==========

func TestCreateRecord(t *testing.T) {
	ctx := authedContext(t)

	t.Run("duplicate period rejected", func(t *testing.T) {
		f := newFixture()
		base := d("10000")
		f.addEmployee("emp-1", &base)

		req := payroll.CreateRecordRequest{
			EmployeeID:  "emp-1",
			PeriodMonth: 3,
			PeriodYear:  2025,
			BaseAmount:  d("10000"),
			Currency:    "USD",
		}
		_, err := f.svc.CreateRecord(ctx, req)
		require.NoError(t, err)

		_, err = f.svc.CreateRecord(ctx, req)
		assert.ErrorIs(t, err, payroll.ErrRecordAlreadyExists)
	})

	t.Run("derives amounts from line items", func(t *testing.T) {
		f := newFixture()
		base := d("10000")
		f.addEmployee("emp-1", &base)

		created, err := f.svc.CreateRecord(ctx, payroll.CreateRecordRequest{
			EmployeeID:  "emp-1",
			PeriodMonth: 3,
			PeriodYear:  2025,
			BaseAmount:  d("10000"),
			Currency:    "USD",
			Allowances:  []payroll.LineItem{{Name: "housing", Amount: d("300")}},
			Bonuses:     []payroll.LineItem{{Name: "quarterly", Amount: d("200")}},
			Deductions: []payroll.LineItem{
				{Name: "tax", Amount: d("900")},
				{Name: "insurance", Amount: d("300")},
			},
		})
		require.NoError(t, err)
		assert.True(t, created.GrossAmount.Equal(d("10500")))
		assert.True(t, created.TotalDeductions.Equal(d("1200")))
		assert.True(t, created.NetAmount.Equal(d("9300")))
	})

	t.Run("unknown employee rejected", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.CreateRecord(ctx, payroll.CreateRecordRequest{
			EmployeeID:  "nope",
			PeriodMonth: 3,
			PeriodYear:  2025,
			BaseAmount:  d("10000"),
		})
		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	})
}

func TestUpdateRecord(t *testing.T) {
	ctx := authedContext(t)

	t.Run("recomputes derived amounts", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, "emp-1", payroll.StatusDraft)

		newBase := d("12000")
		updated, err := f.svc.UpdateRecord(ctx, payroll.UpdateRecordRequest{ID: record.ID, BaseAmount: &newBase})
		require.NoError(t, err)
		assert.True(t, updated.GrossAmount.Equal(d("12500")))
		assert.True(t, updated.NetAmount.Equal(d("11300")))
	})

	t.Run("supplied collection replaces stored one", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, "emp-1", payroll.StatusDraft)

		deductions := []payroll.LineItem{{Name: "tax", Amount: d("500")}}
		updated, err := f.svc.UpdateRecord(ctx, payroll.UpdateRecordRequest{ID: record.ID, Deductions: &deductions})
		require.NoError(t, err)
		assert.True(t, updated.TotalDeductions.Equal(d("500")))
		assert.True(t, updated.NetAmount.Equal(d("10000")))
	})

	t.Run("paid record is not editable", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, "emp-1", payroll.StatusPaid)

		newBase := d("12000")
		_, err := f.svc.UpdateRecord(ctx, payroll.UpdateRecordRequest{ID: record.ID, BaseAmount: &newBase})
		assert.ErrorIs(t, err, payroll.ErrRecordNotEditable)
	})

	t.Run("cancelled record is not editable", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, "emp-1", payroll.StatusCancelled)

		newBase := d("12000")
		_, err := f.svc.UpdateRecord(ctx, payroll.UpdateRecordRequest{ID: record.ID, BaseAmount: &newBase})
		assert.ErrorIs(t, err, payroll.ErrRecordNotEditable)
	})
}

// ========== LIFECYCLE / SETTLEMENT ==========

func TestMarkPaid(t *testing.T) {
	ctx := authedContext(t)

	t.Run("posts exactly one expense entry", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, "emp-1", payroll.StatusApproved)

		paid, err := f.svc.MarkPaid(ctx, record.ID, payroll.MarkPaidRequest{})
		require.NoError(t, err)
		assert.Equal(t, "paid", paid.Status)
		require.NotNil(t, paid.PaymentDate)

		require.Len(t, f.ledgerRepo.entries, 1)
		entry := f.ledgerRepo.entries[ReferenceCode(record.ID)]
		assert.Equal(t, ledger.EntryTypeExpense, entry.Type)
		assert.True(t, entry.Amount.Equal(d("9300")), "amount = %s", entry.Amount)
		assert.Equal(t, "USD", entry.Currency)
	})

	t.Run("paid record cannot be paid again", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, "emp-1", payroll.StatusApproved)

		_, err := f.svc.MarkPaid(ctx, record.ID, payroll.MarkPaidRequest{})
		require.NoError(t, err)

		_, err = f.svc.MarkPaid(ctx, record.ID, payroll.MarkPaidRequest{})
		assert.ErrorIs(t, err, payroll.ErrInvalidStateTransition)
		assert.Len(t, f.ledgerRepo.entries, 1)
	})

	t.Run("cancelled record cannot be paid", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, "emp-1", payroll.StatusCancelled)

		_, err := f.svc.MarkPaid(ctx, record.ID, payroll.MarkPaidRequest{})
		assert.ErrorIs(t, err, payroll.ErrInvalidStateTransition)
		assert.Empty(t, f.ledgerRepo.entries)
	})

	t.Run("posting failure rolls back the payment", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, "emp-1", payroll.StatusApproved)
		f.ledgerRepo.failCreate = errors.New("store unavailable")

		_, err := f.svc.MarkPaid(ctx, record.ID, payroll.MarkPaidRequest{})
		require.Error(t, err)

		stored, err := f.payrollRepo.GetByID(context.Background(), record.ID, testOrgID)
		require.NoError(t, err)
		assert.Equal(t, payroll.StatusApproved, stored.Status)
		assert.Empty(t, f.ledgerRepo.entries)
	})

	t.Run("explicit payment date is kept", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, "emp-1", payroll.StatusApproved)

		date := "2025-03-31"
		paid, err := f.svc.MarkPaid(ctx, record.ID, payroll.MarkPaidRequest{PaymentDate: &date})
		require.NoError(t, err)
		require.NotNil(t, paid.PaymentDate)
		assert.Equal(t, date, *paid.PaymentDate)
	})
}

func TestLedgerPosterIdempotency(t *testing.T) {
	ledgerRepo := newFakeLedgerRepo()
	poster := NewLedgerPoster(ledgerRepo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	record := payroll.CompensationRecord{
		ID:             "rec-1",
		OrganizationID: testOrgID,
		PeriodMonth:    3,
		PeriodYear:     2025,
		NetAmount:      d("9300"),
		Currency:       "USD",
	}

	require.NoError(t, poster.PostIfAbsent(context.Background(), record))
	require.NoError(t, poster.PostIfAbsent(context.Background(), record))
	assert.Len(t, ledgerRepo.entries, 1)
}

func TestApproveAndCancel(t *testing.T) {
	ctx := authedContext(t)

	t.Run("draft approves", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, "emp-1", payroll.StatusDraft)

		approved, err := f.svc.ApproveRecord(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, "approved", approved.Status)
	})

	t.Run("paid record cannot be cancelled", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, "emp-1", payroll.StatusPaid)

		err := f.svc.CancelRecord(ctx, record.ID)
		assert.ErrorIs(t, err, payroll.ErrInvalidStateTransition)
	})

	t.Run("unknown record", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.ApproveRecord(ctx, "missing")
		assert.ErrorIs(t, err, payroll.ErrRecordNotFound)
	})
}

// ========== SIGNING ==========

func TestSign(t *testing.T) {
	ctx := authedContext(t)

	t.Run("default policy signs any state", func(t *testing.T) {
		// No configured states means no restriction.
		f := newFixture()
		draft := f.seedRecord(t, "emp-1", payroll.StatusDraft)
		approved := f.seedRecord(t, "emp-2", payroll.StatusApproved)
		paid := f.seedRecord(t, "emp-3", payroll.StatusPaid)

		signed, err := f.svc.Sign(ctx, draft.ID, payroll.SignRequest{SignerName: "Alex Doe"})
		require.NoError(t, err)
		assert.True(t, signed.Signed)
		require.NotNil(t, signed.SignedBy)
		assert.Equal(t, "Alex Doe", *signed.SignedBy)
		assert.NotNil(t, signed.SignedAt)

		for _, id := range []string{approved.ID, paid.ID} {
			signed, err := f.svc.Sign(ctx, id, payroll.SignRequest{SignerName: "Alex Doe"})
			require.NoError(t, err)
			assert.True(t, signed.Signed)
		}
	})

	t.Run("restricted policy rejects other states", func(t *testing.T) {
		f := newFixture(payroll.StatusApproved, payroll.StatusPaid)
		record := f.seedRecord(t, "emp-1", payroll.StatusDraft)

		_, err := f.svc.Sign(ctx, record.ID, payroll.SignRequest{SignerName: "Alex Doe"})
		assert.ErrorIs(t, err, payroll.ErrSigningNotAllowed)

		_, err = f.svc.ApproveRecord(ctx, record.ID)
		require.NoError(t, err)

		signed, err := f.svc.Sign(ctx, record.ID, payroll.SignRequest{SignerName: "Alex Doe"})
		require.NoError(t, err)
		assert.True(t, signed.Signed)
	})

	t.Run("empty signer name rejected", func(t *testing.T) {
		f := newFixture()
		record := f.seedRecord(t, "emp-1", payroll.StatusDraft)

		_, err := f.svc.Sign(ctx, record.ID, payroll.SignRequest{SignerName: "  "})
		require.Error(t, err)
	})
}

// ========== BULK ==========

func TestBulkMarkPaid(t *testing.T) {
	ctx := authedContext(t)

	f := newFixture()
	a := f.seedRecord(t, "emp-1", payroll.StatusApproved)
	b := f.seedRecord(t, "emp-2", payroll.StatusCancelled)
	c := f.seedRecord(t, "emp-3", payroll.StatusApproved)

	result, err := f.svc.BulkMarkPaid(ctx, payroll.BulkMarkPaidRequest{
		RecordIDs: []string{a.ID, b.ID, "missing", c.ID},
	})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 4)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 2, result.Failed)

	// Outcomes come back in input order.
	assert.Equal(t, a.ID, result.Outcomes[0].RecordID)
	assert.Nil(t, result.Outcomes[0].Error)
	require.NotNil(t, result.Outcomes[1].Error)
	assert.Equal(t, "INVALID_STATE", result.Outcomes[1].Error.Code)
	require.NotNil(t, result.Outcomes[2].Error)
	assert.Equal(t, "NOT_FOUND", result.Outcomes[2].Error.Code)
	assert.Nil(t, result.Outcomes[3].Error)

	// One entry per record that actually settled.
	assert.Len(t, f.ledgerRepo.entries, 2)
}

func TestBulkSign(t *testing.T) {
	ctx := authedContext(t)

	f := newFixture()
	a := f.seedRecord(t, "emp-1", payroll.StatusApproved)
	b := f.seedRecord(t, "emp-2", payroll.StatusApproved)

	result, err := f.svc.BulkSign(ctx, payroll.BulkSignRequest{
		RecordIDs: []string{a.ID, b.ID},
		SignerNameByEmployee: map[string]string{
			"emp-1": "Alex Doe",
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	assert.Nil(t, result.Outcomes[0].Error)
	require.NotNil(t, result.Outcomes[0].Record)
	assert.True(t, result.Outcomes[0].Record.Signed)

	require.NotNil(t, result.Outcomes[1].Error)
	assert.Equal(t, "VALIDATION_ERROR", result.Outcomes[1].Error.Code)
}

// ========== SUMMARY ==========

func TestGetPeriodSummary(t *testing.T) {
	ctx := authedContext(t)

	f := newFixture()
	f.seedRecord(t, "emp-1", payroll.StatusDraft)
	f.seedRecord(t, "emp-2", payroll.StatusPaid)
	f.seedRecord(t, "emp-3", payroll.StatusCancelled)

	summary, err := f.svc.GetPeriodSummary(ctx, 3, 2025)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalRecords)
	assert.Equal(t, 1, summary.DraftCount)
	assert.Equal(t, 1, summary.PaidCount)
	assert.Equal(t, 1, summary.CancelledCount)
	// Cancelled records stay out of the totals.
	assert.True(t, summary.TotalNet.Equal(d("18600")), "total net = %s", summary.TotalNet)

	_, err = f.svc.GetPeriodSummary(ctx, 0, 2025)
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)
}
