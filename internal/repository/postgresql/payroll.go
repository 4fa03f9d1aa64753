package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/orgnest/console-backend-go/internal/domain/payroll"
	"github.com/orgnest/console-backend-go/internal/pkg/database"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.Repository {
	return &payrollRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const recordColumns = `
	cr.id, cr.organization_id, cr.employee_id, cr.facility_id, cr.period_month, cr.period_year,
	cr.base_amount, cr.currency, cr.allowances, cr.deductions, cr.bonuses,
	cr.gross_amount, cr.total_deductions, cr.net_amount,
	cr.status, cr.payment_date, cr.signed, cr.signed_by, cr.signed_at,
	cr.bank_name, cr.bank_account_number, cr.created_at, cr.updated_at
`

func scanRecord(row pgx.Row) (payroll.CompensationRecord, error) {
	var rec payroll.CompensationRecord
	var allowancesBytes, deductionsBytes, bonusesBytes []byte
	err := row.Scan(
		&rec.ID, &rec.OrganizationID, &rec.EmployeeID, &rec.FacilityID, &rec.PeriodMonth, &rec.PeriodYear,
		&rec.BaseAmount, &rec.Currency, &allowancesBytes, &deductionsBytes, &bonusesBytes,
		&rec.GrossAmount, &rec.TotalDeductions, &rec.NetAmount,
		&rec.Status, &rec.PaymentDate, &rec.Signed, &rec.SignedBy, &rec.SignedAt,
		&rec.BankName, &rec.BankAccountNumber, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return payroll.CompensationRecord{}, err
	}
	_ = json.Unmarshal(allowancesBytes, &rec.Allowances)
	_ = json.Unmarshal(deductionsBytes, &rec.Deductions)
	_ = json.Unmarshal(bonusesBytes, &rec.Bonuses)
	return rec, nil
}

func (r *payrollRepository) Create(ctx context.Context, record payroll.CompensationRecord) (payroll.CompensationRecord, error) {
	q := GetQuerier(ctx, r.db)

	allowancesJSON, _ := json.Marshal(record.Allowances)
	deductionsJSON, _ := json.Marshal(record.Deductions)
	bonusesJSON, _ := json.Marshal(record.Bonuses)

	query := `
		INSERT INTO compensation_records (
			organization_id, employee_id, facility_id, period_month, period_year,
			base_amount, currency, allowances, deductions, bonuses,
			gross_amount, total_deductions, net_amount, status,
			bank_name, bank_account_number
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + strings.ReplaceAll(recordColumns, "cr.", "") + `
	`

	rec, err := scanRecord(q.QueryRow(ctx, query,
		record.OrganizationID, record.EmployeeID, record.FacilityID, record.PeriodMonth, record.PeriodYear,
		record.BaseAmount, record.Currency, allowancesJSON, deductionsJSON, bonusesJSON,
		record.GrossAmount, record.TotalDeductions, record.NetAmount, record.Status,
		record.BankName, record.BankAccountNumber,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return payroll.CompensationRecord{}, payroll.ErrRecordAlreadyExists
		}
		return payroll.CompensationRecord{}, fmt.Errorf("failed to create compensation record: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) GetByID(ctx context.Context, id string, organizationID string) (payroll.CompensationRecord, error) {
	return r.getByID(ctx, id, organizationID, false)
}

func (r *payrollRepository) GetByIDForUpdate(ctx context.Context, id string, organizationID string) (payroll.CompensationRecord, error) {
	return r.getByID(ctx, id, organizationID, true)
}

func (r *payrollRepository) getByID(ctx context.Context, id, organizationID string, forUpdate bool) (payroll.CompensationRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + recordColumns + `,
			   e.full_name as employee_name, e.department, f.name as facility_name
		FROM compensation_records cr
		JOIN employees e ON cr.employee_id = e.id
		LEFT JOIN facilities f ON cr.facility_id = f.id
		WHERE cr.id = $1 AND cr.organization_id = $2
	`
	if forUpdate {
		// Joined tables are read-only here; lock only the record row.
		query += " FOR UPDATE OF cr"
	}

	var rec payroll.CompensationRecord
	var allowancesBytes, deductionsBytes, bonusesBytes []byte
	err := q.QueryRow(ctx, query, id, organizationID).Scan(
		&rec.ID, &rec.OrganizationID, &rec.EmployeeID, &rec.FacilityID, &rec.PeriodMonth, &rec.PeriodYear,
		&rec.BaseAmount, &rec.Currency, &allowancesBytes, &deductionsBytes, &bonusesBytes,
		&rec.GrossAmount, &rec.TotalDeductions, &rec.NetAmount,
		&rec.Status, &rec.PaymentDate, &rec.Signed, &rec.SignedBy, &rec.SignedAt,
		&rec.BankName, &rec.BankAccountNumber, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.EmployeeName, &rec.Department, &rec.FacilityName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.CompensationRecord{}, payroll.ErrRecordNotFound
		}
		return payroll.CompensationRecord{}, fmt.Errorf("failed to get compensation record: %w", err)
	}

	_ = json.Unmarshal(allowancesBytes, &rec.Allowances)
	_ = json.Unmarshal(deductionsBytes, &rec.Deductions)
	_ = json.Unmarshal(bonusesBytes, &rec.Bonuses)

	return rec, nil
}

func (r *payrollRepository) FindActiveByEmployeePeriod(ctx context.Context, organizationID, employeeID string, month, year int) (payroll.CompensationRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + recordColumns + `
		FROM compensation_records cr
		WHERE cr.organization_id = $1 AND cr.employee_id = $2
		  AND cr.period_month = $3 AND cr.period_year = $4
		  AND cr.status <> 'cancelled'
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, organizationID, employeeID, month, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.CompensationRecord{}, payroll.ErrRecordNotFound
		}
		return payroll.CompensationRecord{}, fmt.Errorf("failed to find compensation record for period: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) List(ctx context.Context, organizationID string, filter payroll.Filter) ([]payroll.CompensationRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := `
		FROM compensation_records cr
		JOIN employees e ON cr.employee_id = e.id
		LEFT JOIN facilities f ON cr.facility_id = f.id
		WHERE cr.organization_id = $1
	`
	args := []interface{}{organizationID}
	argIdx := 2

	if !filter.IncludeCancelled {
		baseQuery += " AND cr.status <> 'cancelled'"
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND cr.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.EmployeeID != nil {
		baseQuery += fmt.Sprintf(" AND cr.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Department != nil {
		baseQuery += fmt.Sprintf(" AND e.department = $%d", argIdx)
		args = append(args, *filter.Department)
		argIdx++
	}
	if filter.FacilityID != nil {
		baseQuery += fmt.Sprintf(" AND cr.facility_id = $%d", argIdx)
		args = append(args, *filter.FacilityID)
		argIdx++
	}
	if filter.PeriodMonth != nil {
		baseQuery += fmt.Sprintf(" AND cr.period_month = $%d", argIdx)
		args = append(args, *filter.PeriodMonth)
		argIdx++
	}
	if filter.PeriodYear != nil {
		baseQuery += fmt.Sprintf(" AND cr.period_year = $%d", argIdx)
		args = append(args, *filter.PeriodYear)
		argIdx++
	}

	// Count query
	var totalCount int64
	countQuery := "SELECT COUNT(*) " + baseQuery
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count compensation records: %w", err)
	}

	// Sort
	sortColumn := "cr.created_at"
	if filter.SortBy != "" {
		allowedColumns := map[string]string{
			"created_at":    "cr.created_at",
			"period":        "cr.period_year DESC, cr.period_month",
			"employee_name": "e.full_name",
			"net_amount":    "cr.net_amount",
		}
		if col, ok := allowedColumns[filter.SortBy]; ok {
			sortColumn = col
		}
	}
	sortOrder := "DESC"
	if filter.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	// Pagination
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(`
		SELECT `+recordColumns+`,
			   e.full_name as employee_name, e.department, f.name as facility_name
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, baseQuery, sortColumn, sortOrder, argIdx, argIdx+1)

	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list compensation records: %w", err)
	}
	defer rows.Close()

	var records []payroll.CompensationRecord
	for rows.Next() {
		var rec payroll.CompensationRecord
		var allowancesBytes, deductionsBytes, bonusesBytes []byte
		if err := rows.Scan(
			&rec.ID, &rec.OrganizationID, &rec.EmployeeID, &rec.FacilityID, &rec.PeriodMonth, &rec.PeriodYear,
			&rec.BaseAmount, &rec.Currency, &allowancesBytes, &deductionsBytes, &bonusesBytes,
			&rec.GrossAmount, &rec.TotalDeductions, &rec.NetAmount,
			&rec.Status, &rec.PaymentDate, &rec.Signed, &rec.SignedBy, &rec.SignedAt,
			&rec.BankName, &rec.BankAccountNumber, &rec.CreatedAt, &rec.UpdatedAt,
			&rec.EmployeeName, &rec.Department, &rec.FacilityName,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan compensation record: %w", err)
		}
		_ = json.Unmarshal(allowancesBytes, &rec.Allowances)
		_ = json.Unmarshal(deductionsBytes, &rec.Deductions)
		_ = json.Unmarshal(bonusesBytes, &rec.Bonuses)
		records = append(records, rec)
	}

	return records, totalCount, nil
}

func (r *payrollRepository) UpdateFinancials(ctx context.Context, organizationID string, record payroll.CompensationRecord) (payroll.CompensationRecord, error) {
	q := GetQuerier(ctx, r.db)

	allowancesJSON, _ := json.Marshal(record.Allowances)
	deductionsJSON, _ := json.Marshal(record.Deductions)
	bonusesJSON, _ := json.Marshal(record.Bonuses)

	query := `
		UPDATE compensation_records cr
		SET base_amount = $3, currency = $4, allowances = $5, deductions = $6, bonuses = $7,
			gross_amount = $8, total_deductions = $9, net_amount = $10,
			bank_name = $11, bank_account_number = $12, updated_at = NOW()
		WHERE cr.id = $1 AND cr.organization_id = $2
		RETURNING ` + recordColumns + `
	`

	rec, err := scanRecord(q.QueryRow(ctx, query,
		record.ID, organizationID,
		record.BaseAmount, record.Currency, allowancesJSON, deductionsJSON, bonusesJSON,
		record.GrossAmount, record.TotalDeductions, record.NetAmount,
		record.BankName, record.BankAccountNumber,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.CompensationRecord{}, payroll.ErrRecordNotFound
		}
		return payroll.CompensationRecord{}, fmt.Errorf("failed to update compensation record: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) UpdateStatus(ctx context.Context, organizationID, id string, status payroll.Status, paymentDate *time.Time) (payroll.CompensationRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE compensation_records cr
		SET status = $3, payment_date = COALESCE($4, payment_date), updated_at = NOW()
		WHERE cr.id = $1 AND cr.organization_id = $2
		RETURNING ` + recordColumns + `
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, id, organizationID, status, paymentDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.CompensationRecord{}, payroll.ErrRecordNotFound
		}
		return payroll.CompensationRecord{}, fmt.Errorf("failed to update compensation record status: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) UpdateSigning(ctx context.Context, organizationID, id string, signedBy string, signedAt time.Time) (payroll.CompensationRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE compensation_records cr
		SET signed = true, signed_by = $3, signed_at = $4, updated_at = NOW()
		WHERE cr.id = $1 AND cr.organization_id = $2
		RETURNING ` + recordColumns + `
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, id, organizationID, signedBy, signedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.CompensationRecord{}, payroll.ErrRecordNotFound
		}
		return payroll.CompensationRecord{}, fmt.Errorf("failed to update compensation record signing: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) GetPeriodSummary(ctx context.Context, organizationID string, month, year int) (payroll.PeriodSummaryResponse, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*) as total_records,
			COUNT(*) FILTER (WHERE status = 'draft') as draft_count,
			COUNT(*) FILTER (WHERE status = 'approved') as approved_count,
			COUNT(*) FILTER (WHERE status = 'paid') as paid_count,
			COUNT(*) FILTER (WHERE status = 'cancelled') as cancelled_count,
			COALESCE(SUM(gross_amount) FILTER (WHERE status <> 'cancelled'), 0) as total_gross,
			COALESCE(SUM(total_deductions) FILTER (WHERE status <> 'cancelled'), 0) as total_deductions,
			COALESCE(SUM(net_amount) FILTER (WHERE status <> 'cancelled'), 0) as total_net
		FROM compensation_records
		WHERE organization_id = $1 AND period_month = $2 AND period_year = $3
	`

	var summary payroll.PeriodSummaryResponse
	err := q.QueryRow(ctx, query, organizationID, month, year).Scan(
		&summary.TotalRecords, &summary.DraftCount, &summary.ApprovedCount,
		&summary.PaidCount, &summary.CancelledCount,
		&summary.TotalGross, &summary.TotalDeductions, &summary.TotalNet,
	)
	if err != nil {
		return payroll.PeriodSummaryResponse{}, fmt.Errorf("failed to get period summary: %w", err)
	}

	summary.PeriodMonth = month
	summary.PeriodYear = year

	return summary, nil
}
