package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/orgnest/console-backend-go/internal/domain/employee"
	"github.com/orgnest/console-backend-go/internal/pkg/database"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.Repository {
	return &employeeRepository{db: db}
}

const employeeColumns = `
	id, organization_id, facility_id, full_name, department, status,
	base_compensation, currency, bank_name, bank_account_number, created_at, updated_at
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID, &e.OrganizationID, &e.FacilityID, &e.FullName, &e.Department, &e.Status,
		&e.BaseCompensation, &e.Currency, &e.BankName, &e.BankAccountNumber, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (r *employeeRepository) GetByID(ctx context.Context, id string, organizationID string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE id = $1 AND organization_id = $2
	`

	e, err := scanEmployee(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return e, nil
}

func (r *employeeRepository) ListActive(ctx context.Context, organizationID string, facilityID *string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE organization_id = $1 AND status = $2
	`
	args := []interface{}{organizationID, employee.EmploymentStatusActive}

	if facilityID != nil {
		query += " AND facility_id = $3"
		args = append(args, *facilityID)
	}
	query += " ORDER BY full_name"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		var e employee.Employee
		if err := rows.Scan(
			&e.ID, &e.OrganizationID, &e.FacilityID, &e.FullName, &e.Department, &e.Status,
			&e.BaseCompensation, &e.Currency, &e.BankName, &e.BankAccountNumber, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	return employees, nil
}
