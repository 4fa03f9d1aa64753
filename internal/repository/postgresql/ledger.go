package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/orgnest/console-backend-go/internal/domain/ledger"
	"github.com/orgnest/console-backend-go/internal/pkg/database"
)

type ledgerRepository struct {
	db *database.DB
}

func NewLedgerRepository(db *database.DB) ledger.Repository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) FindByReferenceCode(ctx context.Context, organizationID, code string) (ledger.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, type, amount, currency, entry_date, description, reference_code, created_at
		FROM ledger_entries
		WHERE organization_id = $1 AND reference_code = $2
	`

	var e ledger.Entry
	err := q.QueryRow(ctx, query, organizationID, code).Scan(
		&e.ID, &e.OrganizationID, &e.Type, &e.Amount, &e.Currency,
		&e.EntryDate, &e.Description, &e.ReferenceCode, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Entry{}, ledger.ErrEntryNotFound
		}
		return ledger.Entry{}, fmt.Errorf("failed to find ledger entry: %w", err)
	}

	return e, nil
}

func (r *ledgerRepository) CreateExpenseEntry(ctx context.Context, entry ledger.Entry) (ledger.Entry, error) {
	q := GetQuerier(ctx, r.db)

	// The unique constraint on reference_code turns check-then-insert into
	// insert-or-conflict; no window for a duplicate posting.
	query := `
		INSERT INTO ledger_entries (organization_id, type, amount, currency, entry_date, description, reference_code)
		VALUES ($1, 'expense', $2, $3, $4, $5, $6)
		RETURNING id, organization_id, type, amount, currency, entry_date, description, reference_code, created_at
	`

	var e ledger.Entry
	err := q.QueryRow(ctx, query,
		entry.OrganizationID, entry.Amount, entry.Currency,
		entry.EntryDate, entry.Description, entry.ReferenceCode,
	).Scan(
		&e.ID, &e.OrganizationID, &e.Type, &e.Amount, &e.Currency,
		&e.EntryDate, &e.Description, &e.ReferenceCode, &e.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.Entry{}, ledger.ErrDuplicateEntry
		}
		return ledger.Entry{}, fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return e, nil
}
