package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/orgnest/console-backend-go/internal/domain/ledger"
	"github.com/orgnest/console-backend-go/internal/domain/payroll"
)

// ReferenceCode derives the idempotency code for a record's settlement
// posting. The full record id is used; truncated prefixes risk collision.
func ReferenceCode(recordID string) string {
	return "payroll:" + recordID
}

// LedgerPoster appends one expense entry to the financial-transactions store
// per settled compensation record. The reference-code unique constraint makes
// the posting idempotent even under concurrent callers.
type LedgerPoster struct {
	ledgerRepo ledger.Repository
	logger     *slog.Logger
	now        func() time.Time
}

func NewLedgerPoster(ledgerRepo ledger.Repository, logger *slog.Logger) *LedgerPoster {
	return &LedgerPoster{
		ledgerRepo: ledgerRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// PostIfAbsent creates the expense entry for a paid record unless one already
// exists for its reference code. Finding an existing entry is success.
func (p *LedgerPoster) PostIfAbsent(ctx context.Context, record payroll.CompensationRecord) error {
	code := ReferenceCode(record.ID)

	_, err := p.ledgerRepo.FindByReferenceCode(ctx, record.OrganizationID, code)
	if err == nil {
		p.logger.Info("settlement already posted, skipping",
			slog.String("record_id", record.ID),
			slog.String("reference_code", code),
		)
		return nil
	}
	if !errors.Is(err, ledger.ErrEntryNotFound) {
		return fmt.Errorf("failed to check existing ledger entry: %w", err)
	}

	entryDate := p.now()
	if record.PaymentDate != nil {
		entryDate = *record.PaymentDate
	}

	entry := ledger.Entry{
		OrganizationID: record.OrganizationID,
		Type:           ledger.EntryTypeExpense,
		Amount:         record.NetAmount,
		Currency:       record.Currency,
		EntryDate:      entryDate,
		Description:    fmt.Sprintf("Payroll settlement %d-%02d", record.PeriodYear, record.PeriodMonth),
		ReferenceCode:  code,
	}

	created, err := p.ledgerRepo.CreateExpenseEntry(ctx, entry)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateEntry) {
			// Lost a race against a concurrent posting; the entry exists.
			p.logger.Info("settlement posted concurrently, skipping",
				slog.String("record_id", record.ID),
				slog.String("reference_code", code),
			)
			return nil
		}
		return fmt.Errorf("failed to post settlement for record %s: %w", record.ID, err)
	}

	p.logger.Info("settlement posted",
		slog.String("record_id", record.ID),
		slog.String("ledger_entry_id", created.ID),
		slog.String("amount", created.Amount.String()),
	)
	return nil
}
