package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeExpense EntryType = "expense"
	EntryTypeIncome  EntryType = "income"
)

// Entry is an append-only row in the financial-transactions store. Settlement
// postings carry a unique reference code so a record can never produce two
// entries.
type Entry struct {
	ID             string
	OrganizationID string
	Type           EntryType
	Amount         decimal.Decimal
	Currency       string
	EntryDate      time.Time
	Description    string
	ReferenceCode  string
	CreatedAt      time.Time
}
