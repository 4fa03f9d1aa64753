package ledger

import "context"

type Repository interface {
	FindByReferenceCode(ctx context.Context, organizationID, code string) (Entry, error)
	// CreateExpenseEntry inserts an expense entry. A reference-code conflict
	// returns ErrDuplicateEntry and leaves the existing entry untouched.
	CreateExpenseEntry(ctx context.Context, entry Entry) (Entry, error)
}
