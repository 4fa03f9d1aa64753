package ledger

import "errors"

var (
	ErrEntryNotFound = errors.New("ledger entry not found")
	// ErrDuplicateEntry means the reference code is already posted. Callers
	// treat this as success, not failure.
	ErrDuplicateEntry = errors.New("ledger entry already posted for this reference code")
)
