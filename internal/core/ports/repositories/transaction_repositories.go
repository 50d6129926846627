package repositories

import (
	"context"
	"time"

	"github.com/fintrackr/recon_engine/internal/core/domain"
)

// TransactionReader defines read queries over the transaction stream. The store
// owns durability and ordering of writes; the engine re-sorts what it reads, so
// no ordering guarantee is required here beyond completeness.
type TransactionReader interface {
	// ListTransactionsByAccount retrieves the tenant's transactions touching
	// the account (as source or transfer destination) within [from, to).
	// Zero-valued bounds mean unbounded on that side.
	ListTransactionsByAccount(ctx context.Context, userID, accountID string, from, to time.Time) ([]domain.Transaction, error)

	// ListTransactionsByPerson retrieves the tenant's transactions tagged with
	// the person.
	ListTransactionsByPerson(ctx context.Context, userID, personID string) ([]domain.Transaction, error)
}
