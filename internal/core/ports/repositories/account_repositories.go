package repositories

import (
	"context"
	"time"

	"github.com/fintrackr/recon_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// FindAccountsByParent retrieves the child accounts of a shared-limit root.
	FindAccountsByParent(ctx context.Context, parentAccountID string) ([]domain.Account, error)

	// ListAccountsByUser retrieves every account owned by the tenant user.
	ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error)
}

// AccountWriter defines write-back operations for reconciliation output.
type AccountWriter interface {
	// UpdateBalanceCAS writes the materialized balance and cashback earned for
	// the account using optimistic concurrency. It returns
	// apperrors.ErrStaleWrite if the row's version no longer matches
	// expectedVersion; on success the row version is advanced.
	UpdateBalanceCAS(ctx context.Context, accountID string, expectedVersion int64, balance decimal.Decimal, cashbackEarned decimal.Decimal, now time.Time) error
}

// AccountRepository combines account read and write-back operations.
type AccountRepository interface {
	AccountReader
	AccountWriter
}
