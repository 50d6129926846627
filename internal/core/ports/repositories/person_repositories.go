package repositories

import (
	"context"
	"time"

	"github.com/fintrackr/recon_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PersonReader defines read operations for person data.
type PersonReader interface {
	// FindPersonByID retrieves a specific person by their unique identifier.
	FindPersonByID(ctx context.Context, personID string) (*domain.Person, error)

	// ListGroupMembers retrieves the people whose GroupID points at the given
	// group person.
	ListGroupMembers(ctx context.Context, groupID string) ([]domain.Person, error)

	// ListPersonsByUser retrieves every person owned by the tenant user.
	ListPersonsByUser(ctx context.Context, userID string) ([]domain.Person, error)
}

// PersonWriter defines write-back operations for the debt ledger output.
type PersonWriter interface {
	// UpdateCreditBalanceCAS writes the materialized net owed amount using
	// optimistic concurrency. It returns apperrors.ErrStaleWrite if the row's
	// version no longer matches expectedVersion.
	UpdateCreditBalanceCAS(ctx context.Context, personID string, expectedVersion int64, creditBalance decimal.Decimal, now time.Time) error
}

// PersonRepository combines person read and write-back operations.
type PersonRepository interface {
	PersonReader
	PersonWriter
}
