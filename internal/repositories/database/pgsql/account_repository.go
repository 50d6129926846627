package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fintrackr/recon_engine/internal/apperrors"
	"github.com/fintrackr/recon_engine/internal/core/domain"
	portsrepo "github.com/fintrackr/recon_engine/internal/core/ports/repositories"
	"github.com/fintrackr/recon_engine/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const accountColumns = `account_id, user_id, name, account_type_id, current_balance, credit_limit,
	shared_limit, parent_account_id, cashback_eligible, cashback_rate, cashback_max,
	cashback_min_spend, cashback_earned, cycle_type, statement_day, currency, is_active,
	exclude_from_totals, version, created_at, created_by, last_updated_at, last_updated_by`

// PgxAccountRepository implements the account ports over a pgx pool.
type PgxAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new repository for account data.
func NewAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{pool: pool}
}

// Ensure PgxAccountRepository implements the account ports.
var _ portsrepo.AccountRepository = (*PgxAccountRepository)(nil)

// toDomainAccount converts the DB row representation to the domain type.
func toDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:         m.AccountID,
		UserID:            m.UserID,
		Name:              m.Name,
		AccountTypeID:     m.AccountTypeID,
		CurrentBalance:    m.CurrentBalance,
		CreditLimit:       m.CreditLimit,
		SharedLimit:       m.SharedLimit,
		ParentAccountID:   m.ParentAccountID,
		CashbackEligible:  m.CashbackEligible,
		CashbackRate:      m.CashbackRate,
		CashbackMax:       m.CashbackMax,
		CashbackMinSpend:  m.CashbackMinSpend,
		CashbackEarned:    m.CashbackEarned,
		CycleType:         domain.CycleType(m.CycleType),
		StatementDay:      m.StatementDay,
		Currency:          m.Currency,
		IsActive:          m.IsActive,
		ExcludeFromTotals: m.ExcludeFromTotals,
		Version:           m.Version,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var m models.Account
	var parentID, cycleType sql.NullString
	var statementDay sql.NullInt32
	err := row.Scan(
		&m.AccountID, &m.UserID, &m.Name, &m.AccountTypeID, &m.CurrentBalance, &m.CreditLimit,
		&m.SharedLimit, &parentID, &m.CashbackEligible, &m.CashbackRate, &m.CashbackMax,
		&m.CashbackMinSpend, &m.CashbackEarned, &cycleType, &statementDay, &m.Currency, &m.IsActive,
		&m.ExcludeFromTotals, &m.Version, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	m.ParentAccountID = parentID.String
	m.CycleType = cycleType.String
	m.StatementDay = int(statementDay.Int32)
	acc := toDomainAccount(m)
	return &acc, nil
}

// FindAccountByID retrieves a specific account by its unique identifier.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	return scanAccount(r.pool.QueryRow(ctx, query, accountID))
}

// FindAccountsByIDs retrieves multiple accounts by their IDs.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1);`
	rows, err := r.pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs: %w", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts[acc.AccountID] = *acc
	}
	return accounts, rows.Err()
}

// FindAccountsByParent retrieves the child accounts of a shared-limit root.
func (r *PgxAccountRepository) FindAccountsByParent(ctx context.Context, parentAccountID string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE parent_account_id = $1 ORDER BY account_id;`
	return r.queryAccounts(ctx, query, parentAccountID)
}

// ListAccountsByUser retrieves every account owned by the tenant user.
func (r *PgxAccountRepository) ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY account_id;`
	return r.queryAccounts(ctx, query, userID)
}

func (r *PgxAccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acc)
	}
	return accounts, rows.Err()
}

// UpdateBalanceCAS writes the materialized balance and cashback earned using
// optimistic concurrency. The row version must still match expectedVersion;
// a concurrent writer surfaces as ErrStaleWrite.
func (r *PgxAccountRepository) UpdateBalanceCAS(ctx context.Context, accountID string, expectedVersion int64, balance decimal.Decimal, cashbackEarned decimal.Decimal, now time.Time) error {
	query := `
		UPDATE accounts
		SET current_balance = $1, cashback_earned = $2, version = version + 1, last_updated_at = $3
		WHERE account_id = $4 AND version = $5;
	`
	tag, err := r.pool.Exec(ctx, query, balance, cashbackEarned, now, accountID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to write back balance for account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s version %d", apperrors.ErrStaleWrite, accountID, expectedVersion)
	}
	return nil
}
