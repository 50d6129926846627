package pgsql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fintrackr/recon_engine/internal/core/domain"
	portsrepo "github.com/fintrackr/recon_engine/internal/core/ports/repositories"
	"github.com/fintrackr/recon_engine/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `transaction_id, user_id, account_id, to_account_id, date, type, status,
	amount, fee_amount, final_amount, category_id, person_id, shop_id, description, notes, tags,
	is_cashback_eligible, discount_percent, discount_fixed, repayment_tag, is_checked,
	is_recurring, run, created_at, created_by, last_updated_at, last_updated_by`

// PgxTransactionRepository implements the transaction read port over a pgx
// pool. The engine never writes transactions; the CRUD surface owns them.
type PgxTransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new repository for transaction reads.
func NewTransactionRepository(pool *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{pool: pool}
}

// Ensure PgxTransactionRepository implements the transaction read port.
var _ portsrepo.TransactionReader = (*PgxTransactionRepository)(nil)

func toDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:      m.TransactionID,
		UserID:             m.UserID,
		AccountID:          m.AccountID,
		ToAccountID:        m.ToAccountID,
		Date:               m.Date,
		Type:               domain.TransactionType(m.Type),
		Status:             domain.TransactionStatus(m.Status),
		Amount:             m.Amount,
		FeeAmount:          m.FeeAmount,
		FinalAmount:        m.FinalAmount,
		CategoryID:         m.CategoryID,
		PersonID:           m.PersonID,
		ShopID:             m.ShopID,
		Description:        m.Description,
		Notes:              m.Notes,
		Tags:               m.Tags,
		IsCashbackEligible: m.IsCashbackEligible,
		DiscountPercent:    m.DiscountPercent,
		DiscountFixed:      m.DiscountFixed,
		RepaymentTag:       m.RepaymentTag,
		IsChecked:          m.IsChecked,
		IsRecurring:        m.IsRecurring,
		Run:                m.Run,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

func scanTransaction(rows pgx.Rows) (domain.Transaction, error) {
	var m models.Transaction
	var toAccountID, categoryID, personID, shopID, description, notes, repaymentTag, createdBy, updatedBy sql.NullString
	err := rows.Scan(
		&m.TransactionID, &m.UserID, &m.AccountID, &toAccountID, &m.Date, &m.Type, &m.Status,
		&m.Amount, &m.FeeAmount, &m.FinalAmount, &categoryID, &personID, &shopID, &description, &notes, &m.Tags,
		&m.IsCashbackEligible, &m.DiscountPercent, &m.DiscountFixed, &repaymentTag, &m.IsChecked,
		&m.IsRecurring, &m.Run, &m.CreatedAt, &createdBy, &m.LastUpdatedAt, &updatedBy,
	)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}
	m.ToAccountID = toAccountID.String
	m.CategoryID = categoryID.String
	m.PersonID = personID.String
	m.ShopID = shopID.String
	m.Description = description.String
	m.Notes = notes.String
	m.RepaymentTag = repaymentTag.String
	m.CreatedBy = createdBy.String
	m.LastUpdatedBy = updatedBy.String
	return toDomainTransaction(m), nil
}

// ListTransactionsByAccount retrieves the tenant's transactions touching the
// account as source or transfer destination within [from, to). Zero-valued
// bounds are unbounded.
func (r *PgxTransactionRepository) ListTransactionsByAccount(ctx context.Context, userID, accountID string, from, to time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		  AND (account_id = $2 OR to_account_id = $2)
		  AND ($3::timestamptz IS NULL OR date >= $3)
		  AND ($4::timestamptz IS NULL OR date < $4)
		ORDER BY date, created_at, transaction_id;
	`
	var fromArg, toArg *time.Time
	if !from.IsZero() {
		fromArg = &from
	}
	if !to.IsZero() {
		toArg = &to
	}
	return r.queryTransactions(ctx, query, userID, accountID, fromArg, toArg)
}

// ListTransactionsByPerson retrieves the tenant's transactions tagged with the
// person.
func (r *PgxTransactionRepository) ListTransactionsByPerson(ctx context.Context, userID, personID string) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND person_id = $2
		ORDER BY date, created_at, transaction_id;
	`
	return r.queryTransactions(ctx, query, userID, personID)
}

func (r *PgxTransactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
