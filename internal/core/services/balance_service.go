package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fintrackr/recon_engine/internal/apperrors"
	"github.com/fintrackr/recon_engine/internal/core/domain"
	portsrepo "github.com/fintrackr/recon_engine/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// BalanceService folds normalized ledger entries into per-account balances.
// Accumulation is deterministic and idempotent: recomputing from the full
// entry set always yields the same value.
type BalanceService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	personRepo  portsrepo.PersonReader
	txnRepo     portsrepo.TransactionReader
	normalizer  *Normalizer
}

// NewBalanceService creates a new BalanceService.
func NewBalanceService(accountRepo portsrepo.AccountReader, personRepo portsrepo.PersonReader, txnRepo portsrepo.TransactionReader, normalizer *Normalizer) *BalanceService {
	return &BalanceService{
		accountRepo: accountRepo,
		personRepo:  personRepo,
		txnRepo:     txnRepo,
		normalizer:  normalizer,
	}
}

// Accumulate folds all cleared ledger entries for the account up to asOf into
// its calculated balance. For shared-limit and credit-limited accounts it also
// derives the available credit of the limit pool; a breach is reported on the
// result as a warning, never as an error.
func (s *BalanceService) Accumulate(ctx context.Context, userID, accountID string, asOf time.Time) (*domain.Balance, error) {
	account, err := s.loadTenantAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if err := account.ValidateSharedLimit(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	entries, err := s.entriesForAccount(ctx, userID, accountID, asOf)
	if err != nil {
		return nil, err
	}

	calculated := decimal.Zero
	for _, e := range entries {
		calculated = calculated.Add(e.SignedAmount)
	}

	balance := &domain.Balance{
		AccountID:         accountID,
		CalculatedBalance: calculated,
		AsOf:              asOf,
	}

	if account.SharedLimit || account.CreditLimit != nil {
		available, err := s.availableCredit(ctx, account, calculated)
		if err != nil {
			return nil, err
		}
		balance.AvailableCredit = &available
		if available.IsNegative() {
			balance.LimitExceeded = true
			s.LogWarn(ctx, "Spend exceeds available credit",
				slog.String("account_id", accountID),
				slog.String("available_credit", available.String()))
		}
	}

	return balance, nil
}

// entriesForAccount loads, normalizes and deterministically orders the cleared
// entries touching the account. Transactions the normalizer rejects are logged
// and skipped; a single malformed row must not poison the whole account.
func (s *BalanceService) entriesForAccount(ctx context.Context, userID, accountID string, asOf time.Time) ([]domain.LedgerEntry, error) {
	txns, err := s.txnRepo.ListTransactionsByAccount(ctx, userID, accountID, time.Time{}, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for account %s: %w", accountID, err)
	}

	refs, err := buildReferenceSet(ctx, s.accountRepo, s.personRepo, userID)
	if err != nil {
		return nil, err
	}

	cleared := txns[:0]
	for _, txn := range txns {
		if txn.Status == domain.StatusCleared {
			cleared = append(cleared, txn)
		}
	}

	all, issues := s.normalizer.NormalizeAll(cleared, refs)
	for _, issue := range issues {
		s.LogWarn(ctx, "Skipping transaction during accumulation",
			slog.String("transaction_id", issue.TransactionID),
			slog.String("error", issue.Err.Error()))
	}

	// A transfer normalizes into two legs; keep only the leg on this account.
	entries := all[:0]
	for _, e := range all {
		if e.AccountID == accountID {
			entries = append(entries, e)
		}
	}
	domain.SortEntries(entries)
	return entries, nil
}

// availableCredit resolves the account's limit pool and returns
// creditLimit - sum(owed) across pool members. Owed is the magnitude of a
// negative balance; accounts in credit contribute nothing to usage.
func (s *BalanceService) availableCredit(ctx context.Context, account *domain.Account, calculated decimal.Decimal) (decimal.Decimal, error) {
	root := account
	if account.SharedLimit && account.ParentAccountID != "" {
		parent, err := s.accountRepo.FindAccountByID(ctx, account.ParentAccountID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to resolve shared-limit parent of %s: %w", account.AccountID, err)
		}
		root = parent
	}
	if root.CreditLimit == nil {
		return decimal.Zero, fmt.Errorf("%w: shared-limit root %s has no credit limit", apperrors.ErrValidation, root.AccountID)
	}

	pool := []domain.Account{*root}
	if root.SharedLimit {
		children, err := s.accountRepo.FindAccountsByParent(ctx, root.AccountID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to list shared-limit siblings of %s: %w", root.AccountID, err)
		}
		pool = append(pool, children...)
	}

	used := decimal.Zero
	for _, member := range pool {
		balance := member.CurrentBalance
		if member.AccountID == account.AccountID {
			// The member being recomputed uses its fresh value; siblings use
			// their last materialized balance.
			balance = calculated
		}
		used = used.Add(owedAmount(balance))
	}
	return root.CreditLimit.Sub(used), nil
}

// owedAmount converts a signed balance to the amount drawn against a credit
// limit. Under the sign convention spend drives a credit account negative.
func owedAmount(balance decimal.Decimal) decimal.Decimal {
	if balance.IsNegative() {
		return balance.Neg()
	}
	return decimal.Zero
}

func (s *BalanceService) loadTenantAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		// Return NotFound to obscure existence from other tenants.
		return nil, apperrors.ErrNotFound
	}
	return account, nil
}
