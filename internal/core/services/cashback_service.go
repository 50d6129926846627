package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fintrackr/recon_engine/internal/apperrors"
	"github.com/fintrackr/recon_engine/internal/core/domain"
	portsrepo "github.com/fintrackr/recon_engine/internal/core/ports/repositories"
	portssvc "github.com/fintrackr/recon_engine/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// CashbackService groups eligible spend into statement cycles and computes the
// earned cashback under the account's rate, cap and minimum-spend rules. The
// computation is a pure function of the entry set and the account config, so
// re-running a closed cycle always reproduces the identical value.
type CashbackService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	personRepo  portsrepo.PersonReader
	txnRepo     portsrepo.TransactionReader
	normalizer  *Normalizer
}

// NewCashbackService creates a new CashbackService.
func NewCashbackService(accountRepo portsrepo.AccountReader, personRepo portsrepo.PersonReader, txnRepo portsrepo.TransactionReader, normalizer *Normalizer) *CashbackService {
	return &CashbackService{
		accountRepo: accountRepo,
		personRepo:  personRepo,
		txnRepo:     txnRepo,
		normalizer:  normalizer,
	}
}

var _ portssvc.CashbackSvc = (*CashbackService)(nil)

// CycleFor derives the statement cycle containing the given instant from the
// account's cycle configuration.
func (s *CashbackService) CycleFor(ctx context.Context, accountID string, at time.Time) (domain.Cycle, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return domain.Cycle{}, err
	}
	cycle, err := domain.CycleContaining(at, account.CycleType, account.StatementDay)
	if err != nil {
		return domain.Cycle{}, fmt.Errorf("%w: account %s: %v", apperrors.ErrValidation, accountID, err)
	}
	return cycle, nil
}

// ComputeCashback computes the cashback earned by the account within the given
// cycle. Ineligible accounts short-circuit to zero without scanning entries.
// The minimum-spend threshold is all-or-nothing, and the cap applies per cycle.
func (s *CashbackService) ComputeCashback(ctx context.Context, userID, accountID string, cycle domain.Cycle) (*domain.CashbackResult, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, apperrors.ErrNotFound
	}

	result := &domain.CashbackResult{
		AccountID:     accountID,
		Cycle:         cycle,
		EligibleSpend: decimal.Zero,
		Earned:        decimal.Zero,
	}
	if !account.CashbackConfigured() {
		return result, nil
	}

	spend, err := s.eligibleSpend(ctx, userID, accountID, cycle)
	if err != nil {
		return nil, err
	}
	result.EligibleSpend = spend

	if account.CashbackMinSpend != nil && spend.LessThan(*account.CashbackMinSpend) {
		s.LogDebug(ctx, "Eligible spend below cashback threshold",
			slog.String("account_id", accountID),
			slog.String("eligible_spend", spend.String()),
			slog.String("min_spend", account.CashbackMinSpend.String()))
		return result, nil
	}

	earned := spend.Mul(*account.CashbackRate)
	if account.CashbackMax != nil && earned.GreaterThan(*account.CashbackMax) {
		earned = *account.CashbackMax
	}
	result.Earned = earned
	return result, nil
}

// eligibleSpend sums the magnitude of cleared, cashback-eligible expense
// entries dated within the half-open cycle interval. An entry dated exactly at
// the cycle end belongs to the next cycle.
func (s *CashbackService) eligibleSpend(ctx context.Context, userID, accountID string, cycle domain.Cycle) (decimal.Decimal, error) {
	txns, err := s.txnRepo.ListTransactionsByAccount(ctx, userID, accountID, cycle.Start, cycle.End)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list transactions for account %s: %w", accountID, err)
	}

	refs, err := buildReferenceSet(ctx, s.accountRepo, s.personRepo, userID)
	if err != nil {
		return decimal.Zero, err
	}

	cleared := txns[:0]
	for _, txn := range txns {
		if txn.Status == domain.StatusCleared {
			cleared = append(cleared, txn)
		}
	}

	entries, issues := s.normalizer.NormalizeAll(cleared, refs)
	for _, issue := range issues {
		s.LogWarn(ctx, "Skipping transaction during cashback computation",
			slog.String("transaction_id", issue.TransactionID),
			slog.String("error", issue.Err.Error()))
	}

	spend := decimal.Zero
	for _, e := range entries {
		if e.AccountID != accountID || e.Type != domain.TypeExpense || !e.CashbackEligible {
			continue
		}
		if !cycle.Contains(e.OccurredAt) {
			continue
		}
		spend = spend.Add(e.SignedAmount.Abs())
	}
	return spend, nil
}
