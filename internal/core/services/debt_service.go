package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/fintrackr/recon_engine/internal/apperrors"
	"github.com/fintrackr/recon_engine/internal/core/domain"
	portsrepo "github.com/fintrackr/recon_engine/internal/core/ports/repositories"
	portssvc "github.com/fintrackr/recon_engine/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// SurplusPolicy decides what happens when repayments exceed the outstanding
// debt. The engine surfaces the surplus either way; the policy only controls
// whether the balance absorbs it.
type SurplusPolicy string

const (
	// SurplusHold keeps the balance at zero and reports the excess as a
	// Surplus fact for the caller to settle.
	SurplusHold SurplusPolicy = "hold"
	// SurplusCarry lets the balance go negative, converting the excess into
	// credit the person holds against the user.
	SurplusCarry SurplusPolicy = "carry"
)

// DebtService derives the net owed amount per person or group from the
// transactions tagged with them.
type DebtService struct {
	BaseService
	personRepo portsrepo.PersonRepository
	txnRepo    portsrepo.TransactionReader
	policy     SurplusPolicy
}

// DebtOption is a functional option for configuring the debt service.
type DebtOption func(*DebtService)

// WithSurplusPolicy overrides the default hold-at-zero over-repayment policy.
func WithSurplusPolicy(policy SurplusPolicy) DebtOption {
	return func(s *DebtService) {
		s.policy = policy
	}
}

// NewDebtService creates a new DebtService.
func NewDebtService(personRepo portsrepo.PersonRepository, txnRepo portsrepo.TransactionReader, options ...DebtOption) *DebtService {
	svc := &DebtService{
		personRepo: personRepo,
		txnRepo:    txnRepo,
		policy:     SurplusHold,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.DebtSvc = (*DebtService)(nil)

// Reconcile computes the person's net owed balance. Expenses paid on the
// person's behalf increase it, repayments decrease it, adjustments apply their
// signed amount directly. For a group it aggregates the group-tagged
// transactions plus the nets of all members; transactions tagged to an
// individual member stay attributed to that member and roll up through them.
func (s *DebtService) Reconcile(ctx context.Context, userID, personID string) (*domain.NetOwed, error) {
	person, err := s.personRepo.FindPersonByID(ctx, personID)
	if err != nil {
		return nil, err
	}
	if person.UserID != userID {
		// Return NotFound to obscure existence from other tenants.
		return nil, apperrors.ErrNotFound
	}

	net, err := s.reconcileOne(ctx, userID, personID)
	if err != nil {
		return nil, err
	}

	if person.IsGroup {
		members, err := s.personRepo.ListGroupMembers(ctx, personID)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of group %s: %w", personID, err)
		}
		for _, member := range members {
			memberNet, err := s.reconcileOne(ctx, userID, member.PersonID)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile group member %s: %w", member.PersonID, err)
			}
			net.Amount = net.Amount.Add(memberNet.Amount)
			net.Surplus = net.Surplus.Add(memberNet.Surplus)
		}
		net.PersonID = personID
	}

	if net.Surplus.IsPositive() {
		s.LogInfo(ctx, "Over-repayment surplus detected",
			slog.String("person_id", personID),
			slog.String("surplus", net.Surplus.String()),
			slog.String("policy", string(s.policy)))
	}
	return net, nil
}

// reconcileOne folds the transactions tagged to a single person, in
// deterministic (date, created_at, id) order so the running cap behaves the
// same on every recomputation.
func (s *DebtService) reconcileOne(ctx context.Context, userID, personID string) (*domain.NetOwed, error) {
	txns, err := s.txnRepo.ListTransactionsByPerson(ctx, userID, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for person %s: %w", personID, err)
	}
	sortTransactions(txns)

	owed := decimal.Zero
	surplus := decimal.Zero
	for _, txn := range txns {
		if txn.Status != domain.StatusCleared || txn.IsTemplate() || txn.PersonID != personID {
			continue
		}
		final := txn.FinalAmount
		if !txn.IsChecked {
			final = txn.ComputeFinalAmount()
		}
		switch txn.Type {
		case domain.TypeExpense:
			// Paid on the person's behalf: they owe more.
			owed = owed.Add(final.Abs())
		case domain.TypeRepayment:
			newOwed := owed.Sub(final.Abs())
			if newOwed.IsNegative() {
				prevOver := decimal.Zero
				if owed.IsNegative() {
					prevOver = owed.Neg()
				}
				surplus = surplus.Add(newOwed.Neg().Sub(prevOver))
				if s.policy == SurplusHold {
					newOwed = decimal.Zero
				}
			}
			owed = newOwed
		case domain.TypeAdjustment:
			// Explicit correction; the only way to push the balance negative
			// under the hold policy.
			owed = owed.Add(final)
		}
	}

	return &domain.NetOwed{PersonID: personID, Amount: owed, Surplus: surplus}, nil
}

func sortTransactions(txns []domain.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		a, b := txns[i], txns[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.TransactionID < b.TransactionID
	})
}
