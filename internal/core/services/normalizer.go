package services

import (
	"context"
	"fmt"

	"github.com/fintrackr/recon_engine/internal/apperrors"
	"github.com/fintrackr/recon_engine/internal/core/domain"
	portsrepo "github.com/fintrackr/recon_engine/internal/core/ports/repositories"
	"github.com/fintrackr/recon_engine/internal/utils/accounting"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ReferenceSet is the tenant-scoped lookup the normalizer resolves foreign keys
// against. A nil Categories or Shops map disables that check: the engine only
// validates references it has data for.
type ReferenceSet struct {
	UserID     string
	Accounts   map[string]domain.Account
	People     map[string]domain.Person
	Categories map[string]struct{}
	Shops      map[string]struct{}
}

// buildReferenceSet assembles the tenant-scoped lookup from the store.
// Categories and shops are left unchecked; the store enforces those with
// foreign key constraints.
func buildReferenceSet(ctx context.Context, accountRepo portsrepo.AccountReader, personRepo portsrepo.PersonReader, userID string) (ReferenceSet, error) {
	accounts, err := accountRepo.ListAccountsByUser(ctx, userID)
	if err != nil {
		return ReferenceSet{}, fmt.Errorf("failed to list accounts for tenant: %w", err)
	}
	people, err := personRepo.ListPersonsByUser(ctx, userID)
	if err != nil {
		return ReferenceSet{}, fmt.Errorf("failed to list people for tenant: %w", err)
	}

	refs := ReferenceSet{
		UserID:   userID,
		Accounts: make(map[string]domain.Account, len(accounts)),
		People:   make(map[string]domain.Person, len(people)),
	}
	for _, a := range accounts {
		refs.Accounts[a.AccountID] = a
	}
	for _, p := range people {
		refs.People[p.PersonID] = p
	}
	return refs, nil
}

// NormalizeIssue reports a transaction the normalizer rejected. Rejection is
// local: one bad transaction never aborts the batch it arrived in.
type NormalizeIssue struct {
	TransactionID string
	Err           error
}

// Normalizer validates raw transactions and canonicalizes them into signed
// ledger entries. It is pure: no side effects, same input always yields the
// same entries.
type Normalizer struct {
	validate *validator.Validate
}

// NewNormalizer creates a new Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{validate: validator.New()}
}

// Normalize validates txn against refs and returns its ledger entries.
// Voided transactions and recurring templates normalize to no entries; they
// contribute zero to every downstream aggregate.
//
// Sign convention: negative for expenses and fees, positive for income and
// received repayments. Transfers split into a debit entry on the source
// (amount plus fee) and a credit entry on the destination (amount).
func (n *Normalizer) Normalize(txn domain.Transaction, refs ReferenceSet) ([]domain.LedgerEntry, error) {
	if err := n.validate.Var(string(txn.Type), "required,oneof=expense income transfer repayment adjustment"); err != nil {
		return nil, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, txn.Type)
	}
	if err := n.validate.Var(string(txn.Status), "required,oneof=pending cleared voided"); err != nil {
		return nil, fmt.Errorf("%w: unknown transaction status %q", apperrors.ErrValidation, txn.Status)
	}
	if err := txn.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if txn.UserID != refs.UserID {
		return nil, fmt.Errorf("%w: transaction %s belongs to a different tenant", apperrors.ErrValidation, txn.TransactionID)
	}
	if err := n.checkReferences(txn, refs); err != nil {
		return nil, err
	}

	if txn.Status == domain.StatusVoided || txn.IsTemplate() {
		return nil, nil
	}

	final := txn.FinalAmount
	if !txn.IsChecked {
		// Not yet frozen: derive from the invariant. Checked transactions keep
		// their stored value even if inputs later look inconsistent.
		final = txn.ComputeFinalAmount()
	}
	txn.FinalAmount = final

	if txn.Type == domain.TypeTransfer {
		source, destination := accounting.TransferLegs(txn)
		return []domain.LedgerEntry{
			n.entryFor(txn, txn.AccountID, source),
			n.entryFor(txn, txn.ToAccountID, destination),
		}, nil
	}

	signed, err := accounting.SignedAmount(txn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return []domain.LedgerEntry{n.entryFor(txn, txn.AccountID, signed)}, nil
}

// NormalizeAll normalizes a batch, collecting per-transaction issues instead of
// failing the batch.
func (n *Normalizer) NormalizeAll(txns []domain.Transaction, refs ReferenceSet) ([]domain.LedgerEntry, []NormalizeIssue) {
	var entries []domain.LedgerEntry
	var issues []NormalizeIssue
	for _, txn := range txns {
		e, err := n.Normalize(txn, refs)
		if err != nil {
			issues = append(issues, NormalizeIssue{TransactionID: txn.TransactionID, Err: err})
			continue
		}
		entries = append(entries, e...)
	}
	return entries, issues
}

func (n *Normalizer) checkReferences(txn domain.Transaction, refs ReferenceSet) error {
	account, ok := refs.Accounts[txn.AccountID]
	if !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, txn.AccountID)
	}
	if account.UserID != refs.UserID {
		return fmt.Errorf("%w: account %s belongs to a different tenant", apperrors.ErrValidation, txn.AccountID)
	}
	if txn.Type == domain.TypeTransfer {
		dest, ok := refs.Accounts[txn.ToAccountID]
		if !ok {
			return fmt.Errorf("%w: destination account %s", apperrors.ErrNotFound, txn.ToAccountID)
		}
		if dest.UserID != refs.UserID {
			return fmt.Errorf("%w: destination account %s belongs to a different tenant", apperrors.ErrValidation, txn.ToAccountID)
		}
	}
	if txn.PersonID != "" {
		person, ok := refs.People[txn.PersonID]
		if !ok {
			return fmt.Errorf("%w: person %s", apperrors.ErrNotFound, txn.PersonID)
		}
		if person.UserID != refs.UserID {
			return fmt.Errorf("%w: person %s belongs to a different tenant", apperrors.ErrValidation, txn.PersonID)
		}
	}
	if txn.CategoryID != "" && refs.Categories != nil {
		if _, ok := refs.Categories[txn.CategoryID]; !ok {
			return fmt.Errorf("%w: category %s", apperrors.ErrNotFound, txn.CategoryID)
		}
	}
	if txn.ShopID != "" && refs.Shops != nil {
		if _, ok := refs.Shops[txn.ShopID]; !ok {
			return fmt.Errorf("%w: shop %s", apperrors.ErrNotFound, txn.ShopID)
		}
	}
	return nil
}

func (n *Normalizer) entryFor(txn domain.Transaction, accountID string, signed decimal.Decimal) domain.LedgerEntry {
	return domain.LedgerEntry{
		TransactionID:    txn.TransactionID,
		AccountID:        accountID,
		SignedAmount:     signed,
		OccurredAt:       txn.Date,
		CreatedAt:        txn.CreatedAt,
		PersonID:         txn.PersonID,
		Type:             txn.Type,
		CashbackEligible: txn.IsCashbackEligible,
		RepaymentTag:     txn.RepaymentTag,
	}
}
