package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CycleType identifies the recurrence of an account's statement cycle.
type CycleType string

const (
	CycleMonthly CycleType = "monthly"
)

// Account represents a financial instrument (bank account, credit card,
// e-wallet) within the core domain. This is the primary representation used by
// services.
//
// CurrentBalance is the materialized balance written back by reconciliation;
// the engine derives CalculatedBalance from the transaction stream and the two
// are expected to converge after a successful recompute.
type Account struct {
	AccountID        string          `json:"accountID"`     // Primary Key (UUID)
	UserID           string          `json:"userID"`        // Owning tenant (NON-NULL)
	Name             string          `json:"name"`          // User-defined name
	AccountTypeID    string          `json:"accountTypeID"` // FK -> account_types.id
	CurrentBalance   decimal.Decimal `json:"currentBalance"`
	CreditLimit      *decimal.Decimal `json:"creditLimit"` // Nullable; set on credit accounts and shared-limit roots
	SharedLimit      bool            `json:"sharedLimit"`
	ParentAccountID  string          `json:"parentAccountID"` // Nullable FK -> accounts.account_id (self-referencing, depth <= 2)
	CashbackEligible bool            `json:"cashbackEligible"`
	CashbackRate     *decimal.Decimal `json:"cashbackRate"`     // Fraction, e.g. 0.02
	CashbackMax      *decimal.Decimal `json:"cashbackMax"`      // Per-cycle cap
	CashbackMinSpend *decimal.Decimal `json:"cashbackMinSpend"` // All-or-nothing threshold
	CashbackEarned   decimal.Decimal `json:"cashbackEarned"` // Materialized earned amount for the current cycle
	CycleType        CycleType       `json:"cycleType"`
	StatementDay     int             `json:"statementDay"` // 1..31, clamped to short months
	Currency         string          `json:"currency"`
	IsActive         bool            `json:"isActive"`
	ExcludeFromTotals bool           `json:"excludeFromTotals"` // Hidden from net-worth views, still reconciled
	Version          int64           `json:"version"` // Optimistic concurrency token
	AuditFields
}

// IsSharedLimitRoot reports whether this account anchors a shared-limit pool.
func (a *Account) IsSharedLimitRoot() bool {
	return a.SharedLimit && a.ParentAccountID == ""
}

// ValidateSharedLimit enforces the shared-limit invariant: a shared-limit
// account must either carry the pool's credit limit (root) or point at the
// parent that does (leaf).
func (a *Account) ValidateSharedLimit() error {
	if !a.SharedLimit {
		return nil
	}
	if a.ParentAccountID == "" && a.CreditLimit == nil {
		return fmt.Errorf("shared-limit account %s has neither credit limit nor parent", a.AccountID)
	}
	return nil
}

// CashbackConfigured reports whether the account has a complete cashback tuple.
// An eligible account with a missing rate earns nothing rather than erroring:
// the engine records facts about the data it has.
func (a *Account) CashbackConfigured() bool {
	return a.CashbackEligible && a.CashbackRate != nil
}
