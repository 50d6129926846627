package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies the economic event a transaction records.
type TransactionType string

const (
	TypeExpense    TransactionType = "expense"
	TypeIncome     TransactionType = "income"
	TypeTransfer   TransactionType = "transfer"
	TypeRepayment  TransactionType = "repayment"
	TypeAdjustment TransactionType = "adjustment"
)

// ValidTransactionType reports whether t is a known transaction type.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TypeExpense, TypeIncome, TypeTransfer, TypeRepayment, TypeAdjustment:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending TransactionStatus = "pending"
	StatusCleared TransactionStatus = "cleared"
	StatusVoided  TransactionStatus = "voided"
)

// Transaction represents a single economic event against an account, optionally
// tagged with a person (for the debt ledger), category and shop. Once IsChecked
// is true the transaction is immutable; a voided transaction is retained for
// audit but contributes zero to every downstream aggregate.
type Transaction struct {
	TransactionID string            `json:"transactionID"` // Primary Key (UUID)
	UserID        string            `json:"userID"`        // Owning tenant (NON-NULL)
	AccountID     string            `json:"accountID"`     // FK -> accounts (NON-NULL)
	ToAccountID   string            `json:"toAccountID"`   // Transfer destination; empty for non-transfers
	Date          time.Time         `json:"date"`
	Type          TransactionType   `json:"type"`
	Status        TransactionStatus `json:"status"`
	Amount        decimal.Decimal   `json:"amount"`
	FeeAmount     decimal.Decimal   `json:"feeAmount"`
	FinalAmount   decimal.Decimal   `json:"finalAmount"` // Derived; frozen once cleared
	CategoryID    string            `json:"categoryID"`  // Nullable
	PersonID      string            `json:"personID"`    // Nullable; debt ledger participation
	ShopID        string            `json:"shopID"`      // Nullable
	Description   string            `json:"description"`
	Notes         string            `json:"notes"`
	Tags          []string          `json:"tags"`
	IsCashbackEligible bool         `json:"isCashbackEligible"`
	DiscountPercent decimal.Decimal `json:"discountPercent"` // 0..100
	DiscountFixed   decimal.Decimal `json:"discountFixed"`
	RepaymentTag    string          `json:"repaymentTag"` // Correlates a repayment to the debt it settles
	IsChecked       bool            `json:"isChecked"`
	IsRecurring     bool            `json:"isRecurring"` // Template flag; spawning is a scheduler concern
	Run             bool            `json:"run"`         // True on materialized instances of a template
	AuditFields
}

// ComputeFinalAmount derives the settled amount from the raw amount, fee and
// discounts. Both discounts apply additively against the original amount:
//
//	final = amount - fee - discountFixed - amount*discountPercent/100
func (t *Transaction) ComputeFinalAmount() decimal.Decimal {
	pctCut := t.Amount.Mul(t.DiscountPercent).Div(decimal.NewFromInt(100))
	return t.Amount.Sub(t.FeeAmount).Sub(t.DiscountFixed).Sub(pctCut)
}

// IsTemplate reports whether the transaction is a recurring template rather
// than a materialized instance. Templates never enter the ledger fold.
func (t *Transaction) IsTemplate() bool {
	return t.IsRecurring && !t.Run
}

// Validate checks the transaction's intrinsic rules. Referential checks
// (account, person, category, shop) belong to the normalizer, which has the
// tenant's reference set in hand.
func (t *Transaction) Validate() error {
	if !ValidTransactionType(t.Type) {
		return fmt.Errorf("unknown transaction type %q", t.Type)
	}
	switch t.Type {
	case TypeExpense, TypeIncome:
		if t.Amount.IsNegative() {
			return fmt.Errorf("amount must be non-negative for %s transactions", t.Type)
		}
	case TypeTransfer:
		if t.Amount.IsNegative() {
			return fmt.Errorf("amount must be non-negative for transfers")
		}
		if t.ToAccountID == "" {
			return fmt.Errorf("transfer requires a destination account")
		}
		if t.ToAccountID == t.AccountID {
			return fmt.Errorf("transfer source and destination must differ")
		}
	}
	if t.FeeAmount.IsNegative() {
		return fmt.Errorf("fee amount must be non-negative")
	}
	if t.DiscountFixed.IsNegative() {
		return fmt.Errorf("fixed discount must be non-negative")
	}
	if t.DiscountPercent.IsNegative() || t.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("percent discount must be within 0..100")
	}
	return nil
}
