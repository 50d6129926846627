package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one normalized, signed monetary effect derived from a
// transaction. It is the unit the accumulators fold over: negative for spend
// and fees, positive for income and received repayments. A transfer produces
// two entries, one per side.
type LedgerEntry struct {
	TransactionID    string
	AccountID        string
	SignedAmount     decimal.Decimal
	OccurredAt       time.Time // Transaction date
	CreatedAt        time.Time // Record creation; first tie-break
	PersonID         string    // Empty unless the transaction participates in the debt ledger
	Type             TransactionType
	CashbackEligible bool
	RepaymentTag     string
}

// SortEntries orders entries deterministically by occurrence date, then
// creation time, then transaction ID. Reconciliation results must not depend on
// the arrival order of store reads.
func SortEntries(entries []LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.Before(b.OccurredAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.TransactionID < b.TransactionID
	})
}

// Balance is the output of the balance accumulator for one account.
type Balance struct {
	AccountID         string           `json:"accountID"`
	CalculatedBalance decimal.Decimal  `json:"calculatedBalance"`
	AvailableCredit   *decimal.Decimal `json:"availableCredit,omitempty"` // Set for shared-limit pool members
	LimitExceeded     bool             `json:"limitExceeded"`             // Informational warning, never fatal
	AsOf              time.Time        `json:"asOf"`
}

// CashbackResult is the output of the cashback cycle calculator for one
// account and cycle.
type CashbackResult struct {
	AccountID     string          `json:"accountID"`
	Cycle         Cycle           `json:"cycle"`
	EligibleSpend decimal.Decimal `json:"eligibleSpend"`
	Earned        decimal.Decimal `json:"earned"`
}

// NetOwed is the output of the debt ledger for one person or group. Amount is
// positive when the person owes the tenant user. Surplus carries any
// over-repayment that the configured policy did not absorb into Amount.
type NetOwed struct {
	PersonID string          `json:"personID"`
	Amount   decimal.Decimal `json:"amount"`
	Surplus  decimal.Decimal `json:"surplus"`
}
