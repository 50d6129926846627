package models

import "github.com/shopspring/decimal"

// Account mirrors the accounts table.
type Account struct {
	AccountID         string           `db:"account_id"`
	UserID            string           `db:"user_id"`
	Name              string           `db:"name"`
	AccountTypeID     string           `db:"account_type_id"`
	CurrentBalance    decimal.Decimal  `db:"current_balance"`
	CreditLimit       *decimal.Decimal `db:"credit_limit"`
	SharedLimit       bool             `db:"shared_limit"`
	ParentAccountID   string           `db:"parent_account_id"`
	CashbackEligible  bool             `db:"cashback_eligible"`
	CashbackRate      *decimal.Decimal `db:"cashback_rate"`
	CashbackMax       *decimal.Decimal `db:"cashback_max"`
	CashbackMinSpend  *decimal.Decimal `db:"cashback_min_spend"`
	CashbackEarned    decimal.Decimal  `db:"cashback_earned"`
	CycleType         string           `db:"cycle_type"`
	StatementDay      int              `db:"statement_day"`
	Currency          string           `db:"currency"`
	IsActive          bool             `db:"is_active"`
	ExcludeFromTotals bool             `db:"exclude_from_totals"`
	Version           int64            `db:"version"`
	AuditFields
}
