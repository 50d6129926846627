package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction mirrors the transactions table.
type Transaction struct {
	TransactionID      string          `db:"transaction_id"`
	UserID             string          `db:"user_id"`
	AccountID          string          `db:"account_id"`
	ToAccountID        string          `db:"to_account_id"`
	Date               time.Time       `db:"date"`
	Type               string          `db:"type"`
	Status             string          `db:"status"`
	Amount             decimal.Decimal `db:"amount"`
	FeeAmount          decimal.Decimal `db:"fee_amount"`
	FinalAmount        decimal.Decimal `db:"final_amount"`
	CategoryID         string          `db:"category_id"`
	PersonID           string          `db:"person_id"`
	ShopID             string          `db:"shop_id"`
	Description        string          `db:"description"`
	Notes              string          `db:"notes"`
	Tags               []string        `db:"tags"`
	IsCashbackEligible bool            `db:"is_cashback_eligible"`
	DiscountPercent    decimal.Decimal `db:"discount_percent"`
	DiscountFixed      decimal.Decimal `db:"discount_fixed"`
	RepaymentTag       string          `db:"repayment_tag"`
	IsChecked          bool            `db:"is_checked"`
	IsRecurring        bool            `db:"is_recurring"`
	Run                bool            `db:"run"`
	AuditFields
}
