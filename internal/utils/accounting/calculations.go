package accounting

import (
	"fmt"

	"github.com/fintrackr/recon_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedAmount applies the ledger sign convention to a non-transfer
// transaction's final amount. This is used by the normalizer and kept separate
// so services and tests share one source of truth for the convention:
//
//	expense            -> negative (money leaves the account)
//	income, repayment  -> positive (money enters the account)
//	adjustment         -> as given (amount may carry either sign)
func SignedAmount(txn domain.Transaction) (decimal.Decimal, error) {
	final := txn.FinalAmount
	switch txn.Type {
	case domain.TypeExpense:
		return final.Abs().Neg(), nil
	case domain.TypeIncome, domain.TypeRepayment:
		return final.Abs(), nil
	case domain.TypeAdjustment:
		return final, nil
	case domain.TypeTransfer:
		return decimal.Zero, fmt.Errorf("transfers split into two legs, use TransferLegs")
	default:
		return decimal.Zero, fmt.Errorf("unknown transaction type %q for transaction %s", txn.Type, txn.TransactionID)
	}
}

// TransferLegs computes the two signed legs of a transfer: the source is
// debited the transferred amount plus fee, the destination is credited the
// transferred amount. Fees and discounts stay on the source side.
func TransferLegs(txn domain.Transaction) (source, destination decimal.Decimal) {
	out := txn.Amount.Add(txn.FeeAmount).Abs()
	return out.Neg(), txn.Amount.Abs()
}
