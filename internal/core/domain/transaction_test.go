package domain_test

import (
	"testing"

	"github.com/fintrackr/recon_engine/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeFinalAmount(t *testing.T) {
	testCases := []struct {
		name            string
		amount          string
		fee             string
		discountFixed   string
		discountPercent string
		expected        string
	}{
		{name: "plain amount", amount: "100000", fee: "0", discountFixed: "0", discountPercent: "0", expected: "100000"},
		{name: "fee deducted", amount: "100000", fee: "1100", discountFixed: "0", discountPercent: "0", expected: "98900"},
		{name: "fixed discount", amount: "100000", fee: "0", discountFixed: "20000", discountPercent: "0", expected: "80000"},
		{name: "percent discount", amount: "100000", fee: "0", discountFixed: "0", discountPercent: "10", expected: "90000"},
		{name: "both discounts apply to original amount", amount: "100000", fee: "0", discountFixed: "20000", discountPercent: "10", expected: "70000"},
		{name: "fee and discounts combined", amount: "200000", fee: "5000", discountFixed: "10000", discountPercent: "5", expected: "175000"},
		{name: "zero amount", amount: "0", fee: "0", discountFixed: "0", discountPercent: "0", expected: "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			txn := domain.Transaction{
				Amount:          d(tc.amount),
				FeeAmount:       d(tc.fee),
				DiscountFixed:   d(tc.discountFixed),
				DiscountPercent: d(tc.discountPercent),
			}
			assert.True(t, d(tc.expected).Equal(txn.ComputeFinalAmount()),
				"expected %s, got %s", tc.expected, txn.ComputeFinalAmount())
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	base := domain.Transaction{
		TransactionID: "txn-1",
		AccountID:     "acc-1",
		Type:          domain.TypeExpense,
		Status:        domain.StatusCleared,
		Amount:        d("100"),
	}

	testCases := []struct {
		name    string
		mutate  func(*domain.Transaction)
		wantErr string
	}{
		{name: "valid expense", mutate: func(*domain.Transaction) {}},
		{
			name:    "unknown type",
			mutate:  func(txn *domain.Transaction) { txn.Type = "refund" },
			wantErr: "unknown transaction type",
		},
		{
			name:    "negative expense amount",
			mutate:  func(txn *domain.Transaction) { txn.Amount = d("-5") },
			wantErr: "amount must be non-negative",
		},
		{
			name: "transfer without destination",
			mutate: func(txn *domain.Transaction) {
				txn.Type = domain.TypeTransfer
			},
			wantErr: "requires a destination account",
		},
		{
			name: "transfer to itself",
			mutate: func(txn *domain.Transaction) {
				txn.Type = domain.TypeTransfer
				txn.ToAccountID = txn.AccountID
			},
			wantErr: "source and destination must differ",
		},
		{
			name: "valid transfer",
			mutate: func(txn *domain.Transaction) {
				txn.Type = domain.TypeTransfer
				txn.ToAccountID = "acc-2"
			},
		},
		{
			name:    "negative fee",
			mutate:  func(txn *domain.Transaction) { txn.FeeAmount = d("-1") },
			wantErr: "fee amount must be non-negative",
		},
		{
			name:    "negative fixed discount",
			mutate:  func(txn *domain.Transaction) { txn.DiscountFixed = d("-1") },
			wantErr: "fixed discount must be non-negative",
		},
		{
			name:    "percent discount above 100",
			mutate:  func(txn *domain.Transaction) { txn.DiscountPercent = d("100.01") },
			wantErr: "percent discount must be within 0..100",
		},
		{
			name: "adjustment may be negative",
			mutate: func(txn *domain.Transaction) {
				txn.Type = domain.TypeAdjustment
				txn.Amount = d("-250")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			txn := base
			tc.mutate(&txn)
			err := txn.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.wantErr)
			}
		})
	}
}

func TestIsTemplate(t *testing.T) {
	template := domain.Transaction{IsRecurring: true, Run: false}
	instance := domain.Transaction{IsRecurring: true, Run: true}
	plain := domain.Transaction{}

	assert.True(t, template.IsTemplate())
	assert.False(t, instance.IsTemplate())
	assert.False(t, plain.IsTemplate())
}
