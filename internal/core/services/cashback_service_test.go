package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/fintrackr/recon_engine/internal/apperrors"
	"github.com/fintrackr/recon_engine/internal/core/domain"
	"github.com/fintrackr/recon_engine/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type CashbackServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	mockPersonRepo  *MockPersonRepository
	mockTxnRepo     *MockTransactionRepository
	service         *services.CashbackService

	cycle domain.Cycle
}

func (suite *CashbackServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockPersonRepo = new(MockPersonRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.service = services.NewCashbackService(suite.mockAccountRepo, suite.mockPersonRepo, suite.mockTxnRepo, services.NewNormalizer())
	suite.cycle = domain.Cycle{
		Start: time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC),
	}
}

// cashbackAccount is configured with a 2% rate, a 500k per-cycle cap and a 3M
// all-or-nothing minimum spend.
func cashbackAccount() *domain.Account {
	rate := decimal.RequireFromString("0.02")
	maxEarn := decimal.RequireFromString("500000")
	minSpend := decimal.RequireFromString("3000000")
	return &domain.Account{
		AccountID:        testAccountID,
		UserID:           testUserID,
		CashbackEligible: true,
		CashbackRate:     &rate,
		CashbackMax:      &maxEarn,
		CashbackMinSpend: &minSpend,
		CycleType:        domain.CycleMonthly,
		StatementDay:     15,
	}
}

func (suite *CashbackServiceTestSuite) eligibleExpense(id, amount string, day int) domain.Transaction {
	txn := clearedTxn(id, domain.TypeExpense, amount)
	txn.Date = time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)
	txn.IsCashbackEligible = true
	return txn
}

func (suite *CashbackServiceTestSuite) expectCycleReads(account *domain.Account, txns []domain.Transaction) {
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, testAccountID).Return(account, nil)
	suite.mockTxnRepo.On("ListTransactionsByAccount", mock.Anything, testUserID, testAccountID, suite.cycle.Start, suite.cycle.End).
		Return(txns, nil)
	suite.mockAccountRepo.On("ListAccountsByUser", mock.Anything, testUserID).Return([]domain.Account{*account}, nil)
	suite.mockPersonRepo.On("ListPersonsByUser", mock.Anything, testUserID).Return([]domain.Person{}, nil)
}

func (suite *CashbackServiceTestSuite) TestComputeCashback_ThresholdMetEarnsRate() {
	account := cashbackAccount()
	suite.expectCycleReads(account, []domain.Transaction{
		suite.eligibleExpense("t1", "3000000", 16),
		suite.eligibleExpense("t2", "200000", 20),
	})

	result, err := suite.service.ComputeCashback(context.Background(), testUserID, testAccountID, suite.cycle)

	suite.Require().NoError(err)
	suite.True(d("3200000").Equal(result.EligibleSpend), "got %s", result.EligibleSpend)
	suite.True(d("64000").Equal(result.Earned), "got %s", result.Earned)
}

func (suite *CashbackServiceTestSuite) TestComputeCashback_ExactThresholdEarnsFullValue() {
	account := cashbackAccount()
	suite.expectCycleReads(account, []domain.Transaction{
		suite.eligibleExpense("t1", "3000000", 16),
	})

	result, err := suite.service.ComputeCashback(context.Background(), testUserID, testAccountID, suite.cycle)

	suite.Require().NoError(err)
	suite.True(d("60000").Equal(result.Earned), "got %s", result.Earned)
}

func (suite *CashbackServiceTestSuite) TestComputeCashback_BelowThresholdEarnsNothing() {
	account := cashbackAccount()
	suite.expectCycleReads(account, []domain.Transaction{
		suite.eligibleExpense("t1", "2999999", 16),
	})

	result, err := suite.service.ComputeCashback(context.Background(), testUserID, testAccountID, suite.cycle)

	suite.Require().NoError(err)
	suite.True(d("2999999").Equal(result.EligibleSpend))
	suite.True(result.Earned.IsZero(), "threshold is all-or-nothing, got %s", result.Earned)
}

func (suite *CashbackServiceTestSuite) TestComputeCashback_CapClampsEarned() {
	account := cashbackAccount()
	suite.expectCycleReads(account, []domain.Transaction{
		suite.eligibleExpense("t1", "30000000", 16),
	})

	result, err := suite.service.ComputeCashback(context.Background(), testUserID, testAccountID, suite.cycle)

	suite.Require().NoError(err)
	// 2% of 30M is 600k; the per-cycle cap holds it at 500k.
	suite.True(d("500000").Equal(result.Earned), "got %s", result.Earned)
}

func (suite *CashbackServiceTestSuite) TestComputeCashback_ExcludesIneligibleAndOutOfCycle() {
	account := cashbackAccount()

	ineligible := suite.eligibleExpense("t-ineligible", "5000000", 16)
	ineligible.IsCashbackEligible = false

	income := clearedTxn("t-income", domain.TypeIncome, "4000000")
	income.Date = suite.cycle.Start
	income.IsCashbackEligible = true

	atEnd := suite.eligibleExpense("t-at-end", "4000000", 16)
	atEnd.Date = suite.cycle.End // belongs to the next cycle

	inCycle := suite.eligibleExpense("t-in", "3500000", 20)

	suite.expectCycleReads(account, []domain.Transaction{ineligible, income, atEnd, inCycle})

	result, err := suite.service.ComputeCashback(context.Background(), testUserID, testAccountID, suite.cycle)

	suite.Require().NoError(err)
	suite.True(d("3500000").Equal(result.EligibleSpend), "got %s", result.EligibleSpend)
	suite.True(d("70000").Equal(result.Earned), "got %s", result.Earned)
}

func (suite *CashbackServiceTestSuite) TestComputeCashback_UnconfiguredShortCircuits() {
	account := &domain.Account{AccountID: testAccountID, UserID: testUserID}
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, testAccountID).Return(account, nil)

	result, err := suite.service.ComputeCashback(context.Background(), testUserID, testAccountID, suite.cycle)

	suite.Require().NoError(err)
	suite.True(result.EligibleSpend.IsZero())
	suite.True(result.Earned.IsZero())
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "ListTransactionsByAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CashbackServiceTestSuite) TestComputeCashback_CrossTenantReturnsNotFound() {
	account := &domain.Account{AccountID: testAccountID, UserID: otherUserID}
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, testAccountID).Return(account, nil)

	result, err := suite.service.ComputeCashback(context.Background(), testUserID, testAccountID, suite.cycle)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(result)
}

func (suite *CashbackServiceTestSuite) TestCycleFor_UsesAccountConfiguration() {
	account := cashbackAccount()
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, testAccountID).Return(account, nil)

	cycle, err := suite.service.CycleFor(context.Background(), testAccountID, time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC))

	suite.Require().NoError(err)
	suite.Equal(suite.cycle, cycle)
}

func (suite *CashbackServiceTestSuite) TestCycleFor_InvalidConfigIsValidationError() {
	account := &domain.Account{AccountID: testAccountID, UserID: testUserID, CycleType: domain.CycleMonthly, StatementDay: 0}
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, testAccountID).Return(account, nil)

	_, err := suite.service.CycleFor(context.Background(), testAccountID, time.Now())

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestCashbackServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CashbackServiceTestSuite))
}
