package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/fintrackr/recon_engine/internal/apperrors"
	"github.com/fintrackr/recon_engine/internal/core/domain"
	"github.com/fintrackr/recon_engine/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type BalanceServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	mockPersonRepo  *MockPersonRepository
	mockTxnRepo     *MockTransactionRepository
	service         *services.BalanceService
}

func (suite *BalanceServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockPersonRepo = new(MockPersonRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.service = services.NewBalanceService(suite.mockAccountRepo, suite.mockPersonRepo, suite.mockTxnRepo, services.NewNormalizer())
}

func (suite *BalanceServiceTestSuite) expectTenantData(accounts []domain.Account, people []domain.Person) {
	suite.mockAccountRepo.On("ListAccountsByUser", mock.Anything, testUserID).Return(accounts, nil)
	suite.mockPersonRepo.On("ListPersonsByUser", mock.Anything, testUserID).Return(people, nil)
}

func (suite *BalanceServiceTestSuite) TestAccumulate_FoldsSignedEntries() {
	ctx := context.Background()
	asOf := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	account := &domain.Account{AccountID: testAccountID, UserID: testUserID}

	voided := clearedTxn("t3", domain.TypeExpense, "999999")
	voided.Status = domain.StatusVoided

	txns := []domain.Transaction{
		clearedTxn("t1", domain.TypeExpense, "50000"),
		clearedTxn("t2", domain.TypeIncome, "120000"),
		voided,
	}

	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, testAccountID).Return(account, nil)
	suite.mockTxnRepo.On("ListTransactionsByAccount", mock.Anything, testUserID, testAccountID, time.Time{}, asOf).Return(txns, nil)
	suite.expectTenantData([]domain.Account{*account}, nil)

	balance, err := suite.service.Accumulate(ctx, testUserID, testAccountID, asOf)

	suite.Require().NoError(err)
	suite.True(d("70000").Equal(balance.CalculatedBalance), "got %s", balance.CalculatedBalance)
	suite.Nil(balance.AvailableCredit)
	suite.False(balance.LimitExceeded)
	suite.Equal(asOf, balance.AsOf)

	// Same inputs, same output: accumulation is idempotent.
	again, err := suite.service.Accumulate(ctx, testUserID, testAccountID, asOf)
	suite.Require().NoError(err)
	suite.True(balance.CalculatedBalance.Equal(again.CalculatedBalance))
}

func (suite *BalanceServiceTestSuite) TestAccumulate_KeepsOnlyThisAccountsTransferLeg() {
	ctx := context.Background()
	asOf := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	source := domain.Account{AccountID: testAccountID, UserID: testUserID}
	destination := domain.Account{AccountID: destAccountID, UserID: testUserID}

	transfer := clearedTxn("t-transfer", domain.TypeTransfer, "300000")
	transfer.ToAccountID = destAccountID
	transfer.FeeAmount = d("1000")

	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, testAccountID).Return(&source, nil)
	suite.mockTxnRepo.On("ListTransactionsByAccount", mock.Anything, testUserID, testAccountID, time.Time{}, asOf).
		Return([]domain.Transaction{transfer}, nil)
	suite.expectTenantData([]domain.Account{source, destination}, nil)

	balance, err := suite.service.Accumulate(ctx, testUserID, testAccountID, asOf)

	suite.Require().NoError(err)
	suite.True(d("-301000").Equal(balance.CalculatedBalance), "only the source leg counts here, got %s", balance.CalculatedBalance)
}

func (suite *BalanceServiceTestSuite) TestAccumulate_SharedLimitPoolAvailableCredit() {
	ctx := context.Background()
	asOf := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	limit := d("10000000")

	root := domain.Account{
		AccountID:      "acc-root",
		UserID:         testUserID,
		SharedLimit:    true,
		CreditLimit:    &limit,
		CurrentBalance: d("-2000000"),
	}
	leaf := domain.Account{
		AccountID:       "acc-leaf",
		UserID:          testUserID,
		SharedLimit:     true,
		ParentAccountID: "acc-root",
	}
	sibling := domain.Account{
		AccountID:       "acc-sibling",
		UserID:          testUserID,
		SharedLimit:     true,
		ParentAccountID: "acc-root",
		CurrentBalance:  d("-1000000"),
	}

	spend := clearedTxn("t-spend", domain.TypeExpense, "3000000")
	spend.AccountID = "acc-leaf"

	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, "acc-leaf").Return(&leaf, nil)
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, "acc-root").Return(&root, nil)
	suite.mockAccountRepo.On("FindAccountsByParent", mock.Anything, "acc-root").
		Return([]domain.Account{leaf, sibling}, nil)
	suite.mockTxnRepo.On("ListTransactionsByAccount", mock.Anything, testUserID, "acc-leaf", time.Time{}, asOf).
		Return([]domain.Transaction{spend}, nil)
	suite.expectTenantData([]domain.Account{root, leaf, sibling}, nil)

	balance, err := suite.service.Accumulate(ctx, testUserID, "acc-leaf", asOf)

	suite.Require().NoError(err)
	suite.True(d("-3000000").Equal(balance.CalculatedBalance))
	suite.Require().NotNil(balance.AvailableCredit)
	// 10M limit - (2M root + 1M sibling + 3M fresh leaf spend)
	suite.True(d("4000000").Equal(*balance.AvailableCredit), "got %s", balance.AvailableCredit)
	suite.False(balance.LimitExceeded)
}

func (suite *BalanceServiceTestSuite) TestAccumulate_LimitBreachIsWarningNotError() {
	ctx := context.Background()
	asOf := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	limit := d("1000000")

	account := domain.Account{
		AccountID:   testAccountID,
		UserID:      testUserID,
		CreditLimit: &limit,
	}

	spend := clearedTxn("t-overspend", domain.TypeExpense, "1500000")

	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, testAccountID).Return(&account, nil)
	suite.mockTxnRepo.On("ListTransactionsByAccount", mock.Anything, testUserID, testAccountID, time.Time{}, asOf).
		Return([]domain.Transaction{spend}, nil)
	suite.expectTenantData([]domain.Account{account}, nil)

	balance, err := suite.service.Accumulate(ctx, testUserID, testAccountID, asOf)

	suite.Require().NoError(err)
	suite.True(balance.LimitExceeded)
	suite.Require().NotNil(balance.AvailableCredit)
	suite.True(d("-500000").Equal(*balance.AvailableCredit), "got %s", balance.AvailableCredit)
}

func (suite *BalanceServiceTestSuite) TestAccumulate_CrossTenantReturnsNotFound() {
	ctx := context.Background()
	account := &domain.Account{AccountID: testAccountID, UserID: otherUserID}

	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, testAccountID).Return(account, nil)

	balance, err := suite.service.Accumulate(ctx, testUserID, testAccountID, time.Now())

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(balance)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "ListTransactionsByAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BalanceServiceTestSuite) TestAccumulate_SkipsMalformedTransactions() {
	ctx := context.Background()
	asOf := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	account := &domain.Account{AccountID: testAccountID, UserID: testUserID}

	good := clearedTxn("t-good", domain.TypeIncome, "5000")
	dangling := clearedTxn("t-dangling", domain.TypeExpense, "70000")
	dangling.PersonID = "person-missing"

	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, testAccountID).Return(account, nil)
	suite.mockTxnRepo.On("ListTransactionsByAccount", mock.Anything, testUserID, testAccountID, time.Time{}, asOf).
		Return([]domain.Transaction{good, dangling}, nil)
	suite.expectTenantData([]domain.Account{*account}, nil)

	balance, err := suite.service.Accumulate(ctx, testUserID, testAccountID, asOf)

	suite.Require().NoError(err)
	suite.True(d("5000").Equal(balance.CalculatedBalance), "malformed row skipped, got %s", balance.CalculatedBalance)
}

func TestBalanceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BalanceServiceTestSuite))
}
