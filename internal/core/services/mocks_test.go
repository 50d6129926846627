package services_test

import (
	"context"
	"time"

	"github.com/fintrackr/recon_engine/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock type for the AccountRepository interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByParent(ctx context.Context, parentAccountID string) ([]domain.Account, error) {
	args := m.Called(ctx, parentAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateBalanceCAS(ctx context.Context, accountID string, expectedVersion int64, balance decimal.Decimal, cashbackEarned decimal.Decimal, now time.Time) error {
	args := m.Called(ctx, accountID, expectedVersion, balance, cashbackEarned, now)
	return args.Error(0)
}

// MockPersonRepository is a mock type for the PersonRepository interface
type MockPersonRepository struct {
	mock.Mock
}

func (m *MockPersonRepository) FindPersonByID(ctx context.Context, personID string) (*domain.Person, error) {
	args := m.Called(ctx, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Person), args.Error(1)
}

func (m *MockPersonRepository) ListGroupMembers(ctx context.Context, groupID string) ([]domain.Person, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Person), args.Error(1)
}

func (m *MockPersonRepository) ListPersonsByUser(ctx context.Context, userID string) ([]domain.Person, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Person), args.Error(1)
}

func (m *MockPersonRepository) UpdateCreditBalanceCAS(ctx context.Context, personID string, expectedVersion int64, creditBalance decimal.Decimal, now time.Time) error {
	args := m.Called(ctx, personID, expectedVersion, creditBalance, now)
	return args.Error(0)
}

// MockTransactionRepository is a mock type for the TransactionReader interface
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) ListTransactionsByAccount(ctx context.Context, userID, accountID string, from, to time.Time) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID, accountID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactionsByPerson(ctx context.Context, userID, personID string) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}
