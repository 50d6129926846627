package services

import (
	"context"
	"time"

	"github.com/fintrackr/recon_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceReaderSvc exposes derived balances to callers. BalanceView pairs the
// last committed value with a staleness flag so callers never receive a
// silently wrong number.
type BalanceReaderSvc interface {
	GetBalance(ctx context.Context, userID, accountID string) (*BalanceView, error)
}

// BalanceView is the caller-facing balance read.
type BalanceView struct {
	AccountID         string          `json:"accountID"`
	CurrentBalance    decimal.Decimal `json:"currentBalance"`    // Last committed materialized value
	CalculatedBalance decimal.Decimal `json:"calculatedBalance"` // Freshly derived value
	Stale             bool            `json:"stale"`             // True if the last recompute for this account failed
	LastReconciledAt  *time.Time      `json:"lastReconciledAt,omitempty"`
}

// CashbackSvc exposes per-cycle cashback computation.
type CashbackSvc interface {
	ComputeCashback(ctx context.Context, userID, accountID string, cycle domain.Cycle) (*domain.CashbackResult, error)
	CycleFor(ctx context.Context, accountID string, at time.Time) (domain.Cycle, error)
}

// DebtSvc exposes per-person net owed reconciliation.
type DebtSvc interface {
	Reconcile(ctx context.Context, userID, personID string) (*domain.NetOwed, error)
}

// ReconcilerSvc is the orchestrator's caller-facing surface.
type ReconcilerSvc interface {
	// RecomputeAccount recomputes and writes back one account's derived
	// fields. Returns apperrors.ErrAlreadyRunning when a recomputation for the
	// same account is in flight.
	RecomputeAccount(ctx context.Context, userID, accountID string) (*domain.Outcome, error)

	// RecomputePerson recomputes and writes back one person's credit balance.
	RecomputePerson(ctx context.Context, userID, personID string) (*domain.Outcome, error)

	// RecomputeAll fans out per-account and per-person jobs for the tenant and
	// aggregates outcomes, tolerating partial failure.
	RecomputeAll(ctx context.Context, userID string) (*domain.Report, error)
}
