package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fintrackr/recon_engine/internal/apperrors"
	"github.com/fintrackr/recon_engine/internal/core/domain"
	portsrepo "github.com/fintrackr/recon_engine/internal/core/ports/repositories"
	portssvc "github.com/fintrackr/recon_engine/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

const defaultWorkers = 4

// ReconciliationService coordinates the balance accumulator, cashback
// calculator and debt ledger behind a single Recompute entry point. It
// guarantees at most one concurrent recomputation per target; recomputations
// for distinct targets proceed independently.
type ReconciliationService struct {
	BaseService
	balances    *BalanceService
	cashback    *CashbackService
	debts       *DebtService
	accountRepo portsrepo.AccountRepository
	personRepo  portsrepo.PersonRepository

	workers      int
	storeTimeout time.Duration

	mu      sync.Mutex
	running map[domain.Target]struct{}
	last    map[domain.Target]domain.Outcome
}

// ReconOption is a functional option for configuring the reconciliation service.
type ReconOption func(*ReconciliationService)

// WithWorkers sets the fan-out worker pool size for RecomputeAll.
func WithWorkers(n int) ReconOption {
	return func(s *ReconciliationService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithStoreTimeout bounds store I/O per target. A timeout surfaces as
// ErrStoreUnavailable and leaves the target's last committed values untouched.
func WithStoreTimeout(d time.Duration) ReconOption {
	return func(s *ReconciliationService) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(
	balances *BalanceService,
	cashback *CashbackService,
	debts *DebtService,
	accountRepo portsrepo.AccountRepository,
	personRepo portsrepo.PersonRepository,
	options ...ReconOption,
) *ReconciliationService {
	svc := &ReconciliationService{
		balances:    balances,
		cashback:    cashback,
		debts:       debts,
		accountRepo: accountRepo,
		personRepo:  personRepo,
		workers:     defaultWorkers,
		running:     make(map[domain.Target]struct{}),
		last:        make(map[domain.Target]domain.Outcome),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure ReconciliationService implements the caller-facing interfaces.
var _ portssvc.ReconcilerSvc = (*ReconciliationService)(nil)
var _ portssvc.BalanceReaderSvc = (*ReconciliationService)(nil)

// tryAcquire marks the target as running. It reports false when a
// recomputation for the same target is already in flight.
func (s *ReconciliationService) tryAcquire(target domain.Target) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.running[target]; busy {
		return false
	}
	s.running[target] = struct{}{}
	return true
}

// release transitions the target out of Running and records its outcome.
func (s *ReconciliationService) release(target domain.Target, outcome domain.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, target)
	s.last[target] = outcome
}

// lastOutcome returns the most recent recorded outcome for the target.
func (s *ReconciliationService) lastOutcome(target domain.Target) (domain.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome, ok := s.last[target]
	return outcome, ok
}

// RecomputeAccount recomputes one account's calculated balance and current
// cycle cashback, then writes both back under optimistic concurrency.
func (s *ReconciliationService) RecomputeAccount(ctx context.Context, userID, accountID string) (*domain.Outcome, error) {
	target := domain.Target{Type: domain.TargetAccount, ID: accountID}
	if !s.tryAcquire(target) {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrAlreadyRunning, accountID)
	}

	outcome, err := s.runAccount(ctx, userID, accountID, target)
	s.release(target, outcome)
	return &outcome, err
}

// RecomputePerson recomputes one person's net owed balance and writes it back
// under optimistic concurrency.
func (s *ReconciliationService) RecomputePerson(ctx context.Context, userID, personID string) (*domain.Outcome, error) {
	target := domain.Target{Type: domain.TargetPerson, ID: personID}
	if !s.tryAcquire(target) {
		return nil, fmt.Errorf("%w: person %s", apperrors.ErrAlreadyRunning, personID)
	}

	outcome, err := s.runPerson(ctx, userID, personID, target)
	s.release(target, outcome)
	return &outcome, err
}

// RecomputeAll fans out per-account and per-person recomputations over a
// bounded worker pool and aggregates outcomes. Individual failures are
// collected; sibling targets are never aborted.
func (s *ReconciliationService) RecomputeAll(ctx context.Context, userID string) (*domain.Report, error) {
	accounts, err := s.accountRepo.ListAccountsByUser(ctx, userID)
	if err != nil {
		return nil, s.storeErr(ctx, fmt.Errorf("failed to list accounts for tenant: %w", err))
	}
	people, err := s.personRepo.ListPersonsByUser(ctx, userID)
	if err != nil {
		return nil, s.storeErr(ctx, fmt.Errorf("failed to list people for tenant: %w", err))
	}

	jobs := make([]domain.Target, 0, len(accounts)+len(people))
	for _, a := range accounts {
		jobs = append(jobs, domain.Target{Type: domain.TargetAccount, ID: a.AccountID})
	}
	for _, p := range people {
		jobs = append(jobs, domain.Target{Type: domain.TargetPerson, ID: p.PersonID})
	}

	report := &domain.Report{
		Outcomes:  make(map[domain.Target]domain.Outcome, len(jobs)),
		StartedAt: time.Now().UTC(),
	}

	var (
		wg       sync.WaitGroup
		reportMu sync.Mutex
	)
	jobCh := make(chan domain.Target)

	workers := s.workers
	if workers > len(jobs) && len(jobs) > 0 {
		workers = len(jobs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range jobCh {
				var outcome domain.Outcome
				if !s.tryAcquire(target) {
					outcome = domain.Outcome{
						Target:      target,
						State:       domain.RunFailed,
						Err:         apperrors.ErrAlreadyRunning.Error(),
						CompletedAt: time.Now().UTC(),
					}
				} else {
					if target.Type == domain.TargetAccount {
						outcome, _ = s.runAccount(ctx, userID, target.ID, target)
					} else {
						outcome, _ = s.runPerson(ctx, userID, target.ID, target)
					}
					s.release(target, outcome)
				}
				reportMu.Lock()
				report.Outcomes[target] = outcome
				reportMu.Unlock()
			}
		}()
	}

	for _, target := range jobs {
		jobCh <- target
	}
	close(jobCh)
	wg.Wait()

	report.EndedAt = time.Now().UTC()
	if failed := report.Failed(); len(failed) > 0 {
		s.LogWarn(ctx, "Recompute fan-out completed with failures",
			slog.Int("targets", len(jobs)),
			slog.Int("failed", len(failed)))
	} else {
		s.LogInfo(ctx, "Recompute fan-out completed", slog.Int("targets", len(jobs)))
	}
	return report, nil
}

// runAccount performs the compute-then-CAS cycle for one account. A stale
// write is retried exactly once with fresh reads; a second conflict fails the
// run. Cancellation aborts before the write-back, never mid-write.
func (s *ReconciliationService) runAccount(ctx context.Context, userID, accountID string, target domain.Target) (domain.Outcome, error) {
	outcome := domain.Outcome{Target: target, State: domain.RunRunning}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		balance, cashback, err := s.attemptAccount(ctx, userID, accountID)
		if err == nil {
			outcome.State = domain.RunCommitted
			outcome.Balance = balance
			outcome.Cashback = cashback
			outcome.CompletedAt = time.Now().UTC()
			s.LogInfo(ctx, "Account reconciliation committed",
				slog.String("account_id", accountID),
				slog.String("calculated_balance", balance.CalculatedBalance.String()))
			return outcome, nil
		}
		lastErr = err
		if !errors.Is(err, apperrors.ErrStaleWrite) {
			break
		}
		s.LogWarn(ctx, "Stale write during account reconciliation, retrying",
			slog.String("account_id", accountID),
			slog.Int("attempt", attempt+1))
	}

	if errors.Is(lastErr, apperrors.ErrStaleWrite) {
		lastErr = fmt.Errorf("%w: %v", apperrors.ErrReconciliationFailed, lastErr)
	}
	outcome.State = domain.RunFailed
	outcome.Err = lastErr.Error()
	outcome.CompletedAt = time.Now().UTC()
	s.LogError(ctx, lastErr, "Account reconciliation failed", slog.String("account_id", accountID))
	return outcome, lastErr
}

// attemptAccount reads a snapshot, computes the derived fields and attempts a
// single CAS write-back against the snapshot's row version.
func (s *ReconciliationService) attemptAccount(ctx context.Context, userID, accountID string) (*domain.Balance, *domain.CashbackResult, error) {
	ctx, cancel := s.withStoreBudget(ctx)
	defer cancel()

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, nil, s.storeErr(ctx, err)
	}
	if account.UserID != userID {
		return nil, nil, apperrors.ErrNotFound
	}
	snapshotVersion := account.Version

	now := time.Now().UTC()
	balance, err := s.balances.Accumulate(ctx, userID, accountID, now)
	if err != nil {
		return nil, nil, s.storeErr(ctx, err)
	}

	earned := decimal.Zero
	var cashback *domain.CashbackResult
	if account.CashbackConfigured() {
		cycle, err := domain.CycleContaining(now, account.CycleType, account.StatementDay)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cashback, err = s.cashback.ComputeCashback(ctx, userID, accountID, cycle)
		if err != nil {
			return nil, nil, s.storeErr(ctx, err)
		}
		earned = cashback.Earned
	}

	// Superseded runs must not write back; the check sits directly before the
	// CAS so a cancellation is all-or-nothing per target.
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("recomputation cancelled: %w", err)
	}

	if err := s.accountRepo.UpdateBalanceCAS(ctx, accountID, snapshotVersion, balance.CalculatedBalance, earned, now); err != nil {
		return nil, nil, s.storeErr(ctx, err)
	}
	return balance, cashback, nil
}

// runPerson performs the compute-then-CAS cycle for one person.
func (s *ReconciliationService) runPerson(ctx context.Context, userID, personID string, target domain.Target) (domain.Outcome, error) {
	outcome := domain.Outcome{Target: target, State: domain.RunRunning}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		netOwed, err := s.attemptPerson(ctx, userID, personID)
		if err == nil {
			outcome.State = domain.RunCommitted
			outcome.NetOwed = netOwed
			outcome.CompletedAt = time.Now().UTC()
			s.LogInfo(ctx, "Person reconciliation committed",
				slog.String("person_id", personID),
				slog.String("net_owed", netOwed.Amount.String()))
			return outcome, nil
		}
		lastErr = err
		if !errors.Is(err, apperrors.ErrStaleWrite) {
			break
		}
		s.LogWarn(ctx, "Stale write during person reconciliation, retrying",
			slog.String("person_id", personID),
			slog.Int("attempt", attempt+1))
	}

	if errors.Is(lastErr, apperrors.ErrStaleWrite) {
		lastErr = fmt.Errorf("%w: %v", apperrors.ErrReconciliationFailed, lastErr)
	}
	outcome.State = domain.RunFailed
	outcome.Err = lastErr.Error()
	outcome.CompletedAt = time.Now().UTC()
	s.LogError(ctx, lastErr, "Person reconciliation failed", slog.String("person_id", personID))
	return outcome, lastErr
}

func (s *ReconciliationService) attemptPerson(ctx context.Context, userID, personID string) (*domain.NetOwed, error) {
	ctx, cancel := s.withStoreBudget(ctx)
	defer cancel()

	person, err := s.personRepo.FindPersonByID(ctx, personID)
	if err != nil {
		return nil, s.storeErr(ctx, err)
	}
	if person.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	snapshotVersion := person.Version

	netOwed, err := s.debts.Reconcile(ctx, userID, personID)
	if err != nil {
		return nil, s.storeErr(ctx, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("recomputation cancelled: %w", err)
	}

	now := time.Now().UTC()
	if err := s.personRepo.UpdateCreditBalanceCAS(ctx, personID, snapshotVersion, netOwed.Amount, now); err != nil {
		return nil, s.storeErr(ctx, err)
	}
	return netOwed, nil
}

// GetBalance returns the last committed balance paired with a freshly derived
// value and a staleness flag. The flag is set when the most recent
// recomputation for the account failed, so callers never mistake a stale
// number for a reconciled one.
func (s *ReconciliationService) GetBalance(ctx context.Context, userID, accountID string) (*portssvc.BalanceView, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, apperrors.ErrNotFound
	}

	balance, err := s.balances.Accumulate(ctx, userID, accountID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	view := &portssvc.BalanceView{
		AccountID:         accountID,
		CurrentBalance:    account.CurrentBalance,
		CalculatedBalance: balance.CalculatedBalance,
	}
	if outcome, ok := s.lastOutcome(domain.Target{Type: domain.TargetAccount, ID: accountID}); ok {
		view.Stale = outcome.State != domain.RunCommitted
		completed := outcome.CompletedAt
		view.LastReconciledAt = &completed
	}
	return view, nil
}

// withStoreBudget bounds store I/O for one attempt when a timeout is
// configured.
func (s *ReconciliationService) withStoreBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

// storeErr maps deadline expiry to ErrStoreUnavailable. Other errors pass
// through untouched so sentinel matching keeps working upstream.
func (s *ReconciliationService) storeErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || (ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return err
}
