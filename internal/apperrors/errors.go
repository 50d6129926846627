package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrLimitExceeded indicates that spend against a shared credit limit exceeds the
// available credit. Informational only: reconciliation records the breach, it
// does not block the write-back.
var ErrLimitExceeded = errors.New("credit limit exceeded")

// ErrStaleWrite indicates a compare-and-swap write-back found the row changed
// since the read snapshot.
var ErrStaleWrite = errors.New("stale write: row version changed")

// ErrAlreadyRunning indicates a recomputation for the same target is already in
// flight. The caller should retry later; this is not an engine fault.
var ErrAlreadyRunning = errors.New("recomputation already in progress for target")

// ErrStoreUnavailable indicates the ledger store timed out or was unreachable.
// The target's last committed values remain authoritative.
var ErrStoreUnavailable = errors.New("ledger store unavailable")

// ErrReconciliationFailed indicates a recomputation could not commit after its
// bounded retry.
var ErrReconciliationFailed = errors.New("reconciliation failed")
