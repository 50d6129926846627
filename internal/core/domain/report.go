package domain

import "time"

// TargetType distinguishes the two kinds of reconciliation targets.
type TargetType string

const (
	TargetAccount TargetType = "account"
	TargetPerson  TargetType = "person"
)

// Target identifies one reconciliation target. It is the key for mutual
// exclusion: at most one recomputation runs per target at a time.
type Target struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id"`
}

// RunState is the orchestrator's per-target state machine.
type RunState string

const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunCommitted RunState = "committed"
	RunFailed    RunState = "failed"
)

// Outcome records the result of one target's recomputation within a run.
type Outcome struct {
	Target      Target          `json:"target"`
	State       RunState        `json:"state"` // committed or failed
	Balance     *Balance        `json:"balance,omitempty"`
	Cashback    *CashbackResult `json:"cashback,omitempty"`
	NetOwed     *NetOwed        `json:"netOwed,omitempty"`
	Err         string          `json:"error,omitempty"`
	CompletedAt time.Time       `json:"completedAt"`
}

// Report aggregates per-target outcomes of a fan-out recomputation. Failures
// are collected individually; sibling targets are never aborted.
type Report struct {
	Outcomes  map[Target]Outcome `json:"-"`
	StartedAt time.Time          `json:"startedAt"`
	EndedAt   time.Time          `json:"endedAt"`
}

// Failed returns the outcomes that did not commit.
func (r *Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.State != RunCommitted {
			failed = append(failed, o)
		}
	}
	return failed
}
