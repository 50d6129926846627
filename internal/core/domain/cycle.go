package domain

import (
	"fmt"
	"time"
)

// Cycle is a half-open statement interval [Start, End). A transaction dated
// exactly at End belongs to the following cycle.
type Cycle struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the cycle's half-open interval.
func (c Cycle) Contains(t time.Time) bool {
	return !t.Before(c.Start) && t.Before(c.End)
}

// statementAnchor returns the statement date for the given month, clamping the
// statement day to the month's last day (day 31 anchors at Feb 28/29).
func statementAnchor(year int, month time.Month, statementDay int, loc *time.Location) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	day := statementDay
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// CycleContaining derives the statement cycle that contains t for the given
// cycle configuration. Only monthly cycles are defined; the statement day
// anchors each period boundary.
func CycleContaining(t time.Time, cycleType CycleType, statementDay int) (Cycle, error) {
	if cycleType != CycleMonthly {
		return Cycle{}, fmt.Errorf("unsupported cycle type %q", cycleType)
	}
	if statementDay < 1 || statementDay > 31 {
		return Cycle{}, fmt.Errorf("statement day %d out of range 1..31", statementDay)
	}

	start := statementAnchor(t.Year(), t.Month(), statementDay, t.Location())
	if t.Before(start) {
		start = statementAnchor(t.Year(), t.Month()-1, statementDay, t.Location())
	}
	end := statementAnchor(start.Year(), start.Month()+1, statementDay, start.Location())
	return Cycle{Start: start, End: end}, nil
}

// Next returns the cycle immediately following c under the same configuration.
func (c Cycle) Next(cycleType CycleType, statementDay int) (Cycle, error) {
	return CycleContaining(c.End, cycleType, statementDay)
}

// Previous returns the cycle immediately preceding c under the same
// configuration.
func (c Cycle) Previous(cycleType CycleType, statementDay int) (Cycle, error) {
	return CycleContaining(c.Start.AddDate(0, 0, -1), cycleType, statementDay)
}
