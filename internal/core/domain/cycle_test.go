package domain_test

import (
	"testing"
	"time"

	"github.com/fintrackr/recon_engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestCycleContaining(t *testing.T) {
	testCases := []struct {
		name         string
		at           time.Time
		statementDay int
		wantStart    time.Time
		wantEnd      time.Time
	}{
		{
			name:         "mid cycle",
			at:           date(2026, time.March, 20),
			statementDay: 15,
			wantStart:    date(2026, time.March, 15),
			wantEnd:      date(2026, time.April, 15),
		},
		{
			name:         "before statement day falls into previous cycle",
			at:           date(2026, time.March, 10),
			statementDay: 15,
			wantStart:    date(2026, time.February, 15),
			wantEnd:      date(2026, time.March, 15),
		},
		{
			name:         "on statement day starts the new cycle",
			at:           date(2026, time.March, 15),
			statementDay: 15,
			wantStart:    date(2026, time.March, 15),
			wantEnd:      date(2026, time.April, 15),
		},
		{
			name:         "statement day 31 clamps to February end",
			at:           date(2026, time.February, 10),
			statementDay: 31,
			wantStart:    date(2026, time.January, 31),
			wantEnd:      date(2026, time.February, 28),
		},
		{
			name:         "leap February clamps to the 29th",
			at:           date(2028, time.February, 29),
			statementDay: 31,
			wantStart:    date(2028, time.February, 29),
			wantEnd:      date(2028, time.March, 31),
		},
		{
			name:         "year boundary",
			at:           date(2026, time.January, 3),
			statementDay: 10,
			wantStart:    date(2025, time.December, 10),
			wantEnd:      date(2026, time.January, 10),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cycle, err := domain.CycleContaining(tc.at, domain.CycleMonthly, tc.statementDay)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStart, cycle.Start)
			assert.Equal(t, tc.wantEnd, cycle.End)
			assert.True(t, cycle.Contains(tc.at))
		})
	}
}

func TestCycleContainingRejectsBadConfig(t *testing.T) {
	_, err := domain.CycleContaining(date(2026, time.March, 1), "weekly", 15)
	assert.ErrorContains(t, err, "unsupported cycle type")

	_, err = domain.CycleContaining(date(2026, time.March, 1), domain.CycleMonthly, 0)
	assert.ErrorContains(t, err, "out of range")

	_, err = domain.CycleContaining(date(2026, time.March, 1), domain.CycleMonthly, 32)
	assert.ErrorContains(t, err, "out of range")
}

func TestCycleHalfOpenBoundary(t *testing.T) {
	cycle, err := domain.CycleContaining(date(2026, time.March, 20), domain.CycleMonthly, 15)
	require.NoError(t, err)

	assert.True(t, cycle.Contains(cycle.Start), "start instant belongs to the cycle")
	assert.False(t, cycle.Contains(cycle.End), "end instant belongs to the next cycle")
	assert.True(t, cycle.Contains(cycle.End.Add(-time.Nanosecond)))

	next, err := cycle.Next(domain.CycleMonthly, 15)
	require.NoError(t, err)
	assert.True(t, next.Contains(cycle.End))
	assert.Equal(t, cycle.End, next.Start, "consecutive cycles tile without gap or overlap")

	previous, err := cycle.Previous(domain.CycleMonthly, 15)
	require.NoError(t, err)
	assert.Equal(t, cycle.Start, previous.End)
}
