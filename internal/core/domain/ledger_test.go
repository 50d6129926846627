package domain_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/fintrackr/recon_engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestSortEntriesDeterministic(t *testing.T) {
	day1 := date(2026, time.May, 1)
	day2 := date(2026, time.May, 2)
	created1 := day1.Add(9 * time.Hour)
	created2 := day1.Add(10 * time.Hour)

	entries := []domain.LedgerEntry{
		{TransactionID: "c", OccurredAt: day2, CreatedAt: created1},
		{TransactionID: "b", OccurredAt: day1, CreatedAt: created2},
		{TransactionID: "a", OccurredAt: day1, CreatedAt: created2},
		{TransactionID: "d", OccurredAt: day1, CreatedAt: created1},
	}
	wantOrder := []string{"d", "a", "b", "c"}

	// Ordering must not depend on arrival order from the store.
	for i := 0; i < 10; i++ {
		shuffled := make([]domain.LedgerEntry, len(entries))
		copy(shuffled, entries)
		rand.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		domain.SortEntries(shuffled)

		got := make([]string, len(shuffled))
		for j, e := range shuffled {
			got[j] = e.TransactionID
		}
		assert.Equal(t, wantOrder, got)
	}
}
