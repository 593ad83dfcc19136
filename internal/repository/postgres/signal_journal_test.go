package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiatrouter/internal/domain/journal"
	"fiatrouter/internal/testsupport"
)

func newTestRepository(t *testing.T) *SignalJournalRepository {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewSignalJournalRepository(testDB.Tx())
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestSignalJournalRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	for i, sig := range []string{"BUY", "HOLD"} {
		err := repo.Create(ctx, &journal.SignalEntry{
			ID:            uuid.New(),
			Requester:     "agent1trader",
			Token:         "SOL",
			Signal:        sig,
			Percent:       decimal.NewFromInt(10),
			ProvidedPrice: decimal.NewFromFloat(149.5),
			QuotedPrice:   decimal.NewFromFloat(150.25),
			EntryPrice:    decimal.NewFromInt(120),
			Holdings:      decimal.NewFromInt(3),
			Analysis:      "price above moving average",
			CreatedAt:     now.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	entries, err := repo.GetByToken(ctx, "SOL", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "HOLD", entries[0].Signal, "newest first")
	assert.True(t, decimal.NewFromFloat(150.25).Equal(entries[0].QuotedPrice))

	entries, err = repo.GetByToken(ctx, "ETH", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSignalJournalRepository_GetStats(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, fallback := range []bool{false, true, true} {
		require.NoError(t, repo.Create(ctx, &journal.SignalEntry{
			ID:        uuid.New(),
			Requester: "agent1trader",
			Token:     "ETH",
			Signal:    "HOLD",
			Fallback:  fallback,
			CreatedAt: time.Now().UTC(),
		}))
	}

	stats, err := repo.GetStats(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, stats)

	var eth *journal.SignalStats
	for i := range stats {
		if stats[i].Token == "ETH" && stats[i].Signal == "HOLD" {
			eth = &stats[i]
		}
	}
	require.NotNil(t, eth)
	assert.Equal(t, 3, eth.Total)
	assert.Equal(t, 2, eth.Fallbacks)
}
