package redis

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiatrouter/internal/domain/pending"
	"fiatrouter/internal/testsupport"
)

func newTestStore(t *testing.T) *PendingStore {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	return NewPendingStore(testsupport.NewRedisClient(t))
}

func TestPendingStore_PutOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := pending.NewChatRequest("user-1", "sol", "price of sol", 0)
	second := pending.NewChatRequest("user-1", "eth", "price of eth", 20)
	require.NoError(t, store.Put(ctx, first))
	require.NoError(t, store.Put(ctx, second))
	assert.Greater(t, second.Generation, first.Generation)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ETH", all[0].Token)
	assert.Equal(t, 20.0, all[0].EntryPrice)
	assert.Equal(t, second.Generation, all[0].Generation)
	assert.Equal(t, "price of eth", all[0].Chat.OriginalQuery)
}

func TestPendingStore_SnapshotOrderAndPayload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, pending.NewTradingRequest("peer-b", "SOL", 149, 120, 3, []float64{140, 145})))
	require.NoError(t, store.Put(ctx, pending.NewChatRequest("peer-a", "SOL", "price of SOL", 0)))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "price_request_peer-a", all[0].Key())
	assert.Equal(t, "trading_request_peer-b", all[1].Key())
	assert.Equal(t, []float64{140, 145}, all[1].Trading.HistoricalPrices)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPendingStore_DeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	keep := pending.NewChatRequest("keep", "BTC", "", 0)
	drop := pending.NewChatRequest("drop", "BTC", "", 0)
	require.NoError(t, store.Put(ctx, keep))
	require.NoError(t, store.Put(ctx, drop))

	require.NoError(t, store.Delete(ctx, drop.Key()))
	require.NoError(t, store.Delete(ctx, drop.Key()))
	require.NoError(t, store.Delete(ctx, "price_request_never"))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.Key(), all[0].Key())
}

func TestPendingStore_DeleteIfGeneration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := pending.NewChatRequest("user", "SOL", "", 0)
	require.NoError(t, store.Put(ctx, old))
	staleGen := old.Generation

	fresh := pending.NewChatRequest("user", "ETH", "", 0)
	require.NoError(t, store.Put(ctx, fresh))

	deleted, err := store.DeleteIfGeneration(ctx, fresh.Key(), staleGen)
	require.NoError(t, err)
	assert.False(t, deleted, "stale generation must not remove the newer entry")

	deleted, err = store.DeleteIfGeneration(ctx, fresh.Key(), fresh.Generation)
	require.NoError(t, err)
	assert.True(t, deleted)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPendingStore_ConcurrentPuts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Put(ctx, pending.NewChatRequest("same", "SOL", "", 0)))
		}()
	}
	wg.Wait()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
