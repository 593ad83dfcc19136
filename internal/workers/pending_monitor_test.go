package workers

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiatrouter/internal/domain/pending"
	"fiatrouter/internal/metrics"
)

func TestPendingMonitor_PublishesGauges(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := pending.NewMemoryStore()
	chat := pending.NewChatRequest("alice", "SOL", "price of SOL", 0)
	chat.CreatedAt = now.Add(-90 * time.Second)
	require.NoError(t, store.Put(ctx, chat))
	require.NoError(t, store.Put(ctx, pending.NewTradingRequest("bob", "SOL", 150, 0, 0, nil)))

	monitor := NewPendingMonitor(store, time.Minute, time.Minute)
	monitor.now = func() time.Time { return now }

	require.NoError(t, monitor.Run(ctx))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PendingRequests.WithLabelValues("chat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PendingRequests.WithLabelValues("trading")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.PendingOldestAge), 90.0)

	last := monitor.Last()
	assert.Equal(t, 2, last.Total)
	assert.Equal(t, "price_request_alice", last.OldestKey)

	// observing never removes anything
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPendingMonitor_EmptyStoreResetsGauges(t *testing.T) {
	monitor := NewPendingMonitor(pending.NewMemoryStore(), time.Minute, 0)

	require.NoError(t, monitor.Run(context.Background()))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PendingRequests.WithLabelValues("chat")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PendingOldestAge))
}
