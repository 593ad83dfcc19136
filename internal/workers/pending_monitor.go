package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"fiatrouter/internal/domain/pending"
	"fiatrouter/internal/metrics"
	"fiatrouter/pkg/errors"
)

// PendingMonitor publishes the size and age of the pending-request store.
// It only observes: requests never expire, however long they wait.
type PendingMonitor struct {
	*BaseWorker
	store      pending.Store
	staleAfter time.Duration
	now        func() time.Time

	mu   sync.RWMutex
	last pending.Summary
}

// NewPendingMonitor creates the monitor. Requests older than staleAfter are
// reported as warnings; zero disables the warning.
func NewPendingMonitor(store pending.Store, interval, staleAfter time.Duration) *PendingMonitor {
	return &PendingMonitor{
		BaseWorker: NewBaseWorker("pending_monitor", interval, true),
		store:      store,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Run takes one snapshot and updates the gauges
func (m *PendingMonitor) Run(ctx context.Context) error {
	reqs, err := m.store.GetAll(ctx)
	if err != nil {
		return errors.Wrap(err, "snapshot pending requests")
	}

	summary := pending.Summarize(reqs, m.now())
	for kind, n := range summary.ByKind {
		metrics.PendingRequests.WithLabelValues(string(kind)).Set(float64(n))
	}
	metrics.PendingOldestAge.Set(summary.OldestAge().Seconds())

	m.mu.Lock()
	m.last = summary
	m.mu.Unlock()

	if summary.Total == 0 {
		return nil
	}

	m.Log().Debugw("Pending requests",
		"total", summary.Total,
		"chat", summary.ByKind[pending.KindChat],
		"trading", summary.ByKind[pending.KindTrading],
		"oldest", humanize.RelTime(summary.Oldest, summary.TakenAt, "ago", "from now"),
	)

	if m.staleAfter > 0 && summary.OldestAge() > m.staleAfter {
		m.Log().Warnw("Pending request has waited a long time for a quote",
			"key", summary.OldestKey,
			"waiting_since", humanize.RelTime(summary.Oldest, summary.TakenAt, "ago", "from now"),
		)
	}
	return nil
}

// Last returns the most recent snapshot summary
func (m *PendingMonitor) Last() pending.Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}
