package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fiatrouter/internal/domain/journal"
	"fiatrouter/pkg/logger"
)

// JournalStatsSource provides aggregated signal journal statistics
type JournalStatsSource interface {
	Stats(ctx context.Context, since time.Time) ([]journal.SignalStats, error)
}

// JournalCollector exposes the last 24h of journaled signals at scrape time
type JournalCollector struct {
	log    *logger.Logger
	source JournalStatsSource
	window time.Duration

	signals   *prometheus.Desc
	fallbacks *prometheus.Desc
}

// NewJournalCollector creates a collector over the signal journal
func NewJournalCollector(log *logger.Logger, source JournalStatsSource) *JournalCollector {
	return &JournalCollector{
		log:    log,
		source: source,
		window: 24 * time.Hour,

		signals: prometheus.NewDesc(
			"fiatrouter_journal_signals_24h",
			"Final trading signals sent in the last 24h",
			[]string{"token", "signal"}, nil,
		),
		fallbacks: prometheus.NewDesc(
			"fiatrouter_journal_fallbacks_24h",
			"HOLD fallbacks sent in the last 24h because the generator failed",
			[]string{"token"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *JournalCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.signals
	ch <- c.fallbacks
}

// Collect implements prometheus.Collector
func (c *JournalCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := c.source.Stats(ctx, time.Now().Add(-c.window))
	if err != nil {
		c.log.Errorw("Failed to collect journal stats", "error", err)
		return
	}

	fallbacks := map[string]int{}
	for _, s := range stats {
		ch <- prometheus.MustNewConstMetric(c.signals, prometheus.GaugeValue, float64(s.Total), s.Token, s.Signal)
		fallbacks[s.Token] += s.Fallbacks
	}
	for token, n := range fallbacks {
		ch <- prometheus.MustNewConstMetric(c.fallbacks, prometheus.GaugeValue, float64(n), token)
	}
}

// RegisterCollector registers a custom collector
func RegisterCollector(collector prometheus.Collector) error {
	return prometheus.Register(collector)
}
