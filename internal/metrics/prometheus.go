package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Correlation metrics
	QuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fiatrouter_quotes_total",
			Help: "Peer replies processed by the correlator",
		},
		[]string{"outcome"}, // outcome: not_a_quote|no_match|matched
	)

	QuoteFanOut = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fiatrouter_quote_fanout",
			Help:    "Pending requests resolved by a single matched quote",
			Buckets: []float64{1, 2, 3, 5, 10, 25},
		},
	)

	PriceLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fiatrouter_price_lookups_total",
			Help: "Price lookups sent to the peer agent",
		},
		[]string{"status"}, // status: sent|failed
	)

	PurgedRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fiatrouter_purged_requests_total",
			Help: "Pending requests removed after a failed price lookup",
		},
	)

	Completions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fiatrouter_completions_total",
			Help: "Completion handler invocations",
		},
		[]string{"kind", "status"}, // status: success|fallback|error
	)

	PendingRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fiatrouter_pending_requests",
			Help: "Pending requests waiting for a quote",
		},
		[]string{"kind"},
	)

	PendingOldestAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fiatrouter_pending_oldest_age_seconds",
			Help: "Age of the oldest pending request",
		},
	)

	// Inbox metrics
	InboxMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fiatrouter_inbox_messages_total",
			Help: "Messages consumed from the agent inbox",
		},
		[]string{"type", "status"}, // status: success|error
	)

	HandlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fiatrouter_handler_duration_seconds",
			Help:    "Inbox message handling latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"type"},
	)

	// Analyst metrics
	AnalystCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fiatrouter_analyst_calls_total",
			Help: "Analyst invocations",
		},
		[]string{"operation", "status"}, // status: success|error
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fiatrouter_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fiatrouter_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fiatrouter_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Transport metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fiatrouter_kafka_messages_total",
			Help: "Kafka messages produced and consumed",
		},
		[]string{"direction", "status"}, // direction: in|out
	)
)

var initOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			QuotesTotal,
			QuoteFanOut,
			PriceLookups,
			PurgedRequests,
			Completions,
			PendingRequests,
			PendingOldestAge,
			InboxMessages,
			HandlerDuration,
			AnalystCalls,
			WorkerExecutions,
			WorkerDuration,
			WorkerLastRun,
			KafkaMessages,
		)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	WorkerExecutions.WithLabelValues(worker, status(err)).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordInboxMessage records one handled inbox message
func RecordInboxMessage(msgType string, duration time.Duration, err error) {
	InboxMessages.WithLabelValues(msgType, status(err)).Inc()
	HandlerDuration.WithLabelValues(msgType).Observe(duration.Seconds())
}

// RecordAnalystCall records an analyst invocation
func RecordAnalystCall(operation string, err error) {
	AnalystCalls.WithLabelValues(operation, status(err)).Inc()
}

// RecordKafkaMessage records a produced (out) or consumed (in) message
func RecordKafkaMessage(direction string, err error) {
	KafkaMessages.WithLabelValues(direction, status(err)).Inc()
}
