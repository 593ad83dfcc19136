// Package reconnect paces retries against a flaky dependency with exponential
// backoff and a circuit breaker.
package reconnect

import (
	"context"
	"sync"
	"time"

	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
)

// Manager tracks consecutive failures and decides how long to wait before the
// next attempt
type Manager struct {
	minBackoff        time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
	maxRetries        int
	circuitResetAfter time.Duration

	mu                  sync.RWMutex
	currentBackoff      time.Duration
	consecutiveFailures int
	totalRecoveries     int
	circuitOpen         bool
	circuitOpenedAt     time.Time

	now    func() time.Time
	logger *logger.Logger
}

// Config configures the manager. Zero fields take defaults.
type Config struct {
	MinBackoff        time.Duration // e.g. 1s
	MaxBackoff        time.Duration // e.g. 1min
	BackoffMultiplier float64       // e.g. 2.0
	MaxRetries        int           // consecutive failures before the circuit opens
	CircuitResetAfter time.Duration // pause once the circuit is open
}

// NewManager creates a new reconnect manager
func NewManager(config Config, log *logger.Logger) *Manager {
	if config.MinBackoff <= 0 {
		config.MinBackoff = time.Second
	}
	if config.MaxBackoff < config.MinBackoff {
		config.MaxBackoff = time.Minute
		if config.MaxBackoff < config.MinBackoff {
			config.MaxBackoff = config.MinBackoff
		}
	}
	if config.BackoffMultiplier < 1 {
		config.BackoffMultiplier = 2.0
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 10
	}
	if config.CircuitResetAfter <= 0 {
		config.CircuitResetAfter = 5 * time.Minute
	}

	return &Manager{
		minBackoff:        config.MinBackoff,
		maxBackoff:        config.MaxBackoff,
		backoffMultiplier: config.BackoffMultiplier,
		maxRetries:        config.MaxRetries,
		circuitResetAfter: config.CircuitResetAfter,
		currentBackoff:    config.MinBackoff,
		now:               time.Now,
		logger:            log,
	}
}

// Backoff returns how long the caller should wait before the next attempt.
// While the circuit is open this is the remainder of the reset period.
func (m *Manager) Backoff() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.circuitOpen {
		remaining := m.circuitResetAfter - m.now().Sub(m.circuitOpenedAt)
		if remaining > 0 {
			return remaining
		}
	}
	return m.currentBackoff
}

// RecordFailure counts a failed attempt and grows the backoff
func (m *Manager) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.consecutiveFailures++

	if m.consecutiveFailures > 1 {
		next := time.Duration(float64(m.currentBackoff) * m.backoffMultiplier)
		if next > m.maxBackoff {
			next = m.maxBackoff
		}
		m.currentBackoff = next
	}

	m.logger.Warnw("Attempt failed",
		"consecutive_failures", m.consecutiveFailures,
		"next_backoff", m.currentBackoff,
	)

	if !m.circuitOpen && m.consecutiveFailures >= m.maxRetries {
		m.circuitOpen = true
		m.circuitOpenedAt = m.now()

		m.logger.Errorw("🔴 Circuit breaker OPENED - too many consecutive failures",
			"consecutive_failures", m.consecutiveFailures,
			"max_retries", m.maxRetries,
			"circuit_reset_after", m.circuitResetAfter,
		)
	}
}

// RecordSuccess resets the backoff and closes the circuit
func (m *Manager) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.consecutiveFailures == 0 && !m.circuitOpen {
		return
	}

	m.logger.Infow("✅ Recovered, resetting backoff",
		"previous_consecutive_failures", m.consecutiveFailures,
	)

	m.currentBackoff = m.minBackoff
	m.consecutiveFailures = 0
	m.totalRecoveries++

	if m.circuitOpen {
		m.logger.Infow("🟢 Circuit breaker CLOSED", "total_recoveries", m.totalRecoveries)
		m.circuitOpen = false
		m.circuitOpenedAt = time.Time{}
	}
}

// Wait blocks for the current backoff or until ctx is done
func (m *Manager) Wait(ctx context.Context) error {
	backoff := m.Backoff()
	if backoff <= 0 {
		return nil
	}

	timer := time.NewTimer(backoff)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "backoff interrupted")
	}
}

// Stats returns a snapshot of the manager state
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		ConsecutiveFailures: m.consecutiveFailures,
		TotalRecoveries:     m.totalRecoveries,
		CurrentBackoff:      m.currentBackoff,
		CircuitOpen:         m.circuitOpen,
		CircuitOpenedAt:     m.circuitOpenedAt,
	}
}

// Stats contains retry statistics
type Stats struct {
	ConsecutiveFailures int
	TotalRecoveries     int
	CurrentBackoff      time.Duration
	CircuitOpen         bool
	CircuitOpenedAt     time.Time
}
