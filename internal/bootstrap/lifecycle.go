package bootstrap

import (
	"context"
	"sync"
	"time"

	"fiatrouter/internal/adapters/kafka"
	pgclient "fiatrouter/internal/adapters/postgres"
	redisclient "fiatrouter/internal/adapters/redis"
	"fiatrouter/internal/api"
	"fiatrouter/internal/workers"
	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
)

// Lifecycle manages graceful shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 60 * time.Second,
	}
}

// ShutdownTargets lists what Shutdown tears down. Nil entries are skipped.
type ShutdownTargets struct {
	WG              *sync.WaitGroup
	HTTPServer      *api.Server
	WorkerScheduler *workers.Scheduler
	InboxConsumer   *kafka.Consumer
	KafkaProducer   *kafka.Producer
	PG              *pgclient.Client
	Redis           *redisclient.Client
	ErrorTracker    errors.Tracker
}

// Shutdown performs coordinated cleanup in order:
//  1. stop accepting HTTP requests
//  2. stop workers
//  3. close the inbox consumer so no new envelope is picked up
//  4. wait for the in-flight envelope to finish
//  5. close the producer, which replies may still have been using
//  6. flush the error tracker and logs
//  7. close databases last
func (l *Lifecycle) Shutdown(t ShutdownTargets, log *logger.Logger) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	log.Info("[1/7] Stopping HTTP server...")
	if t.HTTPServer != nil {
		httpCtx, httpCancel := context.WithTimeout(shutdownCtx, 5*time.Second)
		if err := t.HTTPServer.Shutdown(httpCtx); err != nil {
			log.Errorw("HTTP server shutdown failed", "error", err)
		}
		httpCancel()
	}

	log.Info("[2/7] Stopping background workers...")
	if t.WorkerScheduler != nil && t.WorkerScheduler.IsRunning() {
		if err := t.WorkerScheduler.Stop(); err != nil {
			log.Errorw("Workers shutdown failed", "error", err)
		} else {
			log.Info("✓ Workers stopped")
		}
	}

	log.Info("[3/7] Closing inbox consumer...")
	if t.InboxConsumer != nil {
		if err := t.InboxConsumer.Close(); err != nil {
			log.Errorw("Inbox consumer close failed", "error", err)
		}
	}

	log.Info("[4/7] Waiting for in-flight messages...")
	if t.WG != nil {
		l.waitForGoroutines(t.WG, 10*time.Second, log)
	}

	log.Info("[5/7] Closing Kafka producer...")
	if t.KafkaProducer != nil {
		if err := t.KafkaProducer.Close(); err != nil {
			log.Errorw("Kafka producer close failed", "error", err)
		} else {
			log.Info("✓ Kafka producer closed")
		}
	}

	log.Info("[6/7] Flushing error tracker and logs...")
	l.flushErrorTracker(shutdownCtx, t.ErrorTracker, log)
	if err := logger.Sync(); err != nil {
		// stdout/stderr cannot be synced on most terminals
		log.Debugw("Log sync returned an error", "error", err)
	}

	log.Info("[7/7] Closing database connections...")
	l.closeDatabases(t.PG, t.Redis, log)

	log.Info("✅ Graceful shutdown complete")
}

// waitForGoroutines waits for all goroutines with a timeout
func (l *Lifecycle) waitForGoroutines(wg *sync.WaitGroup, timeout time.Duration, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("✓ All goroutines finished")
	case <-time.After(timeout):
		log.Warnw("⚠ Some goroutines did not finish within timeout", "timeout", timeout)
	}
}

func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, 3*time.Second)
	defer flushCancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Warnw("Error tracker flush failed", "error", err)
	}
}

func (l *Lifecycle) closeDatabases(pg *pgclient.Client, redis *redisclient.Client, log *logger.Logger) {
	var errs errors.MultiError

	if pg != nil {
		if err := pg.Close(); err != nil {
			errs.Add(errors.Wrap(err, "postgres"))
		}
	}
	if redis != nil {
		if err := redis.Close(); err != nil {
			errs.Add(errors.Wrap(err, "redis"))
		}
	}

	if errs.HasErrors() {
		log.Errorw("Database close errors", "error", errs.ToError())
	} else {
		log.Info("✓ Database connections closed")
	}
}
