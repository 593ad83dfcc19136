package bootstrap

import (
	"context"
	"sync"

	"fiatrouter/internal/adapters/ai"
	"fiatrouter/internal/adapters/config"
	"fiatrouter/internal/adapters/kafka"
	pgclient "fiatrouter/internal/adapters/postgres"
	redisclient "fiatrouter/internal/adapters/redis"
	"fiatrouter/internal/api"
	"fiatrouter/internal/api/health"
	"fiatrouter/internal/api/status"
	"fiatrouter/internal/consumers"
	"fiatrouter/internal/domain/journal"
	"fiatrouter/internal/domain/pending"
	"fiatrouter/internal/events"
	agentsvc "fiatrouter/internal/services/agent"
	"fiatrouter/internal/services/analysis"
	"fiatrouter/internal/services/pricing"
	"fiatrouter/internal/workers"
	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
)

// Container holds all application dependencies and their lifecycle.
// Components are organized in initialization order.
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure. PG is nil unless the signal journal is enabled,
	// Redis is nil with the memory store backend.
	PG    *pgclient.Client
	Redis *redisclient.Client

	Repos       *Repositories
	Adapters    *Adapters
	Services    *Services
	Application *Application
	Background  *Background

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups storage behind domain interfaces
type Repositories struct {
	Pending pending.Store
	Journal journal.Repository
}

// Adapters groups external adapters
type Adapters struct {
	KafkaProducer *kafka.Producer
	InboxConsumer *kafka.Consumer
	Messenger     *events.KafkaMessenger
	LLM           ai.Client
}

// Services groups the agent's business logic
type Services struct {
	Journal    *journal.Service
	Analyst    *analysis.Analyst
	Dispatcher *pricing.Dispatcher
	Correlator *pricing.Correlator
	Agent      *agentsvc.Service
}

// Application groups the HTTP surface
type Application struct {
	HTTPServer    *api.Server
	HealthHandler *health.Handler
	StatusHandler *status.Handler
}

// Background groups long-running processing
type Background struct {
	WorkerScheduler *workers.Scheduler
	PendingMonitor  *workers.PendingMonitor
	Inbox           *consumers.InboxConsumer
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:       &Repositories{},
		Adapters:    &Adapters{},
		Services:    &Services{},
		Application: &Application{},
		Background:  &Background{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in order.
// Panics on any initialization error (fail-fast at startup).
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitServices()
	c.MustInitApplication()
	c.MustInitBackground()
}

// Start starts the inbox consumer, the HTTP server and the workers
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Background.Inbox.Start(c.Context); err != nil && c.Context.Err() == nil {
			c.Log.Errorw("Inbox consumer failed", "error", err)
			c.Cancel()
		}
	}()

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorw("HTTP server failed", "error", err)
			c.Cancel()
		}
	}()

	if err := c.Background.WorkerScheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "start workers")
	}

	c.Log.Infow("✓ All systems operational",
		"address", c.Config.Agent.Address,
		"peer", c.Config.Agent.PeerPriceAddress,
		"inbox", c.Adapters.InboxConsumer.Topic(),
	)
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	c.Cancel()

	c.Lifecycle.Shutdown(ShutdownTargets{
		WG:              c.WG,
		HTTPServer:      c.Application.HTTPServer,
		WorkerScheduler: c.Background.WorkerScheduler,
		InboxConsumer:   c.Adapters.InboxConsumer,
		KafkaProducer:   c.Adapters.KafkaProducer,
		PG:              c.PG,
		Redis:           c.Redis,
		ErrorTracker:    c.ErrorTracker,
	}, c.Log)
}
