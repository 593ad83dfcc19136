package bootstrap

import (
	"context"
	"time"

	"fiatrouter/internal/adapters/ai"
	"fiatrouter/internal/adapters/config"
	errnoop "fiatrouter/internal/adapters/errors/noop"
	"fiatrouter/internal/adapters/errors/sentry"
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
	"fiatrouter/internal/metrics"
	pgrepo "fiatrouter/internal/repository/postgres"
	redisrepo "fiatrouter/internal/repository/redis"
	agentsvc "fiatrouter/internal/services/agent"
	"fiatrouter/internal/services/analysis"
	"fiatrouter/internal/services/pricing"
	"fiatrouter/internal/services/signal"
	"fiatrouter/internal/workers"
	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
	"fiatrouter/pkg/templates"
)

// connectTimeout bounds each startup connection attempt
const connectTimeout = 10 * time.Second

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger and metrics
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infow("Starting agent",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"address", cfg.Agent.Address,
	)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects the stores the configuration asks for
func (c *Container) MustInitInfrastructure() {
	var err error

	if c.Config.Store.Backend == "redis" {
		c.Log.Info("Connecting to Redis...")
		ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
		c.Redis, err = redisclient.NewClient(ctx, c.Config.Redis)
		cancel()
		if err != nil {
			c.Log.Fatalf("failed to connect redis: %v", err)
		}
		c.Log.Info("✓ Redis connected")
	}

	if c.Config.Postgres.JournalEnabled {
		c.Log.Info("Connecting to PostgreSQL...")
		ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
		c.PG, err = pgclient.NewClient(ctx, c.Config.Postgres)
		cancel()
		if err != nil {
			c.Log.Fatalf("failed to connect postgres: %v", err)
		}
		c.Log.Info("✓ PostgreSQL connected")
	}
}

// ========================================
// Phase 3: Repositories
// ========================================

// MustInitRepositories selects the pending store backend and the journal
func (c *Container) MustInitRepositories() {
	if c.Redis != nil {
		c.Repos.Pending = redisrepo.NewPendingStore(c.Redis)
	} else {
		c.Log.Warn("Using in-memory pending store, requests are lost on restart")
		c.Repos.Pending = pending.NewMemoryStore()
	}

	if c.PG != nil {
		repo := pgrepo.NewSignalJournalRepository(c.PG.DB())
		ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
		err := repo.EnsureSchema(ctx)
		cancel()
		if err != nil {
			c.Log.Fatalf("failed to prepare signal journal: %v", err)
		}
		c.Repos.Journal = repo
	}

	c.Log.Infow("✓ Repositories initialized",
		"store", c.Config.Store.Backend,
		"journal", c.Repos.Journal != nil,
	)
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters builds the Kafka transport and the language model client
func (c *Container) MustInitAdapters() {
	c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
	c.Adapters.InboxConsumer = provideKafkaConsumer(c.Config, c.inboxTopic(c.Config.Agent.Address), c.Log)
	c.Adapters.Messenger = events.NewKafkaMessenger(c.Adapters.KafkaProducer, c.Config.Agent.Address, c.inboxTopic)

	llm, err := ai.NewClient(c.Context, c.Config.AI)
	if err != nil {
		c.Log.Warnw("Language model unavailable, answering from the knowledge base only",
			"provider", c.Config.AI.Provider,
			"error", err,
		)
		llm = ai.DisabledClient{}
	}
	c.Adapters.LLM = llm
	c.Log.Infow("✓ Adapters initialized", "llm", llm.Name())
}

func (c *Container) inboxTopic(address string) string {
	return kafka.TopicName(c.Config.Agent.InboxTopic(address))
}

// ========================================
// Phase 5: Services
// ========================================

// MustInitServices wires the correlation flow
func (c *Container) MustInitServices() {
	kb, err := analysis.DefaultKnowledgeBase()
	if err != nil {
		c.Log.Fatalf("failed to load knowledge base: %v", err)
	}

	c.Services.Analyst = analysis.NewAnalyst(kb, c.Adapters.LLM, templates.Get(), c.Config.App.Name)
	if c.Redis != nil {
		cacheCfg := analysis.DefaultCacheConfig()
		cacheCfg.TTL = c.Config.AI.CacheTTL
		c.Services.Analyst.WithCache(analysis.NewRedisCache(cacheCfg, c.Redis))
	}

	// nil interface unless the journal is enabled
	var signalJournal pricing.Journal
	if c.Repos.Journal != nil {
		c.Services.Journal = journal.NewService(c.Repos.Journal)
		signalJournal = c.Services.Journal
		if err := metrics.RegisterCollector(metrics.NewJournalCollector(c.Log, c.Services.Journal)); err != nil {
			c.Log.Warnw("Failed to register journal collector", "error", err)
		}
	}

	messenger := c.Adapters.Messenger
	store := c.Repos.Pending

	c.Services.Dispatcher = pricing.NewDispatcher(store, messenger, c.Config.Agent.PeerPriceAddress)
	c.Services.Correlator = pricing.NewCorrelator(store,
		pricing.NewChatCompletion(c.Services.Analyst, messenger),
		pricing.NewTradingCompletion(signal.NewRuleGenerator(signal.DefaultThresholds()), messenger, signalJournal),
	)
	c.Services.Agent = agentsvc.NewService(agentsvc.Dependencies{
		PeerAddress: c.Config.Agent.PeerPriceAddress,
		Store:       store,
		Dispatcher:  c.Services.Dispatcher,
		Correlator:  c.Services.Correlator,
		Answerer:    c.Services.Analyst,
		Messenger:   messenger,
	})

	c.Log.Info("✓ Services initialized")
}

// ========================================
// Phase 6: Application Layer
// ========================================

// MustInitApplication builds the HTTP server
func (c *Container) MustInitApplication() {
	checks := map[string]health.Checker{}
	if c.Redis != nil {
		checks["redis"] = c.Redis
	}
	if c.PG != nil {
		checks["postgres"] = c.PG
	}

	c.Application.HealthHandler = health.New(c.Log, checks, c.Config.App.Name, c.Config.App.Version)
	c.Application.StatusHandler = status.New(
		c.Config.Agent.Address,
		c.Config.Agent.PeerPriceAddress,
		c.Config.Store.Backend,
		c.Repos.Pending,
		c.Log,
	)
	c.Application.HTTPServer = api.NewServer(api.ServerConfig{
		Port:        c.Config.HTTP.Port,
		ServiceName: c.Config.App.Name,
		Version:     c.Config.App.Version,
	}, c.Application.HealthHandler, c.Application.StatusHandler, c.Log)
}

// ========================================
// Phase 7: Background Processing
// ========================================

// MustInitBackground builds the inbox consumer and the worker scheduler
func (c *Container) MustInitBackground() {
	c.Background.Inbox = consumers.NewInboxConsumer(
		c.Adapters.InboxConsumer,
		c.Services.Agent,
		c.Config.Agent.Address,
		c.Config.Agent.HandlerTimeout,
		c.Log,
	)

	c.Background.PendingMonitor = workers.NewPendingMonitor(
		c.Repos.Pending,
		c.Config.Workers.PendingMonitorInterval,
		c.Config.Workers.PendingStaleAfter,
	)
	c.Background.WorkerScheduler = workers.NewScheduler().WithStopTimeout(c.Config.Workers.StopTimeout)
	c.Background.WorkerScheduler.RegisterWorker(c.Background.PendingMonitor)

	c.Log.Info("✓ Background processing initialized")
}

// ========================================
// Helper Provider Functions
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(sentry.Options{
		DSN:         cfg.ErrorTracking.SentryDSN,
		Environment: cfg.ErrorTracking.Environment,
		Release:     cfg.App.Name + "@" + cfg.App.Version,
		ServerName:  cfg.Agent.Address,
	})
	if err != nil {
		log.Warnw("Failed to initialize Sentry", "error", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
	})
	log.Infow("✓ Kafka producer initialized", "brokers", cfg.Kafka.Brokers)
	return producer
}

func provideKafkaConsumer(cfg *config.Config, topic string, log *logger.Logger) *kafka.Consumer {
	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.GroupID,
		Topic:   topic,
	})
	log.Infow("✓ Kafka consumer initialized", "topic", topic)
	return consumer
}
