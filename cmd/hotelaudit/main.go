package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotelaudit/internal/app/commands"
	"hotelaudit/internal/app/dto"
	auditapp "hotelaudit/internal/app/handlers/audit"
	"hotelaudit/internal/app/middleware"
	"hotelaudit/internal/app/outbox"
	"hotelaudit/internal/app/policies"
	"hotelaudit/internal/app/queries"
	domainaudit "hotelaudit/internal/domain/audit"
	"hotelaudit/internal/infra/broker/kafka"
	"hotelaudit/internal/infra/config"
	"hotelaudit/internal/infra/geo"
	ginserver "hotelaudit/internal/infra/http/gin"
	"hotelaudit/internal/infra/obs"
	infraoutbox "hotelaudit/internal/infra/outbox"
	"hotelaudit/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dotenvErr := config.LoadDotenv()
	cfg, cfgErr := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if dotenvErr != nil {
		logger.Warn(".env load failed", "error", dotenvErr)
	}
	if cfgErr != nil {
		logger.Warn("using fallback configuration", "error", cfgErr)
	}

	metrics := obs.NewMetrics()
	app := buildApplication(cfg, logger, metrics)
	defer app.close()

	app.startBackground(ctx, cfg, logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Metrics: metrics}, obs.HealthHandlers{
		Ready: func() error { return nil },
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "analysis_delay", cfg.AnalysisDelay, "lead_events", cfg.KafkaEnabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	sessions *memory.SessionStore
	geo      *geo.Client
	worker   *infraoutbox.Worker
	producer *kafka.Producer
}

func buildApplication(cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) *application {
	app := &application{sessions: memory.NewSessionStore()}

	var locale policies.LocalePort
	geoClient, err := geo.NewClient(cfg.GeoLookupURL, cfg.GeoLookupTimeout, cfg.GeoCacheSize, logger)
	if err != nil {
		logger.Warn("currency lookup disabled", "error", err)
	} else {
		geoClient.Observe = metrics.ObserveGeoLookup
		app.geo = geoClient
		locale = geoClient
	}

	runHandler := &auditapp.RunAuditHandler{
		Sessions:  app.sessions,
		Generator: domainaudit.NewRandomGenerator(cfg.ScoreSeed),
		Locale:    locale,
		Encoder:   outbox.JSONEventEncoder{},
		Logger:    logger,
		Delay:     cfg.AnalysisDelay,
	}

	if cfg.KafkaEnabled() {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig(cfg.KafkaClientID))
		if err != nil {
			logger.Warn("lead events disabled, kafka unavailable", "brokers", cfg.KafkaBrokers, "error", err)
		} else {
			app.wireLeadEvents(cfg, logger, metrics, runHandler, producer)
		}
	}

	commandBus := commands.NewInMemoryBus()
	commands.Register[auditapp.RunAuditCommand, *dto.AuditReport](commandBus, auditapp.RunAuditCommand{}.Key(), runHandler)

	queryBus := queries.NewInMemoryBus()
	queries.Register[auditapp.RecomputeImpactQuery, dto.ImpactReport](queryBus, auditapp.RecomputeImpactQuery{}.Key(), &auditapp.RecomputeImpactHandler{})
	queries.Register[auditapp.GetSessionQuery, domainaudit.Session](queryBus, auditapp.GetSessionQuery{}.Key(), &auditapp.GetSessionHandler{Sessions: app.sessions})
	queries.Register[auditapp.GetLocaleQuery, policies.Locale](queryBus, auditapp.GetLocaleQuery{}.Key(), &auditapp.GetLocaleHandler{Locale: locale, Logger: logger})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.ObserveCommands(metrics),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.ObserveQueries(metrics),
	)

	app.handlers = ginserver.Handlers{
		Audit: ginserver.AuditHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Logger:   logger,
		},
		Metrics: metrics.Handler(),
	}
	return app
}

// wireLeadEvents routes completed audits through the outbox to kafka.
func (a *application) wireLeadEvents(cfg config.Config, logger *slog.Logger, metrics *obs.Metrics, run *auditapp.RunAuditHandler, producer *kafka.Producer) {
	store := memory.NewOutbox(cfg.OutboxCapacity)
	run.Outbox = store
	a.producer = producer
	a.worker = &infraoutbox.Worker{
		Store:       store,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
		OnPublish:   metrics.ObservePublish,
	}
}

func (a *application) startBackground(ctx context.Context, cfg config.Config, logger *slog.Logger) {
	if a.geo != nil && cfg.GeoWarmup {
		go a.geo.Warmup(ctx)
	}
	if a.worker != nil {
		go func() {
			if err := a.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}
	if cfg.SessionTTL > 0 {
		go a.pruneSessions(ctx, cfg.SessionTTL, logger)
	}
}

func (a *application) pruneSessions(ctx context.Context, ttl time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := a.sessions.Prune(now.UTC(), ttl); removed > 0 {
				logger.Debug("pruned idle audit sessions", "removed", removed, "remaining", a.sessions.Len())
			}
		}
	}
}

func (a *application) close() {
	if a.producer != nil {
		_ = a.producer.Close()
	}
}
