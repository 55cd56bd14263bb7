package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	reviewengine "arbiter/contexts/event-review/review-engine"
	reviewpostgres "arbiter/contexts/event-review/review-engine/adapters/postgres"
	"arbiter/contexts/event-review/review-engine/adapters/notify"
	reviewworkers "arbiter/contexts/event-review/review-engine/application/workers"
	"arbiter/contexts/event-review/review-engine/domain/services"
	authorization "arbiter/contexts/identity-access/authorization-service"
	authzpostgres "arbiter/contexts/identity-access/authorization-service/adapters/postgres"
	authzentities "arbiter/contexts/identity-access/authorization-service/domain/entities"
	"arbiter/internal/platform/config"
	"arbiter/internal/platform/db"
	"arbiter/internal/platform/httpserver"
	"arbiter/internal/platform/messaging"
	"arbiter/internal/platform/metrics"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  reviewworkers.OutboxRelay
	notifier     reviewworkers.DecisionNotifier
	metrics      *metrics.Metrics
	pollInterval time.Duration
	logger       *slog.Logger
}

// roleVerifier bridges the review engine's authorization port onto the
// authorization-service query side.
type roleVerifier struct {
	authz authorization.Module
}

func (v roleVerifier) IsDecisionMaker(ctx context.Context, userID string, eventID string) (bool, error) {
	return v.authz.Queries.HasRole(ctx, userID, eventID, authzentities.RoleDecisionMaker)
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN, cfg.PostgresPingTimeout)
	if err != nil {
		return nil, err
	}

	authzRepo := authzpostgres.NewRepository(pg.DB, logger)
	authzModule := authorization.NewModule(authorization.Dependencies{
		Repository: authzRepo,
		Clock:      reviewpostgres.SystemClock{},
		IDGen:      reviewpostgres.UUIDGenerator{},
		Logger:     logger,
	})

	repo := reviewpostgres.NewRepository(pg.DB, logger)
	reviewModule := reviewengine.NewModule(reviewengine.Dependencies{
		Applications: repo,
		Evaluations:  repo,
		Consensus:    repo,
		Catalog:      repo,
		Registry:     repo,
		Assignments:  repo,
		Roles:        roleVerifier{authz: authzModule},
		Outbox:       repo,
		Clock:        reviewpostgres.SystemClock{},
		IDGen:        reviewpostgres.UUIDGenerator{},
		Policy:       policyFromConfig(cfg),
		Logger:       logger,
	})

	m := metrics.New(cfg.ServiceName)
	server := httpserver.New(reviewModule, authzModule, m, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN, cfg.PostgresPingTimeout)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	repo := reviewpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: reviewworkers.OutboxRelay{
			Outbox:    repo,
			Publisher: bus,
			Clock:     reviewpostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		notifier: reviewworkers.DecisionNotifier{
			Subscriber: bus,
			Dedup:      repo,
			Notifier:   notify.LogNotifier{Logger: logger},
			Clock:      reviewpostgres.SystemClock{},
			DedupTTL:   cfg.EventDedupTTL,
			Logger:     logger,
		},
		metrics:      metrics.New(cfg.ServiceName),
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func policyFromConfig(cfg config.Config) services.ConsensusPolicy {
	return services.ConsensusPolicy{
		AcceptThreshold:     cfg.AcceptThreshold,
		RejectThreshold:     cfg.RejectThreshold,
		DivergenceThreshold: cfg.DivergenceThreshold,
		MinQuorum:           cfg.MinQuorum,
		ConfidenceFloor:     cfg.ConfidenceFloor,
		ConfidenceCeiling:   cfg.ConfidenceCeiling,
	}
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.notifier.Start(ctx); err != nil {
		return err
	}

	interval := pollInterval(w.pollInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", interval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			w.metrics.OutboxRelayFailure.Inc()
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// pollInterval floors the configured cadence; time.NewTicker panics on a
// nonpositive duration.
func pollInterval(configured time.Duration) time.Duration {
	if configured <= 0 {
		return 2 * time.Second
	}
	return configured
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
