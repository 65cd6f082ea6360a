// Package bootstrap wires configuration into the concrete adapters and use
// cases both binaries share. The api and worker entrypoints differ only in
// which parts of the App they run.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmarchuk/legalintel/internal/config"
	"github.com/dmarchuk/legalintel/internal/core/usecase"
	cacheredis "github.com/dmarchuk/legalintel/internal/infrastructure/cache/redis"
	"github.com/dmarchuk/legalintel/internal/infrastructure/metadata"
	"github.com/dmarchuk/legalintel/internal/infrastructure/parser"
	pubsubredis "github.com/dmarchuk/legalintel/internal/infrastructure/pubsub/redis"
	"github.com/dmarchuk/legalintel/internal/infrastructure/queue/nats"
	"github.com/dmarchuk/legalintel/internal/infrastructure/repository/postgres"
	"github.com/dmarchuk/legalintel/internal/infrastructure/resilience"
	"github.com/dmarchuk/legalintel/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Repo     *postgres.DocumentRepository
	QueryLog *postgres.QueryRepository
	Queue    *nats.Queue
	PubSub   *pubsubredis.PubSub

	IngestUC    *usecase.IngestDocumentUseCase
	ProcessUC   *usecase.ProcessDocumentUseCase
	QueryUC     *usecase.QueryUseCase
	DashboardUC *usecase.DashboardUseCase
	ExportUC    *usecase.ExportUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	queryLog := postgres.NewQueryRepository(db)

	redisClient, err := pubsubredis.Open(cfg.RedisURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open redis: %w", err)
	}
	statsCache := cacheredis.NewStatsCache(redisClient, time.Duration(cfg.StatsCacheTTLSeconds)*time.Second)
	pubSub := pubsubredis.New(redisClient, logger)

	executor := resilience.NewExecutor(resilience.Policy{})
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		queue.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	docParser := parser.New(storage)
	extractor := metadata.NewRulesExtractor()

	ingestUC := usecase.NewIngestDocumentUseCase(
		repo, storage, queue, statsCache,
		int64(cfg.MaxUploadSizeMB)<<20, logger,
	)
	processUC := usecase.NewProcessDocumentUseCase(
		repo, docParser, extractor, pubSub, statsCache,
		time.Duration(cfg.ProcessTimeoutSecs)*time.Second, logger,
	)
	queryUC := usecase.NewQueryUseCase(repo, queryLog, logger)
	dashboardUC := usecase.NewDashboardUseCase(repo, statsCache, logger)
	exportUC := usecase.NewExportUseCase(queryUC, cfg.ExportMaxResults)

	return &App{
		Config: cfg,
		Logger: logger,

		Repo:     repo,
		QueryLog: queryLog,
		Queue:    queue,
		PubSub:   pubSub,

		IngestUC:    ingestUC,
		ProcessUC:   processUC,
		QueryUC:     queryUC,
		DashboardUC: dashboardUC,
		ExportUC:    exportUC,

		closeFn: func() {
			queue.Close()
			_ = redisClient.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
