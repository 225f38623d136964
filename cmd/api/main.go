package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tierimage/internal/config"
	"tierimage/internal/database"
	"tierimage/internal/handlers"
	"tierimage/internal/jobs"
	"tierimage/internal/log"
	"tierimage/internal/queue"
	"tierimage/internal/repository"
	"tierimage/internal/repository/memory"
	"tierimage/internal/server"
	"tierimage/internal/service"
	"tierimage/internal/storage"
	"tierimage/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level)

	ctx := context.Background()

	var (
		store  repository.Store
		dbPool *pgxpool.Pool
		checks []handlers.HealthCheck
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		store = memory.New()
		logger.Warn().Msg("using in-memory store, data is lost on restart")
	default:
		dbPool, err = database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		store = repository.NewPostgresStore(dbPool)
	}
	checks = append(checks, handlers.HealthCheck{Name: "database", Ping: store.Ping})

	objects, err := newObjects(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}

	// Without redis, cleanup tasks run in-process.
	var (
		enqueuer    queue.Enqueuer
		redisClient *redis.Client
	)
	if cfg.Database.Driver == config.DriverMemory || cfg.Redis.Addr == "" {
		enqueuer = queue.Local{Handler: tasks.NewProcessor(objects, store.CustomImages(), cfg.Worker.SweepMinAge, logger)}
	} else {
		redisClient, err = queue.Connect(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		enqueuer = queue.NewPublisher(redisClient, cfg.Worker.Stream)
		checks = append(checks, handlers.RedisCheck(redisClient))
	}

	accounts := service.NewAccountService(store, cfg.Security, enqueuer, logger)
	tiers := service.NewTierService(store, logger)
	images := service.NewCustomImageService(store, objects, enqueuer, logger)

	if cfg.Bootstrap.AdminEmail != "" && cfg.Bootstrap.AdminPassword != "" {
		if err := accounts.EnsureSuperuser(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			logger.Fatal().Err(err).Msg("superuser bootstrap failed")
		}
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, accounts, tiers, images, checks...)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	// The worker owns the sweep when redis is available.
	var scheduler *jobs.Scheduler
	if redisClient == nil {
		scheduler = jobs.NewScheduler(enqueuer, cfg.Worker.SweepSchedule, logger)
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
		}
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func newObjects(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (storage.Objects, error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn().Msg("using in-memory object store")
		return storage.NewMemoryStore(), nil
	}

	objectStore, err := storage.NewObjectStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := objectStore.EnsureBuckets(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure buckets failed")
	}
	return objectStore, nil
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
