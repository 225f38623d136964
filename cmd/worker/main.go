package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"tierimage/internal/config"
	"tierimage/internal/database"
	"tierimage/internal/jobs"
	"tierimage/internal/log"
	"tierimage/internal/queue"
	"tierimage/internal/repository"
	"tierimage/internal/storage"
	"tierimage/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level)

	if cfg.Database.Driver == config.DriverMemory || cfg.Storage.Driver == config.DriverMemory {
		logger.Fatal().Msg("worker needs postgres and minio; memory drivers run cleanup inside the api")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := queue.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer pool.Close()
	store := repository.NewPostgresStore(pool)

	objects, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}

	processor := tasks.NewProcessor(objects, store.CustomImages(), cfg.Worker.SweepMinAge, logger)
	consumer := queue.NewConsumer(
		client,
		cfg.Worker.Stream,
		cfg.Worker.Group,
		cfg.Worker.Consumer,
		cfg.Worker.ClaimInterval,
		logger,
		processor,
	)

	scheduler := jobs.NewScheduler(queue.NewPublisher(client, cfg.Worker.Stream), cfg.Worker.SweepSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("scheduler start failed")
	}
	defer scheduler.Stop()

	logger.Info().Str("stream", cfg.Worker.Stream).Str("group", cfg.Worker.Group).Msg("worker started")

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
	}
	logger.Info().Msg("worker exited")
}
