package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"pagecraft/internal/config"
	"pagecraft/internal/database"
	"pagecraft/internal/metrics"
	"pagecraft/internal/persist"
	"pagecraft/internal/storage"
	"pagecraft/internal/tasks"
	"pagecraft/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	port, err := buildPersistPort(cfg, redisClient)
	if err != nil {
		log.Fatalf("init persistence backend: %v", err)
	}
	logger.Info("persistence backend ready", slog.String("backend", cfg.Persist.Backend))

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr()}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
	})

	exportHandler := worker.NewExportTaskHandler(port, storageClient, redisClient, logger)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeExportArchive, exportHandler)

	logger.Info("worker service started", slog.String("redis_addr", cfg.Redis.Addr()))
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}

func buildPersistPort(cfg *config.Config, redisClient *redis.Client) (persist.Port, error) {
	switch cfg.Persist.Backend {
	case config.PersistMemory:
		return persist.NewMemory(), nil
	case config.PersistRedis:
		return persist.NewRedis(redisClient), nil
	case config.PersistPostgres:
		db, err := database.InitDatabase(cfg.Database)
		if err != nil {
			return nil, err
		}
		return persist.NewGorm(db), nil
	default:
		return nil, fmt.Errorf("unknown persist backend %q", cfg.Persist.Backend)
	}
}
