package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"pagecraft/internal/ai"
	"pagecraft/internal/api"
	"pagecraft/internal/auth"
	"pagecraft/internal/builder"
	"pagecraft/internal/config"
	"pagecraft/internal/database"
	"pagecraft/internal/persist"
	"pagecraft/internal/storage"
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

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer asynqClient.Close()

	sessions, err := auth.NewSessionService(cfg.Session.Secret, time.Duration(cfg.Session.TTLMinutes)*time.Minute)
	if err != nil {
		log.Fatalf("init session service: %v", err)
	}
	gate := auth.NewGate(cfg.Session.GatePasswordHash)

	hydrateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store := builder.NewStore(hydrateCtx, port, logger)
	cancel()

	gateway := ai.NewGateway(cfg.AI.ServiceURL, cfg.AI.APIKey, logger)

	router := api.NewRouter(cfg, logger)
	api.RegisterRoutes(router, cfg, store, gateway, sessions, gate, asynqClient, redisClient, storageClient, logger)

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address))
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}

// buildPersistPort selects the durable backend. The redis client is
// shared with the rest of the app when redis is the backend.
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
		if err := db.AutoMigrate(&database.KVEntry{}); err != nil {
			return nil, err
		}
		return persist.NewGorm(db), nil
	default:
		return nil, fmt.Errorf("unknown persist backend %q", cfg.Persist.Backend)
	}
}
