// The worker consumes background tasks the API enqueues, currently only
// the removal of post images orphaned by a delete.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"qwitter-backend/internal/config"
	postJob "qwitter-backend/internal/domains/post/job"
	"qwitter-backend/internal/infrastructure/queue"
	"qwitter-backend/internal/infrastructure/storage"
	"qwitter-backend/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.App.Environment)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	objects, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init object storage")
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Host,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 3,
				"low":     1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeImageCleanup, postJob.NewCleanupImageHandler(objects).ProcessTask)

	go func() {
		log.Info().Str("redis", cfg.Redis.Host).Msg("worker starting")
		if err := srv.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("worker failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	srv.Shutdown()
	log.Info().Msg("worker exited")
}
