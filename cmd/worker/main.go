package main

import (
	"context"
	"os/signal"
	"syscall"

	"payflow/config"
	"payflow/internal/database"
	"payflow/internal/logger"
	"payflow/internal/queue"
	"payflow/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	q := queue.New(db, log, cfg.Queue)
	runner := queue.NewRunner(q, log, cfg.Worker.Concurrency, cfg.Queue.VisibilityTimeout)
	worker.NewSet(cfg, db, q, log).Register(runner)

	log.WithField("test_mode", cfg.Settlement.TestMode).Info("worker starting")
	if err := runner.Run(ctx); err != nil {
		log.Fatalf("runner: %v", err)
	}
	log.Info("worker stopped")
}
