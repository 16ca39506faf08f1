package main

import (
	"context"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"payflow/config"
	"payflow/internal/database"
	"payflow/internal/logger"
	"payflow/internal/queue"
	"payflow/internal/router"
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
	if _, err := database.SeedTestMerchant(db, ""); err != nil {
		log.WithError(err).Warn("seed test merchant")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	q := queue.New(db, log, cfg.Queue)
	var wg sync.WaitGroup
	if cfg.Server.WorkersInProcess {
		runner := queue.NewRunner(q, log, cfg.Worker.Concurrency, cfg.Queue.VisibilityTimeout)
		worker.NewSet(cfg, db, q, log).Register(runner)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = runner.Run(ctx)
		}()
	}

	engine := router.Setup(ctx, cfg, db, q, log)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Infof("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	wg.Wait()
	log.Info("server stopped")
}
