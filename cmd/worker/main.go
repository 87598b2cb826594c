package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/geocoder89/reviewhub/internal/config"
	"github.com/geocoder89/reviewhub/internal/notifications"
	"github.com/geocoder89/reviewhub/internal/observability"
	"github.com/geocoder89/reviewhub/internal/queue/redisclient"
	"github.com/geocoder89/reviewhub/internal/queue/worker"
)

func main() {
	cfg := config.Load()
	cfg.ServiceName = "reviewhub-worker"

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	err := rdb.Ping(pingCtx)
	cancel()
	if err != nil {
		log.Error("redis connect failed", "addr", cfg.RedisAddr, "err", err)
		os.Exit(1)
	}

	sender := notifications.NewProtectedNotifier(
		notifications.NewSMTPNotifier(notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}),
		notifications.ProtectedNotifierConfig{
			Timeout:          cfg.NotifierTimeout,
			FailureThreshold: cfg.NotifierFailThreshold,
			Cooldown:         cfg.NotifierCooldown,
		},
	)

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	w := worker.New(worker.Config{
		QueueKey:      cfg.MailQueueKey,
		PopTimeout:    2 * time.Second,
		Concurrency:   cfg.WorkerConcurrency,
		SendTimeout:   cfg.NotifierTimeout,
		ShutdownGrace: 10 * time.Second,
	}, rdb, sender, log, observability.NewDeliveryStats(), prom)

	healthSrv := &http.Server{
		Addr:              cfg.WorkerHealthAddr,
		Handler:           w.HealthHandler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := healthSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("worker health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "queue", cfg.MailQueueKey, "concurrency", cfg.WorkerConcurrency, "health_addr", cfg.WorkerHealthAddr)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = healthSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete", "stats", w.Stats())
}
