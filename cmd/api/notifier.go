package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/reviewhub/internal/config"
	"github.com/geocoder89/reviewhub/internal/http/handlers"
	"github.com/geocoder89/reviewhub/internal/notifications"
	"github.com/geocoder89/reviewhub/internal/queue/redisclient"
)

// buildNotifier picks the delivery backend. Anything that leaves the process is
// wrapped in the circuit breaker.
func buildNotifier(ctx context.Context, cfg config.Config, log *slog.Logger) (notifications.Notifier, handlers.Pinger, func(), error) {
	protect := func(n notifications.Notifier) notifications.Notifier {
		return notifications.NewProtectedNotifier(n, notifications.ProtectedNotifierConfig{
			Timeout:          cfg.NotifierTimeout,
			FailureThreshold: cfg.NotifierFailThreshold,
			Cooldown:         cfg.NotifierCooldown,
		})
	}

	switch cfg.Notifier {
	case config.NotifierSMTP:
		smtp := notifications.NewSMTPNotifier(notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		})
		log.Info("notifier ready", "backend", "smtp", "host", cfg.SMTPHost)
		return protect(smtp), nil, func() {}, nil

	case config.NotifierQueue:
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx); err != nil {
			_ = rdb.Close()
			return nil, nil, nil, fmt.Errorf("redis ping: %w", err)
		}

		log.Info("notifier ready", "backend", "queue", "key", cfg.MailQueueKey)
		return protect(notifications.NewQueueNotifier(rdb, cfg.MailQueueKey)),
			rdb.Ping,
			func() { _ = rdb.Close() },
			nil

	default:
		log.Info("notifier ready", "backend", "log")
		return notifications.NewLogNotifier(log), nil, func() {}, nil
	}
}
