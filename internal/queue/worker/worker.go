// Package worker drains the Redis mail queue and hands each message to a Notifier once.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/reviewhub/internal/notifications"
	"github.com/geocoder89/reviewhub/internal/observability"
)

type Queue interface {
	Pop(ctx context.Context, key string, timeout time.Duration) ([]byte, error)
	Ping(ctx context.Context) error
}

type Config struct {
	QueueKey      string
	PopTimeout    time.Duration
	Concurrency   int
	SendTimeout   time.Duration
	ShutdownGrace time.Duration
}

type Worker struct {
	cfg    Config
	queue  Queue
	sender notifications.Notifier
	log    *slog.Logger
	stats  *observability.DeliveryStats
	prom   *observability.Prom

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, q Queue, sender notifications.Notifier, log *slog.Logger, stats *observability.DeliveryStats, prom *observability.Prom) *Worker {
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 2 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if stats == nil {
		stats = observability.NewDeliveryStats()
	}

	return &Worker{
		cfg:    cfg,
		queue:  q,
		sender: sender,
		log:    log,
		stats:  stats,
		prom:   prom,
	}
}

// Run blocks until ctx is cancelled, then waits up to ShutdownGrace for in-flight sends.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.loop(ctx, slot)
		}(i)
	}

	<-ctx.Done()
	w.setReady(false)
	w.log.Info("worker received shutdown signal")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.cfg.ShutdownGrace):
		w.log.Warn("worker shutdown grace elapsed with sends in flight")
	}
	return nil
}

func (w *Worker) loop(ctx context.Context, slot int) {
	failures := 0

	for ctx.Err() == nil {
		_, err := w.ProcessOne(ctx)
		if err == nil {
			failures = 0
			continue
		}
		if ctx.Err() != nil {
			return
		}

		delay := ExponentialBackoff(failures)
		failures++
		w.log.Error("queue pop failed", "slot", slot, "err", err, "retry_in_ms", delay.Milliseconds())

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) isReady() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

// Stats exposes the process-local delivery counters.
func (w *Worker) Stats() observability.DeliveryStatsSnapshot {
	return w.stats.Snapshot()
}
