package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/reviewhub/internal/observability"
)

var ErrDispatcherClosed = errors.New("dispatcher closed")

type DispatcherConfig struct {
	QueueSize   int
	Workers     int
	SendTimeout time.Duration
}

// Dispatcher hands messages to a Notifier off the request path.
// Dispatch never blocks; a full queue drops the message. There is no retry.
type Dispatcher struct {
	notifier Notifier
	log      *slog.Logger
	metrics  *observability.Prom
	timeout  time.Duration

	queue chan Message
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(n Notifier, cfg DispatcherConfig, log *slog.Logger, metrics *observability.Prom) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	d := &Dispatcher{
		notifier: n,
		log:      log,
		metrics:  metrics,
		timeout:  cfg.SendTimeout,
		queue:    make(chan Message, cfg.QueueSize),
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.loop()
	}
	return d
}

// Dispatch enqueues msg and returns immediately.
func (d *Dispatcher) Dispatch(msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.record(msg.Kind, "dropped", 0)
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- msg:
		d.setDepth()
		return nil
	default:
		d.log.Warn("notification dropped",
			"kind", msg.Kind,
			"to", msg.To,
			"reason", "queue_full",
		)
		d.record(msg.Kind, "dropped", 0)
		return nil
	}
}

// Close stops accepting messages and waits for queued ones to be attempted,
// or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()

	for msg := range d.queue {
		d.setDepth()
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	err := d.notifier.Send(ctx, msg)
	elapsed := time.Since(start)

	if err != nil {
		d.log.Error("notification failed",
			"kind", msg.Kind,
			"to", msg.To,
			"err", err,
			"duration_ms", elapsed.Milliseconds(),
		)
		d.record(msg.Kind, "failed", elapsed)
		return
	}

	d.log.Info("notification sent",
		"kind", msg.Kind,
		"to", msg.To,
		"duration_ms", elapsed.Milliseconds(),
	)
	d.record(msg.Kind, "sent", elapsed)
}

func (d *Dispatcher) record(kind Kind, result string, elapsed time.Duration) {
	if d.metrics == nil {
		return
	}
	d.metrics.ObserveNotification(string(kind), result, elapsed)
}

func (d *Dispatcher) setDepth() {
	if d.metrics == nil {
		return
	}
	d.metrics.DispatchQueueDepth.Set(float64(len(d.queue)))
}
