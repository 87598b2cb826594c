package worker

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/reviewhub/internal/jobs"
	"github.com/geocoder89/reviewhub/internal/notifications"
	"github.com/geocoder89/reviewhub/internal/queue/redisclient"
)

// ProcessOne pops at most one job and attempts delivery. It reports whether a job was
// taken; the error is only set when the queue itself failed. Delivery failures are
// logged and counted, never retried.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	raw, err := w.queue.Pop(ctx, w.cfg.QueueKey, w.cfg.PopTimeout)
	if err != nil {
		if errors.Is(err, redisclient.ErrEmpty) {
			return false, nil
		}
		return false, err
	}
	w.stats.IncReceived()

	j, err := jobs.Unmarshal(raw)
	if err != nil {
		w.reject(err)
		return true, nil
	}

	msg, err := notifications.MessageFromJob(j)
	if err != nil {
		w.reject(err, "job_id", j.ID)
		return true, nil
	}

	// the send must not be cut short by shutdown; ShutdownGrace bounds it instead
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.SendTimeout)
	defer cancel()

	start := time.Now()
	err = w.sender.Send(sendCtx, msg)
	elapsed := time.Since(start)
	w.stats.ObserveDuration(elapsed)

	attrs := []any{
		"job_id", j.ID,
		"kind", msg.Kind,
		"to", msg.To,
		"queued_ms", start.Sub(j.EnqueuedAt).Milliseconds(),
		"duration_ms", elapsed.Milliseconds(),
	}

	if err != nil {
		w.stats.IncFailed()
		w.observe(msg.Kind, "failed", elapsed)
		w.log.Error("email delivery failed", append(attrs, "err", err)...)
		return true, nil
	}

	w.stats.IncSent()
	w.observe(msg.Kind, "sent", elapsed)
	w.log.Info("email delivered", attrs...)
	return true, nil
}

func (w *Worker) reject(err error, attrs ...any) {
	w.stats.IncRejected()
	w.log.Error("dropping malformed job", append(attrs, "err", err)...)
}

func (w *Worker) observe(kind notifications.Kind, result string, d time.Duration) {
	if w.prom == nil {
		return
	}
	w.prom.ObserveNotification(string(kind), result, d)
}
