package onetime

import (
	"context"
	"log/slog"
	"time"
)

// Reaper deletes expired tokens on an interval. MongoDB's TTL index does the same job
// server side; the reaper covers the Postgres and in-memory stores.
type Reaper struct {
	stores   []*Store
	interval time.Duration
	log      *slog.Logger
}

func NewReaper(interval time.Duration, log *slog.Logger, stores ...*Store) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{stores: stores, interval: interval, log: log}
}

func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

func (r *Reaper) Sweep(ctx context.Context) {
	for _, s := range r.stores {
		n, err := s.Purge(ctx)
		if err != nil {
			r.log.Error("token reaper failed", "purpose", s.kind.Purpose, "err", err)
			continue
		}
		if n > 0 {
			r.log.Debug("expired tokens removed", "purpose", s.kind.Purpose, "count", n)
		}
	}
}
