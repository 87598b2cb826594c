package observability

import (
	"sync/atomic"
	"time"
)

// DeliveryStats keeps process-local counters for the mail worker's /statz endpoint.
type DeliveryStats struct {
	received atomic.Uint64
	sent     atomic.Uint64
	failed   atomic.Uint64
	rejected atomic.Uint64

	// duration stats (nanoseconds)
	durationCount atomic.Uint64
	durationTotal atomic.Int64
	durationMax   atomic.Int64
}

func NewDeliveryStats() *DeliveryStats {
	return &DeliveryStats{}
}

func (m *DeliveryStats) IncReceived() { m.received.Add(1) }
func (m *DeliveryStats) IncSent()     { m.sent.Add(1) }
func (m *DeliveryStats) IncFailed()   { m.failed.Add(1) }

// IncRejected counts queue items that could not be decoded.
func (m *DeliveryStats) IncRejected() { m.rejected.Add(1) }

func (m *DeliveryStats) ObserveDuration(d time.Duration) {
	ns := d.Nanoseconds()
	m.durationCount.Add(1)
	m.durationTotal.Add(ns)

	for {
		curr := m.durationMax.Load()

		if ns <= curr {
			return
		}

		if m.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type DeliveryStatsSnapshot struct {
	Received        uint64        `json:"received"`
	Sent            uint64        `json:"sent"`
	Failed          uint64        `json:"failed"`
	Rejected        uint64        `json:"rejected"`
	DurationCount   uint64        `json:"durationCount"`
	AverageDuration time.Duration `json:"averageDurationNs"`
	MaxDuration     time.Duration `json:"maxDurationNs"`
}

func (m *DeliveryStats) Snapshot() DeliveryStatsSnapshot {
	count := m.durationCount.Load()
	total := m.durationTotal.Load()

	var avg time.Duration

	if count > 0 {
		avg = time.Duration(total / int64(count))
	}

	return DeliveryStatsSnapshot{
		Received:        m.received.Load(),
		Sent:            m.sent.Load(),
		Failed:          m.failed.Load(),
		Rejected:        m.rejected.Load(),
		DurationCount:   count,
		AverageDuration: avg,
		MaxDuration:     time.Duration(m.durationMax.Load()),
	}
}
