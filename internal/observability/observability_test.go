package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/trace"
)

func TestClassifyDBErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"pg unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), "unique_violation"},
		{"pg other", &pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"connection text", errors.New("dial tcp: connection refused"), "connection"},
		{"unknown", errors.New("boom"), "unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyDBErr(tc.err); got != tc.want {
				t.Fatalf("classifyDBErr(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestObserveDB_NoResultIsNotAnError(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users.get_by_id", func() error { return mongo.ErrNoDocuments })
	_ = p.ObserveDB("users.get_by_email", func() error { return fmt.Errorf("scan: %w", pgx.ErrNoRows) })

	if n := testutil.CollectAndCount(p.DbErrorsTotal); n != 0 {
		t.Fatalf("expected no error series, got %d", n)
	}

	err := p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })
	if err == nil {
		t.Fatalf("ObserveDB must return fn's error")
	}
	if v := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")); v != 1 {
		t.Fatalf("unique_violation count = %v, want 1", v)
	}
}

func TestObserveNotification(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveNotification("email", "sent", 10*time.Millisecond)
	p.ObserveNotification("email", "dropped", 0)
	p.ObserveNotification("email", "dropped", 0)

	if v := testutil.ToFloat64(p.NotificationsTotal.WithLabelValues("email", "dropped")); v != 2 {
		t.Fatalf("dropped = %v, want 2", v)
	}
	if v := testutil.ToFloat64(p.NotificationsTotal.WithLabelValues("email", "sent")); v != 1 {
		t.Fatalf("sent = %v, want 1", v)
	}
}

func TestDeliveryStats_Snapshot(t *testing.T) {
	s := NewDeliveryStats()
	s.IncReceived()
	s.IncReceived()
	s.IncSent()
	s.IncFailed()
	s.ObserveDuration(10 * time.Millisecond)
	s.ObserveDuration(30 * time.Millisecond)

	snap := s.Snapshot()
	if snap.Received != 2 || snap.Sent != 1 || snap.Failed != 1 || snap.Rejected != 0 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
	if snap.AverageDuration != 20*time.Millisecond {
		t.Fatalf("avg = %s, want 20ms", snap.AverageDuration)
	}
	if snap.MaxDuration != 30*time.Millisecond {
		t.Fatalf("max = %s, want 30ms", snap.MaxDuration)
	}
}

func TestLogger_StampsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.InfoContext(ctx, "hello")
	log.Debug("hidden outside dev")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "hello" {
		t.Fatalf("msg = %v", line["msg"])
	}
	if line["trace_id"] != traceID.String() || line["span_id"] != spanID.String() {
		t.Fatalf("missing trace ids: %v", line)
	}
}
