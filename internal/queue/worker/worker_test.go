package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/geocoder89/reviewhub/internal/notifications"
	"github.com/geocoder89/reviewhub/internal/observability"
	"github.com/geocoder89/reviewhub/internal/queue/redisclient"
)

type fakeQueue struct {
	mu      sync.Mutex
	items   [][]byte
	popErr  error
	pingErr error
}

func (q *fakeQueue) Push(_ context.Context, _ string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, payload)
	return nil
}

func (q *fakeQueue) Pop(_ context.Context, _ string, timeout time.Duration) ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.popErr != nil {
		return nil, q.popErr
	}
	if len(q.items) == 0 {
		// mimic BRPOP waiting out its timeout
		time.Sleep(timeout)
		return nil, redisclient.ErrEmpty
	}
	it := q.items[0]
	q.items = q.items[1:]
	return it, nil
}

func (q *fakeQueue) Ping(context.Context) error { return q.pingErr }

type recordingSender struct {
	mu   sync.Mutex
	sent []notifications.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg notifications.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func newTestWorker(q *fakeQueue, sender notifications.Notifier) (*Worker, *observability.Prom) {
	prom := observability.NewProm(prometheus.NewRegistry())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Config{QueueKey: "mail", PopTimeout: time.Millisecond}, q, sender, log, nil, prom), prom
}

func enqueue(t *testing.T, q *fakeQueue, msg notifications.Message) {
	t.Helper()
	if err := notifications.NewQueueNotifier(q, "mail").Send(context.Background(), msg); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
}

func TestProcessOne_Empty(t *testing.T) {
	w, _ := newTestWorker(&fakeQueue{}, &recordingSender{})

	took, err := w.ProcessOne(context.Background())
	if took || err != nil {
		t.Fatalf("got (%v, %v), want (false, nil)", took, err)
	}
}

func TestProcessOne_Delivers(t *testing.T) {
	q := &fakeQueue{}
	sender := &recordingSender{}
	w, prom := newTestWorker(q, sender)

	msg := notifications.Message{Kind: notifications.KindWelcome, From: "v@x", To: "a@x.com", Subject: "Welcome Email", HTML: "<h1>hi</h1>"}
	enqueue(t, q, msg)

	took, err := w.ProcessOne(context.Background())
	if !took || err != nil {
		t.Fatalf("got (%v, %v), want (true, nil)", took, err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != msg {
		t.Fatalf("unexpected sends: %+v", sender.sent)
	}

	snap := w.Stats()
	if snap.Received != 1 || snap.Sent != 1 {
		t.Fatalf("unexpected stats: %+v", snap)
	}
	if got := testutil.ToFloat64(prom.NotificationsTotal.WithLabelValues("welcome", "sent")); got != 1 {
		t.Fatalf("sent counter = %v, want 1", got)
	}
}

func TestProcessOne_FailureIsNotRetried(t *testing.T) {
	q := &fakeQueue{}
	sender := &recordingSender{err: errors.New("smtp down")}
	w, _ := newTestWorker(q, sender)

	enqueue(t, q, notifications.Message{Kind: notifications.KindResetLink, From: "s@x", To: "a@x.com", Subject: "Reset Password Link"})

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("delivery failure must not surface as queue error: %v", err)
	}
	if took, _ := w.ProcessOne(context.Background()); took {
		t.Fatalf("failed job must not be requeued")
	}
	if w.Stats().Failed != 1 {
		t.Fatalf("failed = %d, want 1", w.Stats().Failed)
	}
}

func TestProcessOne_RejectsMalformed(t *testing.T) {
	q := &fakeQueue{items: [][]byte{[]byte("{not json")}}
	sender := &recordingSender{}
	w, _ := newTestWorker(q, sender)

	took, err := w.ProcessOne(context.Background())
	if !took || err != nil {
		t.Fatalf("got (%v, %v), want (true, nil)", took, err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("malformed job must not be sent")
	}
	if w.Stats().Rejected != 1 {
		t.Fatalf("rejected = %d, want 1", w.Stats().Rejected)
	}
}

func TestProcessOne_QueueError(t *testing.T) {
	boom := errors.New("connection refused")
	w, _ := newTestWorker(&fakeQueue{popErr: boom}, &recordingSender{})

	if _, err := w.ProcessOne(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected queue error, got %v", err)
	}
}

func TestRun_DrainsAndStops(t *testing.T) {
	q := &fakeQueue{}
	sender := &recordingSender{}
	w, _ := newTestWorker(q, sender)

	for i := 0; i < 3; i++ {
		enqueue(t, q, notifications.Message{Kind: notifications.KindWelcome, From: "v@x", To: "a@x.com", Subject: "Welcome Email"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for w.Stats().Sent < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("run did not stop")
	}

	if w.Stats().Sent != 3 {
		t.Fatalf("sent = %d, want 3", w.Stats().Sent)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	gin.SetMode(gin.TestMode)
	q := &fakeQueue{}
	w, _ := newTestWorker(q, &recordingSender{})
	h := w.HealthHandler(nil)

	get := func(path string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	if got := get("/readyz"); got != http.StatusServiceUnavailable {
		t.Fatalf("readyz before run = %d, want 503", got)
	}

	w.setReady(true)
	if got := get("/readyz"); got != http.StatusOK {
		t.Fatalf("readyz = %d, want 200", got)
	}

	q.pingErr = errors.New("down")
	if got := get("/readyz"); got != http.StatusServiceUnavailable {
		t.Fatalf("readyz with redis down = %d, want 503", got)
	}

	if got := get("/statz"); got != http.StatusOK {
		t.Fatalf("statz = %d", got)
	}
}

func TestExponentialBackoff_Capped(t *testing.T) {
	if d := ExponentialBackoff(0); d < 500*time.Millisecond || d > 750*time.Millisecond {
		t.Fatalf("attempt 0 = %v", d)
	}
	if d := ExponentialBackoff(100); d > 30*time.Second+250*time.Millisecond {
		t.Fatalf("attempt 100 = %v, expected cap", d)
	}
}
