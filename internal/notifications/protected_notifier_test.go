package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyNotifier struct {
	calls int
	err   error
}

func (f *flakyNotifier) Send(ctx context.Context, msg Message) error {
	f.calls++
	return f.err
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("boom")}
	p := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute})

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	_ = p.Send(context.Background(), Message{})
	_ = p.Send(context.Background(), Message{})

	if p.State() != CircuitOpen {
		t.Fatalf("state = %s, want open", p.State())
	}

	if err := p.Send(context.Background(), Message{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("inner calls = %d, want 2", inner.calls)
	}
}

func TestProtectedNotifier_HalfOpenRecovers(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("boom")}
	p := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Minute})

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	_ = p.Send(context.Background(), Message{})
	if p.State() != CircuitOpen {
		t.Fatalf("state = %s, want open", p.State())
	}

	now = now.Add(2 * time.Minute)
	inner.err = nil

	if err := p.Send(context.Background(), Message{}); err != nil {
		t.Fatalf("trial send: %v", err)
	}
	if p.State() != CircuitClosed {
		t.Fatalf("state = %s, want closed", p.State())
	}
}

func TestProtectedNotifier_FailedTrialReopens(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("boom")}
	p := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 3, Cooldown: time.Minute})

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_ = p.Send(context.Background(), Message{})
	}

	now = now.Add(2 * time.Minute)
	_ = p.Send(context.Background(), Message{})

	if p.State() != CircuitOpen {
		t.Fatalf("state = %s, want open after failed trial", p.State())
	}
}

func TestProtectedNotifier_AppliesTimeout(t *testing.T) {
	slow := NotifierFunc(func(ctx context.Context, msg Message) error {
		<-ctx.Done()
		return ctx.Err()
	})
	p := NewProtectedNotifier(slow, ProtectedNotifierConfig{Timeout: 20 * time.Millisecond})

	if err := p.Send(context.Background(), Message{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
