package notifications

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLogNotifier_KeepsBodyOutOfInfo(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	msg := Templates{FromVerification: "v@x"}.VerificationOTP("a@x.com", "482913")
	if err := NewLogNotifier(log).Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"subject":"Email Verification"`) {
		t.Fatalf("expected subject in log, got %s", out)
	}
	if strings.Contains(out, "482913") {
		t.Fatalf("otp leaked at info level: %s", out)
	}
}

func TestLogNotifier_BodyAtDebug(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	msg := Templates{FromVerification: "v@x"}.VerificationOTP("a@x.com", "482913")
	if err := NewLogNotifier(log).Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(buf.String(), "482913") {
		t.Fatalf("expected body at debug level, got %s", buf.String())
	}
}
