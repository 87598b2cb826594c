package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestManager_IssueAndVerify(t *testing.T) {
	m := NewManager("test-secret")

	raw, err := m.IssueBearerToken("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.VerifyBearerToken(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Fatalf("userId = %q, want user-123", claims.UserID)
	}
	if claims.ExpiresAt != nil {
		t.Fatalf("bearer token must not carry an expiry, got %v", claims.ExpiresAt)
	}
}

func TestManager_OldTokenStillVerifies(t *testing.T) {
	m := NewManager("test-secret")
	m.now = func() time.Time { return time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC) }

	raw, err := m.IssueBearerToken("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = time.Now
	if _, err := m.VerifyBearerToken(raw); err != nil {
		t.Fatalf("expected old token to verify, got %v", err)
	}
}

func TestManager_RejectsForeignSecret(t *testing.T) {
	raw, err := NewManager("secret-a").IssueBearerToken("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = NewManager("secret-b").VerifyBearerToken(raw)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestManager_RejectsTamperedPayload(t *testing.T) {
	m := NewManager("test-secret")
	raw, _ := m.IssueBearerToken("user-1")
	other, _ := m.IssueBearerToken("user-2")

	parts := strings.Split(raw, ".")
	otherParts := strings.Split(other, ".")
	forged := parts[0] + "." + otherParts[1] + "." + parts[2]

	if _, err := m.VerifyBearerToken(forged); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for forged token, got %v", err)
	}
}

func TestManager_RejectsNoneAlgorithm(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err := NewManager("test-secret").VerifyBearerToken(raw); err == nil {
		t.Fatalf("expected alg=none token to be rejected")
	}
}

func TestManager_RejectsGarbage(t *testing.T) {
	if _, err := NewManager("test-secret").VerifyBearerToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error for garbage token")
	}
}

func TestManager_IssueRequiresUserID(t *testing.T) {
	if _, err := NewManager("s").IssueBearerToken(""); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected ErrMissingSubject, got %v", err)
	}
}
