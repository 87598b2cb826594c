package auth

import "testing"

func TestGenerateOneTimeCode_DigitsOnly(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := GenerateOneTimeCode(6)
		if len(code) != 6 {
			t.Fatalf("len = %d, want 6", len(code))
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit %q in %q", r, code)
			}
		}
	}
}

func TestGenerateOneTimeCode_DefaultLength(t *testing.T) {
	if got := len(GenerateOneTimeCode(0)); got != DefaultOTPLength {
		t.Fatalf("len = %d, want %d", got, DefaultOTPLength)
	}
}

func TestGenerateOpaqueSecret(t *testing.T) {
	a, err := GenerateOpaqueSecret()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := GenerateOpaqueSecret()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(a) != 60 {
		t.Fatalf("len = %d, want 60 hex chars", len(a))
	}
	if a == b {
		t.Fatalf("expected distinct secrets")
	}
}
