package jobs

import (
	"errors"
	"testing"
)

func TestEncodeDecode_SendEmail(t *testing.T) {
	payload := SendEmailPayload{
		Kind:    "verification_otp",
		From:    "verification@reviewapp.com",
		To:      "a@x.com",
		Subject: "Email Verification",
		HTML:    "<h1>123456</h1>",
	}

	b, err := EncodePayload(JobSendEmail, payload)
	if err != nil {
		t.Fatalf("EncodePayload error: %v", err)
	}

	j, err := NewJob(JobSendEmail, b)
	if err != nil {
		t.Fatalf("NewJob error: %v", err)
	}

	raw, err := Marshal(j)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	back, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if back.ID != j.ID {
		t.Fatalf("id mismatch: %s vs %s", back.ID, j.ID)
	}

	decoded, err := DecodePayload(back)
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}

	p, ok := decoded.(SendEmailPayload)
	if !ok {
		t.Fatalf("expected SendEmailPayload, got %T", decoded)
	}

	if p.To != payload.To || p.HTML != payload.HTML {
		t.Fatalf("payload mismatch: %+v", p)
	}
}

func TestEncodePayload_TypeMismatch(t *testing.T) {
	_, err := EncodePayload(JobSendEmail, struct{ To string }{To: "a@x.com"})
	if !errors.Is(err, ErrPayloadTypeMismatch) {
		t.Fatalf("expected ErrPayloadTypeMismatch, got %v", err)
	}
}

func TestValidatePayload_RequiredFields(t *testing.T) {
	err := ValidatePayload(JobSendEmail, SendEmailPayload{From: "x@y.z", Subject: "s"})
	if !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload, got %v", err)
	}
}

func TestNewJob_InvalidType(t *testing.T) {
	if _, err := NewJob("nope", nil); !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}

func TestUnmarshal_Garbage(t *testing.T) {
	if _, err := Unmarshal([]byte("{not json")); !errors.Is(err, ErrInvalidJob) {
		t.Fatalf("expected ErrInvalidJob, got %v", err)
	}
	if _, err := Unmarshal([]byte(`{"id":"1","type":"other"}`)); !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}
