package jobs

import "strings"

// ValidatePayload checks the fields the worker cannot do without.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	trim := func(s string) string { return strings.TrimSpace(s) }

	switch t {
	case JobSendEmail:
		var p SendEmailPayload
		switch v := payload.(type) {
		case SendEmailPayload:
			p = v
		case *SendEmailPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.To) == "" || trim(p.From) == "" || trim(p.Subject) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
