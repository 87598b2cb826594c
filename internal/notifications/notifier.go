package notifications

import "context"

// Kind labels a message for logs and metrics.
type Kind string

const (
	KindVerificationOTP Kind = "verification_otp"
	KindWelcome         Kind = "welcome"
	KindResetLink       Kind = "reset_link"
	KindResetDone       Kind = "reset_done"
)

type Message struct {
	Kind    Kind   `json:"kind"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Notifier delivers one message. Implementations should honour ctx cancellation.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }
