package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes messages to the log instead of sending them. Used in dev.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification",
		"kind", msg.Kind,
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
	)
	// the body carries OTPs and reset links
	n.log.DebugContext(ctx, "notification body", "kind", msg.Kind, "html", msg.HTML)
	return nil
}
