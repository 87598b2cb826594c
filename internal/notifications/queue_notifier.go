package notifications

import (
	"context"
	"fmt"

	"github.com/geocoder89/reviewhub/internal/jobs"
)

type Enqueuer interface {
	Push(ctx context.Context, key string, payload []byte) error
}

// QueueNotifier hands messages to cmd/worker through a Redis list. Send succeeds once
// the job is queued; actual delivery happens in the worker.
type QueueNotifier struct {
	q   Enqueuer
	key string
}

func NewQueueNotifier(q Enqueuer, key string) *QueueNotifier {
	return &QueueNotifier{q: q, key: key}
}

func (n *QueueNotifier) Send(ctx context.Context, msg Message) error {
	payload, err := jobs.EncodePayload(jobs.JobSendEmail, jobs.SendEmailPayload{
		Kind:    string(msg.Kind),
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("encode email job: %w", err)
	}

	j, err := jobs.NewJob(jobs.JobSendEmail, payload)
	if err != nil {
		return err
	}

	raw, err := jobs.Marshal(j)
	if err != nil {
		return err
	}

	return n.q.Push(ctx, n.key, raw)
}

// MessageFromJob turns a queued job back into a Message.
func MessageFromJob(j jobs.Job) (Message, error) {
	decoded, err := jobs.DecodePayload(j)
	if err != nil {
		return Message{}, err
	}

	p, ok := decoded.(jobs.SendEmailPayload)
	if !ok {
		return Message{}, jobs.ErrPayloadTypeMismatch
	}

	return Message{
		Kind:    Kind(p.Kind),
		From:    p.From,
		To:      p.To,
		Subject: p.Subject,
		HTML:    p.HTML,
	}, nil
}
