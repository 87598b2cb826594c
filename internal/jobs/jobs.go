package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// a Job is one unit of asynchronous work as it travels through the Redis list.
type Job struct {
	ID         string          `json:"id"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	RequestID  string          `json:"requestId,omitempty"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

func NewJob(t JobType, payloadJSON []byte) (Job, error) {
	if !t.IsValid() {
		return Job{}, ErrInvalidJobType
	}

	return Job{
		ID:         uuid.NewString(),
		Type:       t,
		Payload:    payloadJSON,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}
