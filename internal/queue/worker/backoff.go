package worker

import (
	"math"
	"math/rand/v2"
	"time"
)

// ExponentialBackoff is the wait before polling again after the queue errored.
// attempt=0 => 500ms, 1 => 1s, 2 => 2s ... capped at 30s.
func ExponentialBackoff(attempt int) time.Duration {
	base := 500 * time.Millisecond
	capDelay := 30 * time.Second

	multiple := math.Pow(2, float64(attempt))
	delay := time.Duration(float64(base) * multiple)

	if delay > capDelay || delay <= 0 {
		delay = capDelay
	}

	// small jitter (0–250ms) so slots do not hammer redis in lockstep
	delay += time.Duration(rand.IntN(250)) * time.Millisecond
	return delay
}
