package engine

import (
	"math"
	"time"
)

// Outcome is the retry policy's verdict for a failed execution.
type Outcome struct {
	// Dead means the attempt count reached the retry limit and the
	// job moves to the DLQ.
	Dead bool
	// Delay is how long the job stays ineligible before its next run.
	// Only meaningful when Dead is false.
	Delay time.Duration
}

// Decide applies the retry policy. attempts is the post-failure count,
// already incremented. The delay grows as base^attempts seconds; a
// positive capSeconds bounds it, zero leaves it uncapped.
func Decide(attempts, retryLimit, base, capSeconds int) Outcome {
	if attempts >= retryLimit {
		return Outcome{Dead: true}
	}

	delay := time.Duration(math.Pow(float64(base), float64(attempts))) * time.Second
	if capSeconds > 0 {
		if capDur := time.Duration(capSeconds) * time.Second; delay > capDur {
			delay = capDur
		}
	}
	return Outcome{Delay: delay}
}
