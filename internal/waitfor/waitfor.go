// Package waitfor provides a bounded poll-with-backoff primitive used wherever
// the client has to wait out an eventually-consistent write without blocking.
// Every polling loop in the codebase goes through Poll so that the attempt
// bound and the terminal outcome are uniform.
package waitfor

import (
	"context"
	"time"
)

// Outcome is the terminal state of a Poll call.
type Outcome int

const (
	// Satisfied means the probe reported success before the attempts ran out.
	Satisfied Outcome = iota
	// Exhausted means every attempt was used and the probe never succeeded.
	Exhausted
	// Canceled means the context ended before the probe succeeded.
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Satisfied:
		return "satisfied"
	case Exhausted:
		return "exhausted"
	case Canceled:
		return "canceled"
	}
	return "unknown"
}

// Probe reports whether the awaited condition holds. A non-nil error does not
// abort the loop; the condition is simply treated as unmet and the error from
// the final attempt is returned alongside Exhausted.
type Probe func(ctx context.Context) (bool, error)

// Policy bounds a polling loop. Interval is the delay between attempts;
// Increment, if non-zero, is added to the delay after each attempt.
type Policy struct {
	Attempts  int
	Interval  time.Duration
	Increment time.Duration
}

// Poll runs probe up to policy.Attempts times. The first attempt happens
// immediately; subsequent attempts wait out the (possibly growing) interval.
func Poll(ctx context.Context, policy Policy, probe Probe) (Outcome, error) {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}

	var lastErr error
	delay := policy.Interval
	for attempt := 0; attempt < policy.Attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return Canceled, ctx.Err()
			case <-timer.C:
			}
			delay += policy.Increment
		}

		ok, err := probe(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return Satisfied, nil
		}
	}
	return Exhausted, lastErr
}
