package callruntime

import "time"

// BackoffPolicy drives reconnect scheduling: exponential growth from
// BaseDelay, capped at MaxDelay, giving up after MaxAttempts.
type BackoffPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

func defaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    15 * time.Second,
		MaxAttempts: 6,
	}
}

// Delay returns the wait before the given attempt, starting at 1. The delay
// doubles per attempt and never exceeds MaxDelay.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Exhausted reports whether the attempt count has passed the cap.
func (p BackoffPolicy) Exhausted(attempt int) bool {
	return attempt > p.MaxAttempts
}

// RetryPolicy drives per-utterance synthesis retries: linearly increasing
// delay, bounded attempts.
type RetryPolicy struct {
	Delay       time.Duration
	MaxAttempts int
}

func defaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Delay: 250 * time.Millisecond, MaxAttempts: 3}
}

// DelayFor returns the wait after the given failed attempt, starting at 1.
func (p RetryPolicy) DelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * p.Delay
}
