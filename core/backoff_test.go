package callruntime

import (
	"testing"
	"time"
)

func TestBackoffDelaysAreNonDecreasingAndBounded(t *testing.T) {
	policy := BackoffPolicy{
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
		MaxAttempts: 10,
	}

	previous := time.Duration(0)
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		delay := policy.Delay(attempt)
		if delay < previous {
			t.Fatalf("delay decreased at attempt %d: %v < %v", attempt, delay, previous)
		}
		if delay > policy.MaxDelay {
			t.Fatalf("delay exceeded cap at attempt %d: %v", attempt, delay)
		}
		previous = delay
	}

	if got := policy.Delay(1); got != 500*time.Millisecond {
		t.Fatalf("expected base delay on first attempt, got %v", got)
	}
	if got := policy.Delay(2); got != time.Second {
		t.Fatalf("expected doubled delay on second attempt, got %v", got)
	}
	if got := policy.Delay(100); got != policy.MaxDelay {
		t.Fatalf("expected capped delay on late attempt, got %v", got)
	}
}

func TestBackoffExhaustion(t *testing.T) {
	policy := BackoffPolicy{BaseDelay: time.Second, MaxDelay: time.Minute, MaxAttempts: 3}

	for attempt := 1; attempt <= 3; attempt++ {
		if policy.Exhausted(attempt) {
			t.Fatalf("expected attempt %d within budget", attempt)
		}
	}
	if !policy.Exhausted(4) {
		t.Fatalf("expected attempt 4 to be exhausted")
	}
}

func TestRetryDelaysGrowLinearly(t *testing.T) {
	policy := RetryPolicy{Delay: 200 * time.Millisecond, MaxAttempts: 3}

	if got := policy.DelayFor(1); got != 200*time.Millisecond {
		t.Fatalf("expected 200ms after first attempt, got %v", got)
	}
	if got := policy.DelayFor(2); got != 400*time.Millisecond {
		t.Fatalf("expected 400ms after second attempt, got %v", got)
	}
	if got := policy.DelayFor(3); got != 600*time.Millisecond {
		t.Fatalf("expected 600ms after third attempt, got %v", got)
	}
}
