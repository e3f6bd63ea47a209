package speechtotext

import "fmt"

// ConnectionError is a recoverable transport failure: the session may
// reconnect with backoff.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("transcription connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError is fatal for the connection and is never retried.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("transcription auth error: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitError means the provider is shedding load; new attempts must wait
// out the cooldown window instead of retrying immediately.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("transcription rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }
