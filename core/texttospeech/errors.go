package texttospeech

import (
	"errors"
	"fmt"
)

// SynthesisError is a per-utterance synthesis failure. Transient failures may
// be retried; the call itself always continues either way.
type SynthesisError struct {
	Err       error
	Transient bool
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis error: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a synthesis failure worth retrying.
func IsTransient(err error) bool {
	var synthErr *SynthesisError
	return errors.As(err, &synthErr) && synthErr.Transient
}
