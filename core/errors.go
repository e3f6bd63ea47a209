package callruntime

import "errors"

var (
	// ErrSessionClosed is returned for operations attempted after End.
	ErrSessionClosed = errors.New("call session closed")
	// ErrDuplicateCall is returned when a call id is already registered.
	ErrDuplicateCall = errors.New("call already registered")
	// ErrSpeechInterrupted is delivered on a speak operation's done channel
	// when the request was cancelled, by barge-in, a newer speak, or End.
	ErrSpeechInterrupted = errors.New("speech interrupted")
)
