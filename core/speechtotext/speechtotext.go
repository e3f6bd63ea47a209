// Package speechtotext declares the provider-agnostic streaming recognition
// contract plus the shared admission gate that bounds concurrent provider
// connections across all calls.
package speechtotext

import "context"

// Connection is one live streaming recognition channel. Connections are
// replaced, never reused, when a session reconnects.
type Connection interface {
	// SendAudio forwards a raw media frame. It must not block on provider I/O
	// beyond a buffered socket write.
	SendAudio(audio []byte) error
	// Close tears the connection down. It is idempotent and must not fail if
	// the underlying channel is already gone.
	Close(ctx context.Context) error
}

// Dialer opens recognition connections. A Dialer is shared across sessions
// and must be safe for concurrent use.
type Dialer interface {
	Dial(ctx context.Context, opts ...TranscriptionOption) (Connection, error)
}
