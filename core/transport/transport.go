// Package transport declares the contract the telephony media adapter
// implements. The runtime never terminates the media protocol itself; it
// only pushes synthesized audio back through this interface and asks it to
// drop anything still queued when the caller barges in.
package transport

// Adapter is the session-facing surface of a telephony media connection.
//
// Implementations must be safe for concurrent use: synthesized audio is
// delivered from provider goroutines while ClearBufferedAudio and
// CloseConnection may be called from the session's own lifecycle paths.
type Adapter interface {
	// SendAudio queues a chunk of synthesized audio for playback to the caller.
	SendAudio(audio []byte) error
	// ClearBufferedAudio discards any audio queued but not yet played.
	ClearBufferedAudio() error
	// CloseConnection tears down the media connection for this call.
	CloseConnection() error
}
