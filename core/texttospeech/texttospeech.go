// Package texttospeech declares the provider-agnostic streaming synthesis
// contract. A Synthesizer builds one SpeechGenerator per utterance; the
// generator streams audio chunks through callbacks until completion or
// cancellation.
package texttospeech

import "context"

// Synthesizer opens speech generators. A Synthesizer is shared across
// sessions and must be safe for concurrent use.
type Synthesizer interface {
	NewSpeechGenerator(ctx context.Context, opts ...TextToSpeechOption) (SpeechGenerator, error)
}

// SpeechGenerator is one in-flight synthesis. At most one generator is active
// per call session; the session cancels the old one before opening the next.
type SpeechGenerator interface {
	// SendText queues text for synthesis. Speech is generated in the order
	// text is sent. Errors once EndOfText, Cancel or Close has been called.
	SendText(text string) error
	// EndOfText signals that no more text will be sent. The generator closes
	// itself after the remaining speech has been delivered.
	EndOfText() error
	// Cancel stops speech generation immediately. No audio is delivered after
	// Cancel returns, even if the provider keeps sending chunks. Idempotent.
	Cancel() error
	// Close releases the generator without waiting for remaining speech.
	// Idempotent.
	Close() error
}
