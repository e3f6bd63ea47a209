package speechtotext

import "github.com/koscakluka/tela-core/core/audio"

// Result is one recognition result for in-progress speech.
type Result struct {
	Text       string
	Confidence float64
}

// Utterance is a finalized stretch of caller speech. Seq is monotonic per
// connection and each sequence is emitted at most once, regardless of whether
// finalization came from a speech-final segment or an utterance-end timeout.
type Utterance struct {
	Seq  uint64
	Text string
}

type TranscriptionOptions struct {
	// PartialTranscriptionCallback is called for interim results of speech
	// still in progress.
	PartialTranscriptionCallback func(result Result)
	// SegmentTranscriptionCallback is called for each finalized segment of the
	// current utterance.
	SegmentTranscriptionCallback func(result Result)
	// UtteranceCallback is called exactly once per finalized utterance.
	UtteranceCallback func(utterance Utterance)

	SpeechStartedCallback func()
	SpeechEndedCallback   func()

	// ClosedCallback is called once when the connection stops reading, with a
	// nil error on a clean close.
	ClosedCallback func(err error)

	Language     string
	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func WithPartialTranscriptionCallback(callback func(result Result)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.PartialTranscriptionCallback = callback
	}
}

func WithSegmentTranscriptionCallback(callback func(result Result)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SegmentTranscriptionCallback = callback
	}
}

func WithUtteranceCallback(callback func(utterance Utterance)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.UtteranceCallback = callback
	}
}

func WithSpeechStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithSpeechEndedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechEndedCallback = callback
	}
}

func WithClosedCallback(callback func(err error)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ClosedCallback = callback
	}
}

func WithLanguage(language string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if language != "" {
			o.Language = language
		}
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EncodingInfo = encodingInfo
	}
}
