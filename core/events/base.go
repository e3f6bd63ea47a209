package events

import "time"

type Kind string

const (
	KindCallStarted Kind = "call.started"
	KindCallEnded   Kind = "call.ended"

	KindUserSpeechStarted     Kind = "user.speech.started"
	KindUserSpeechEnded       Kind = "user.speech.ended"
	KindUserTranscriptPartial Kind = "user.transcript.partial"
	KindUserTranscriptSegment Kind = "user.transcript.segment"
	KindUserUtteranceFinal    Kind = "user.utterance.final"

	KindSynthesisStarted   Kind = "synthesis.started"
	KindSynthesisFinished  Kind = "synthesis.finished"
	KindSynthesisCancelled Kind = "synthesis.cancelled"
	KindSynthesisFailed    Kind = "synthesis.failed"

	KindInterrupted     Kind = "interruption.accepted"
	KindSilencePrompted Kind = "silence.prompted"

	KindTranscriptionReconnecting Kind = "transcription.reconnecting"
	KindTranscriptionReconnected  Kind = "transcription.reconnected"
	KindTranscriptionFailed       Kind = "transcription.failed"
)

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
