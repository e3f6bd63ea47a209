package events

import "fmt"

type UserTranscriptPartial struct {
	Base
	Transcript string
	Confidence float64
}

func (e UserTranscriptPartial) String() string { return e.Transcript + "..." }

func NewUserTranscriptPartial(transcript string, confidence float64) UserTranscriptPartial {
	return UserTranscriptPartial{
		Base:       NewBase(KindUserTranscriptPartial),
		Transcript: transcript,
		Confidence: confidence,
	}
}

// UserTranscriptSegment is a finalized fragment of the utterance under
// construction; the full utterance follows as UserUtteranceFinal.
type UserTranscriptSegment struct {
	Base
	Transcript string
	Confidence float64
}

func (e UserTranscriptSegment) String() string { return e.Transcript }

func NewUserTranscriptSegment(transcript string, confidence float64) UserTranscriptSegment {
	return UserTranscriptSegment{
		Base:       NewBase(KindUserTranscriptSegment),
		Transcript: transcript,
		Confidence: confidence,
	}
}

type UserUtteranceFinal struct {
	Base
	// Seq is the monotonic utterance sequence assigned by the transcription
	// connection. Each sequence is delivered at most once.
	Seq        uint64
	Transcript string
}

func (e UserUtteranceFinal) String() string { return e.Transcript }

func NewUserUtteranceFinal(seq uint64, transcript string) UserUtteranceFinal {
	return UserUtteranceFinal{
		Base:       NewBase(KindUserUtteranceFinal),
		Seq:        seq,
		Transcript: transcript,
	}
}

type UserSpeechStarted struct {
	Base
}

func (e UserSpeechStarted) String() string { return "user speech started" }

func NewUserSpeechStarted() UserSpeechStarted {
	return UserSpeechStarted{Base: NewBase(KindUserSpeechStarted)}
}

type UserSpeechEnded struct {
	Base
}

func (e UserSpeechEnded) String() string { return "user speech ended" }

func NewUserSpeechEnded() UserSpeechEnded {
	return UserSpeechEnded{Base: NewBase(KindUserSpeechEnded)}
}

type TranscriptionReconnecting struct {
	Base
	Attempt int
}

func (e TranscriptionReconnecting) String() string {
	return fmt.Sprintf("transcription reconnecting (attempt %d)", e.Attempt)
}

func NewTranscriptionReconnecting(attempt int) TranscriptionReconnecting {
	return TranscriptionReconnecting{Base: NewBase(KindTranscriptionReconnecting), Attempt: attempt}
}

type TranscriptionReconnected struct {
	Base
	Attempt int
}

func (e TranscriptionReconnected) String() string {
	return fmt.Sprintf("transcription reconnected (attempt %d)", e.Attempt)
}

func NewTranscriptionReconnected(attempt int) TranscriptionReconnected {
	return TranscriptionReconnected{Base: NewBase(KindTranscriptionReconnected), Attempt: attempt}
}

type TranscriptionFailed struct {
	Base
	Err error
}

func (e TranscriptionFailed) String() string { return "transcription failed" }

func NewTranscriptionFailed(err error) TranscriptionFailed {
	return TranscriptionFailed{Base: NewBase(KindTranscriptionFailed), Err: err}
}
