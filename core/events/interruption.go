package events

type Interrupted struct {
	Base
	// Transcript is the caller speech that triggered the barge-in.
	Transcript string
	Reason     string
}

func (e Interrupted) String() string { return "interrupted: " + e.Transcript }

func NewInterrupted(transcript, reason string) Interrupted {
	return Interrupted{Base: NewBase(KindInterrupted), Transcript: transcript, Reason: reason}
}

type SilencePrompted struct {
	Base
}

func (e SilencePrompted) String() string { return "silence prompted" }

func NewSilencePrompted() SilencePrompted {
	return SilencePrompted{Base: NewBase(KindSilencePrompted)}
}
