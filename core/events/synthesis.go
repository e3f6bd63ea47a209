package events

type SynthesisStarted struct {
	Base
	RequestID string
	Text      string
}

func (e SynthesisStarted) String() string { return "synthesis started: " + e.Text }

func NewSynthesisStarted(requestID, text string) SynthesisStarted {
	return SynthesisStarted{Base: NewBase(KindSynthesisStarted), RequestID: requestID, Text: text}
}

type SynthesisFinished struct {
	Base
	RequestID string
}

func (e SynthesisFinished) String() string { return "synthesis finished" }

func NewSynthesisFinished(requestID string) SynthesisFinished {
	return SynthesisFinished{Base: NewBase(KindSynthesisFinished), RequestID: requestID}
}

type SynthesisCancelled struct {
	Base
	RequestID string
	Reason    string
}

func (e SynthesisCancelled) String() string { return "synthesis cancelled: " + e.Reason }

func NewSynthesisCancelled(requestID, reason string) SynthesisCancelled {
	return SynthesisCancelled{Base: NewBase(KindSynthesisCancelled), RequestID: requestID, Reason: reason}
}

type SynthesisFailed struct {
	Base
	RequestID string
	Err       error
}

func (e SynthesisFailed) String() string { return "synthesis failed" }

func NewSynthesisFailed(requestID string, err error) SynthesisFailed {
	return SynthesisFailed{Base: NewBase(KindSynthesisFailed), RequestID: requestID, Err: err}
}
