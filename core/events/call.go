package events

type CallStarted struct {
	Base
	CallID string
}

func (e CallStarted) String() string { return "call started: " + e.CallID }

func NewCallStarted(callID string) CallStarted {
	return CallStarted{Base: NewBase(KindCallStarted), CallID: callID}
}

type CallEnded struct {
	Base
	CallID string
	Reason string
}

func (e CallEnded) String() string { return "call ended: " + e.CallID + " (" + e.Reason + ")" }

func NewCallEnded(callID, reason string) CallEnded {
	return CallEnded{Base: NewBase(KindCallEnded), CallID: callID, Reason: reason}
}
