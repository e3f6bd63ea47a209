package callruntime

import (
	"strings"

	"github.com/koscakluka/tela-core/core/transcripts"
)

type InterruptionReason string

const (
	InterruptionReasonTooShort        InterruptionReason = "too short"
	InterruptionReasonAcknowledgement InterruptionReason = "acknowledgement"
	InterruptionReasonLowConfidence   InterruptionReason = "low confidence"
	InterruptionReasonTooFewWords     InterruptionReason = "too few meaningful words"
	InterruptionReasonAccepted        InterruptionReason = "accepted"
)

// InterruptionDecision is produced per partial transcript while synthesis is
// playing. It is never persisted.
type InterruptionDecision struct {
	ShouldInterrupt bool
	Reason          InterruptionReason
}

// interruptionArbiter decides whether caller speech should barge in on
// in-progress synthesis. Checks run in order; the first rejection wins.
type interruptionArbiter struct {
	minConfidence      float64
	minMeaningfulWords int
}

func newInterruptionArbiter(minConfidence float64, minMeaningfulWords int) interruptionArbiter {
	return interruptionArbiter{
		minConfidence:      minConfidence,
		minMeaningfulWords: minMeaningfulWords,
	}
}

func (a interruptionArbiter) Decide(t transcripts.Transcript) InterruptionDecision {
	text := strings.TrimSpace(t.Text)

	if len([]rune(text)) < 2 || transcripts.IsNoise(text) {
		return InterruptionDecision{Reason: InterruptionReasonTooShort}
	}
	if transcripts.IsAcknowledgement(text) {
		return InterruptionDecision{Reason: InterruptionReasonAcknowledgement}
	}
	if t.Confidence < a.minConfidence {
		return InterruptionDecision{Reason: InterruptionReasonLowConfidence}
	}
	if len(transcripts.MeaningfulWords(text)) < a.minMeaningfulWords {
		return InterruptionDecision{Reason: InterruptionReasonTooFewWords}
	}

	return InterruptionDecision{ShouldInterrupt: true, Reason: InterruptionReasonAccepted}
}
