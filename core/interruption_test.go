package callruntime

import (
	"testing"

	"github.com/koscakluka/tela-core/core/transcripts"
)

func TestArbiterAcceptsMeaningfulSpeech(t *testing.T) {
	arbiter := newInterruptionArbiter(0.7, 2)

	decision := arbiter.Decide(transcripts.Transcript{
		Text:       "wait, I changed my mind about September",
		Confidence: 0.9,
	})
	if !decision.ShouldInterrupt {
		t.Fatalf("expected interruption, got %+v", decision)
	}
	if decision.Reason != InterruptionReasonAccepted {
		t.Fatalf("expected accepted reason, got %q", decision.Reason)
	}
}

func TestArbiterRejectsAcknowledgements(t *testing.T) {
	arbiter := newInterruptionArbiter(0.7, 2)

	for _, text := range []string{"okay", "Okay.", "yeah", "mm-hmm", "sure"} {
		decision := arbiter.Decide(transcripts.Transcript{Text: text, Confidence: 0.99})
		if decision.ShouldInterrupt {
			t.Errorf("expected %q rejected, got %+v", text, decision)
		}
	}

	decision := arbiter.Decide(transcripts.Transcript{Text: "okay", Confidence: 1.0})
	if decision.Reason != InterruptionReasonAcknowledgement {
		t.Fatalf("expected acknowledgement reason, got %q", decision.Reason)
	}
}

func TestArbiterRejectsLowConfidence(t *testing.T) {
	arbiter := newInterruptionArbiter(0.7, 2)

	decision := arbiter.Decide(transcripts.Transcript{
		Text:       "please stop talking now",
		Confidence: 0.4,
	})
	if decision.ShouldInterrupt {
		t.Fatalf("expected rejection, got %+v", decision)
	}
	if decision.Reason != InterruptionReasonLowConfidence {
		t.Fatalf("expected low confidence reason, got %q", decision.Reason)
	}
}

func TestArbiterRejectsTooFewMeaningfulWords(t *testing.T) {
	arbiter := newInterruptionArbiter(0.7, 2)

	// Fillers are excluded from the count: one meaningful word is not enough.
	decision := arbiter.Decide(transcripts.Transcript{Text: "um uh wait", Confidence: 0.95})
	if decision.ShouldInterrupt {
		t.Fatalf("expected rejection, got %+v", decision)
	}
	if decision.Reason != InterruptionReasonTooFewWords {
		t.Fatalf("expected word-count reason, got %q", decision.Reason)
	}
}

func TestArbiterRejectsNoise(t *testing.T) {
	arbiter := newInterruptionArbiter(0.7, 2)

	for _, text := range []string{"", ".", "?!", "x", "um uh"} {
		decision := arbiter.Decide(transcripts.Transcript{Text: text, Confidence: 0.99})
		if decision.ShouldInterrupt {
			t.Errorf("expected %q rejected, got %+v", text, decision)
		}
	}
}
