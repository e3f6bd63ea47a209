package transcripts

import "testing"

func TestIsNoiseDropsContentlessTranscripts(t *testing.T) {
	for _, text := range []string{
		"",
		"   ",
		".",
		"?!...",
		"123 456",
		"um",
		"uh um hmm",
		"mm-hmm",
	} {
		if !IsNoise(text) {
			t.Errorf("expected %q to be noise", text)
		}
	}
}

func TestIsNoiseKeepsRealSpeech(t *testing.T) {
	for _, text := range []string{
		"wait a moment",
		"I changed my mind",
		"um actually no",
		"привет как дела",
		"你好",
		"נעים מאוד",
	} {
		if IsNoise(text) {
			t.Errorf("expected %q to be kept", text)
		}
	}
}

func TestIsAcknowledgement(t *testing.T) {
	for text, want := range map[string]bool{
		"okay":            true,
		"Okay.":           true,
		"yeah":            true,
		"mm-hmm":          true,
		"sure":            true,
		"okay but listen": false,
		"wait":            false,
		"":                false,
	} {
		if got := IsAcknowledgement(text); got != want {
			t.Errorf("IsAcknowledgement(%q) = %t, want %t", text, got, want)
		}
	}
}

func TestMeaningfulWordsExcludesFillers(t *testing.T) {
	words := MeaningfulWords("um wait, uh I changed my mind")
	want := []string{"wait", "i", "changed", "my", "mind"}
	if len(words) != len(want) {
		t.Fatalf("expected %d words, got %d (%v)", len(want), len(words), words)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word %d: expected %q, got %q", i, want[i], words[i])
		}
	}
}

func TestSanitizerDropsLowConfidence(t *testing.T) {
	sanitizer := NewSanitizer(WithMinConfidence(0.6))

	verdict := sanitizer.Check(Transcript{Text: "wait a second", Confidence: 0.4})
	if verdict.Forward || verdict.Log {
		t.Fatalf("expected low-confidence transcript dropped, got %+v", verdict)
	}
	if verdict.Reason != "low confidence" {
		t.Fatalf("expected low confidence reason, got %q", verdict.Reason)
	}

	verdict = sanitizer.Check(Transcript{Text: "wait a second", Confidence: 0.9})
	if !verdict.Forward {
		t.Fatalf("expected confident transcript forwarded, got %+v", verdict)
	}
}

func TestSanitizerSuppressesNearDuplicatePartials(t *testing.T) {
	sanitizer := NewSanitizer(WithMinConfidence(0.3), WithSimilarityThresholds(0.8, 0.95))

	first := sanitizer.Check(Transcript{Text: "I would like to book", Confidence: 0.9})
	if !first.Forward || !first.Log {
		t.Fatalf("expected first partial forwarded and logged, got %+v", first)
	}

	// Identical re-emission: neither forwarded nor logged.
	repeat := sanitizer.Check(Transcript{Text: "I would like to book", Confidence: 0.9})
	if repeat.Forward || repeat.Log {
		t.Fatalf("expected identical partial suppressed, got %+v", repeat)
	}

	// Punctuation-only change: too similar to forward, distinct enough to log.
	punct := sanitizer.Check(Transcript{Text: "I would like to book an", Confidence: 0.9})
	if punct.Forward {
		t.Fatalf("expected near-duplicate partial not forwarded, got %+v", punct)
	}

	grown := sanitizer.Check(Transcript{Text: "I would like to book an appointment on Friday", Confidence: 0.9})
	if !grown.Forward {
		t.Fatalf("expected grown partial forwarded, got %+v", grown)
	}
}

func TestSanitizerResetClearsDedupeState(t *testing.T) {
	sanitizer := NewSanitizer()

	if verdict := sanitizer.Check(Transcript{Text: "see you tomorrow", Confidence: 0.9}); !verdict.Forward {
		t.Fatalf("expected first partial forwarded, got %+v", verdict)
	}
	sanitizer.Reset()
	if verdict := sanitizer.Check(Transcript{Text: "see you tomorrow", Confidence: 0.9}); !verdict.Forward {
		t.Fatalf("expected partial forwarded after reset, got %+v", verdict)
	}
}

func TestSimilarityBounds(t *testing.T) {
	if got := Similarity("", ""); got != 1 {
		t.Errorf("expected identical empties to have similarity 1, got %f", got)
	}
	if got := Similarity("abc", "abc"); got != 1 {
		t.Errorf("expected equal strings to have similarity 1, got %f", got)
	}
	if got := Similarity("abc", "xyz"); got != 0 {
		t.Errorf("expected disjoint strings to have similarity 0, got %f", got)
	}
	if got := Similarity("kitten", "sitten"); got <= 0.8 || got >= 0.9 {
		t.Errorf("expected one-edit similarity around 0.83, got %f", got)
	}
}
