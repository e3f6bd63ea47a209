// Package transcripts filters recognition results before they reach the
// interruption arbiter or the business layer: noise suppression, confidence
// floors, and near-duplicate suppression for successive partials.
package transcripts

import (
	"strings"
	"unicode"
)

// Transcript is one recognition result, partial or final.
type Transcript struct {
	Text       string
	Confidence float64
}

// fillerTokens are hesitation sounds that carry no content. They are excluded
// from meaningful-word counts and a transcript made only of them is noise.
var fillerTokens = map[string]struct{}{
	"um": {}, "uh": {}, "uhm": {}, "erm": {}, "er": {},
	"hmm": {}, "hm": {}, "mm": {}, "mmm": {}, "mhm": {},
	"mm-hmm": {}, "uh-huh": {}, "huh": {}, "ah": {}, "eh": {},
}

// acknowledgements are short backchannel responses a caller produces while
// listening. They never justify interrupting playback.
var acknowledgements = map[string]struct{}{
	"okay": {}, "ok": {}, "yeah": {}, "yes": {}, "yep": {}, "yup": {},
	"no": {}, "nope": {}, "sure": {}, "right": {}, "alright": {},
	"mm-hmm": {}, "uh-huh": {}, "mhm": {}, "got it": {}, "i see": {},
}

func normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	return strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsPunct(r) && r != '-'
	})
}

// IsNoise reports whether a transcript carries no usable content: empty,
// punctuation-only, letterless, or made up purely of filler tokens. Letters
// from any script count as content, so non-Latin speech is never noise.
func IsNoise(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}

	hasLetter := false
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return true
	}

	for _, word := range strings.Fields(trimmed) {
		if _, ok := fillerTokens[normalize(word)]; !ok {
			return false
		}
	}
	return true
}

// IsAcknowledgement reports whether the whole transcript is a short
// backchannel response ("okay", "mm-hmm", ...).
func IsAcknowledgement(text string) bool {
	normalized := normalize(text)
	if normalized == "" {
		return false
	}
	if _, ok := acknowledgements[normalized]; ok {
		return true
	}
	_, ok := fillerTokens[normalized]
	return ok
}

// MeaningfulWords returns the words of a transcript with filler tokens
// removed.
func MeaningfulWords(text string) []string {
	var words []string
	for _, word := range strings.Fields(text) {
		normalized := normalize(word)
		if normalized == "" {
			continue
		}
		if _, ok := fillerTokens[normalized]; ok {
			continue
		}
		words = append(words, normalized)
	}
	return words
}

// Sanitizer applies the configured filters to recognition results.
type Sanitizer struct {
	options SanitizerOptions
	deduper *Deduper
}

type SanitizerOptions struct {
	// MinConfidence is the floor below which results are dropped entirely.
	MinConfidence float64

	// ForwardSimilarity suppresses forwarding a partial when it is at least
	// this similar to the previous one. It is stricter (lower) than
	// LogSimilarity so near-duplicates can still be logged.
	ForwardSimilarity float64
	// LogSimilarity suppresses even logging once partials are this similar.
	LogSimilarity float64
}

type SanitizerOption func(*SanitizerOptions)

func WithMinConfidence(confidence float64) SanitizerOption {
	return func(o *SanitizerOptions) { o.MinConfidence = confidence }
}

func WithSimilarityThresholds(forward, log float64) SanitizerOption {
	return func(o *SanitizerOptions) {
		o.ForwardSimilarity = forward
		o.LogSimilarity = log
	}
}

func NewSanitizer(opts ...SanitizerOption) *Sanitizer {
	options := SanitizerOptions{
		MinConfidence:     0.5,
		ForwardSimilarity: 0.85,
		LogSimilarity:     0.95,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Sanitizer{
		options: options,
		deduper: NewDeduper(options.ForwardSimilarity, options.LogSimilarity),
	}
}

// Verdict describes what may be done with a sanitized transcript.
type Verdict struct {
	Forward bool
	Log     bool
	Reason  string
}

// Check runs the transcript through every filter in order: noise, confidence,
// then near-duplicate suppression against the previous partial.
func (s *Sanitizer) Check(t Transcript) Verdict {
	if IsNoise(t.Text) {
		return Verdict{Reason: "noise"}
	}
	if t.Confidence < s.options.MinConfidence {
		return Verdict{Reason: "low confidence"}
	}

	return s.deduper.Check(t.Text)
}

// Reset clears the duplicate-suppression state, typically at utterance
// boundaries so the next utterance is compared against a clean slate.
func (s *Sanitizer) Reset() {
	s.deduper.Reset()
}
