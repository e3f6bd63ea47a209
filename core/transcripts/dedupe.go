package transcripts

import (
	"github.com/agnivade/levenshtein"
)

// Deduper suppresses successive near-identical partial transcripts.
// Recognition providers routinely re-emit a partial with only punctuation or
// casing changed; forwarding each one downstream would retrigger the
// interruption arbiter for the same speech.
type Deduper struct {
	forwardSimilarity float64
	logSimilarity     float64

	last string
}

func NewDeduper(forwardSimilarity, logSimilarity float64) *Deduper {
	return &Deduper{
		forwardSimilarity: forwardSimilarity,
		logSimilarity:     logSimilarity,
	}
}

// Similarity is a normalized edit-distance measure in [0, 1]; 1 means equal.
// Distance is computed over runes so multi-byte scripts compare correctly.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}

	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}

	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// Check compares the text against the previously seen partial and reports
// whether it is distinct enough to forward and to log.
func (d *Deduper) Check(text string) Verdict {
	previous := d.last
	d.last = text

	if previous == "" {
		return Verdict{Forward: true, Log: true}
	}

	similarity := Similarity(normalize(previous), normalize(text))
	verdict := Verdict{
		Forward: similarity < d.forwardSimilarity,
		Log:     similarity < d.logSimilarity,
	}
	if !verdict.Forward {
		verdict.Reason = "duplicate"
	}
	return verdict
}

// Reset forgets the previous partial.
func (d *Deduper) Reset() {
	d.last = ""
}
