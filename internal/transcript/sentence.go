package transcript

import "regexp"

var sentenceSpan = regexp.MustCompile(`[^.!?]+[.!?]+(?:\s|$)`)

// releasePredicate matches a terminator from {. ! ?} followed by whitespace
// or end-of-string, anywhere in the buffer.
var releasePredicate = regexp.MustCompile(`[.!?](\s|$)`)

// SentenceBuffer accumulates extractor output across successive windows
// and releases complete sentences once the buffer both contains a
// terminated clause and its blended confidence clears the threshold.
type SentenceBuffer struct {
	ConfidenceThreshold float64

	text       string
	confidence float64
}

// NewSentenceBuffer constructs an empty buffer gated at threshold. An empty
// buffer behaves as if freshly released, so confidence starts at 1 — the
// same baseline Append blends against right after a release.
func NewSentenceBuffer(threshold float64) *SentenceBuffer {
	return &SentenceBuffer{ConfidenceThreshold: threshold, confidence: 1}
}

// Text reports the buffer's current (unreleased) contents.
func (b *SentenceBuffer) Text() string {
	return b.text
}

// Confidence reports the buffer's current blended confidence.
func (b *SentenceBuffer) Confidence() float64 {
	return b.confidence
}

// Append joins newText onto the buffer with a separating space and blends
// confidence as c' = 0.5*c + 0.5*newConfidence, then evaluates the release
// predicate. It returns the complete sentences released, if any; an empty
// slice means the buffer was kept verbatim.
func (b *SentenceBuffer) Append(newText string, newConfidence float64) []string {
	if newText == "" {
		return nil
	}
	if b.text == "" {
		b.text = newText
	} else {
		b.text = b.text + " " + newText
	}
	b.confidence = 0.5*b.confidence + 0.5*newConfidence

	if !releasePredicate.MatchString(b.text) || b.confidence < b.ConfidenceThreshold {
		return nil
	}

	spans := sentenceSpan.FindAllString(b.text, -1)
	consumed := 0
	for _, s := range spans {
		consumed += len(s)
	}
	remainder := b.text[consumed:]

	b.text = remainder
	b.confidence = 0.5*1 + 0.5*newConfidence

	return spans
}
