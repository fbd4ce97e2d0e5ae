package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lexiqai/transcript-pipeline/internal/stt"
	"github.com/lexiqai/transcript-pipeline/internal/transcript"
)

const (
	emittedHistoryLimit = 1000
	recentSegmentsLimit = 40
)

// Session holds the process-global state this build keeps per §9's adopted
// redesign: emittedHistory, the sentence buffer, recentSegments, and the
// chunk counters, all owned by a single emitter goroutine. Nothing in
// Session is safe for concurrent use; callers outside the emitter goroutine
// must only reach it through a mailbox message.
type Session struct {
	emittedHistory string
	sentenceBuffer *transcript.SentenceBuffer
	recentSegments []TranscriptSegment

	ChunksProcessed int
	ChunksSkipped   int
}

// NewSession constructs an empty Session gated at confidenceThreshold.
func NewSession(confidenceThreshold float64) *Session {
	return &Session{
		sentenceBuffer: transcript.NewSentenceBuffer(confidenceThreshold),
	}
}

// EmittedHistory returns the truncated tail of every text this session has
// broadcast so far.
func (s *Session) EmittedHistory() string {
	return s.emittedHistory
}

// PendingText returns the sentence buffer's current unreleased contents.
func (s *Session) PendingText() string {
	return s.sentenceBuffer.Text()
}

// RecentSegments returns the ring of the last emitted segments, oldest
// first, for use as correction-service context.
func (s *Session) RecentSegments() []TranscriptSegment {
	out := make([]TranscriptSegment, len(s.recentSegments))
	copy(out, s.recentSegments)
	return out
}

// Reset clears all process-global state, as required when every track
// disconnects.
func (s *Session) Reset(confidenceThreshold float64) {
	s.emittedHistory = ""
	s.sentenceBuffer = transcript.NewSentenceBuffer(confidenceThreshold)
	s.recentSegments = nil
	s.ChunksProcessed = 0
	s.ChunksSkipped = 0
}

// segmentConfidence returns the length-weighted average of the confidences
// of all of an STT response's segments, falling back to 1 when the
// collaborator reported none. Every segment counts, not only those that
// cover the newly extracted text.
func segmentConfidence(segments []stt.Segment) float64 {
	var weighted, totalLen float64
	for _, seg := range segments {
		l := float64(len(seg.Text))
		if l == 0 {
			l = 1
		}
		weighted += seg.Confidence * l
		totalLen += l
	}
	if totalLen == 0 {
		return 1
	}
	return weighted / totalLen
}

// maxSegmentConfidence returns the maximum confidence across an STT
// response's segments, used as an emitted segment's reported confidence
// per §4.9.
func maxSegmentConfidence(segments []stt.Segment) float64 {
	var max float64
	for _, seg := range segments {
		if seg.Confidence > max {
			max = seg.Confidence
		}
	}
	return max
}

// Ingest runs C6 (extraction), C7 (sentence buffering), C8 (cleanup), and
// the segment-construction half of C9 for one completed, STT-transcribed
// window. It mutates Session state and returns the segments to broadcast,
// along with the raw STT text for the emitter's WER-proxy calculation.
// An empty result means nothing released this round; any newly extracted
// text stays in the sentence buffer for a later round.
func (s *Session) Ingest(chunkID string, windowStartMs, windowEndMs int64, resp *stt.Response) ([]TranscriptSegment, string) {
	s.ChunksProcessed++

	rawText := strings.TrimSpace(resp.Text)
	if rawText == "" {
		return nil, ""
	}

	prior := s.emittedHistory
	if s.sentenceBuffer.Text() != "" {
		prior = prior + " " + s.sentenceBuffer.Text()
	}

	extracted := transcript.Extract(prior, rawText)
	if extracted == "" {
		return nil, rawText
	}

	newConfidence := segmentConfidence(resp.Segments)
	released := s.sentenceBuffer.Append(extracted, newConfidence)
	if len(released) == 0 {
		return nil, rawText
	}

	confidence := maxSegmentConfidence(resp.Segments)
	now := time.Now()

	var out []TranscriptSegment
	for i, raw := range released {
		cleaned := transcript.Cleanup(raw, confidence)
		if cleaned == "" {
			continue
		}
		seg := TranscriptSegment{
			ID:         fmt.Sprintf("%s-%d", chunkID, i),
			Text:       cleaned,
			StartMs:    windowStartMs,
			EndMs:      windowEndMs,
			IsFinal:    true,
			Revision:   0,
			Source:     "stt",
			Confidence: confidence,
			CreatedAt:  now,
		}
		s.appendHistory(cleaned)
		s.pushRecent(seg)
		out = append(out, seg)
	}
	return out, rawText
}

func (s *Session) appendHistory(text string) {
	if s.emittedHistory == "" {
		s.emittedHistory = text
	} else {
		s.emittedHistory = s.emittedHistory + " " + text
	}
	if r := []rune(s.emittedHistory); len(r) > emittedHistoryLimit {
		s.emittedHistory = string(r[len(r)-emittedHistoryLimit:])
	}
}

func (s *Session) pushRecent(seg TranscriptSegment) {
	s.recentSegments = append(s.recentSegments, seg)
	if len(s.recentSegments) > recentSegmentsLimit {
		s.recentSegments = s.recentSegments[len(s.recentSegments)-recentSegmentsLimit:]
	}
}

// newChunkID returns a fresh correlation id for one completed window.
func newChunkID() string {
	return uuid.NewString()
}
