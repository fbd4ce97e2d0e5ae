package pipeline

import (
	"testing"

	"github.com/lexiqai/transcript-pipeline/internal/stt"
)

func seedHistory(s *Session, text string) {
	s.emittedHistory = text
}

func TestIngestFullPrefixOverlapHoldsBufferWithoutTerminator(t *testing.T) {
	s := NewSession(0.1)
	seedHistory(s, "the quick brown fox")

	resp := &stt.Response{
		Text:     "The quick brown fox jumps over",
		Segments: []stt.Segment{{Text: "The quick brown fox jumps over", Confidence: 0.9}},
	}
	segments, _ := s.Ingest("c1", 0, 3000, resp)
	if len(segments) != 0 {
		t.Fatalf("expected no release, got %d segments", len(segments))
	}
	if s.PendingText() != "jumps over" {
		t.Fatalf("expected buffer to hold %q, got %q", "jumps over", s.PendingText())
	}
}

func TestIngestWordBoundaryOverlapReleasesSentence(t *testing.T) {
	s := NewSession(0.1)
	seedHistory(s, "over the lazy dog and")

	resp := &stt.Response{
		Text:     "the lazy dog and then it rained.",
		Segments: []stt.Segment{{Text: "the lazy dog and then it rained.", Confidence: 0.9}},
	}
	segments, _ := s.Ingest("c2", 3000, 6000, resp)
	if len(segments) != 1 {
		t.Fatalf("expected one released segment, got %d", len(segments))
	}
	if segments[0].Text != "then it rained." {
		t.Fatalf("unexpected segment text: %q", segments[0].Text)
	}
	if segments[0].StartMs != 3000 || segments[0].EndMs != 6000 {
		t.Fatalf("unexpected segment timing: %+v", segments[0])
	}
	if s.PendingText() != "" {
		t.Fatalf("expected buffer drained, got %q", s.PendingText())
	}
}

func TestIngestHighRedundancyDropsWithoutEmission(t *testing.T) {
	s := NewSession(0.1)
	seedHistory(s, "we need to measure the pressure")

	resp := &stt.Response{
		Text:     "we need the pressure",
		Segments: []stt.Segment{{Text: "we need the pressure", Confidence: 0.9}},
	}
	segments, _ := s.Ingest("c3", 0, 3000, resp)
	if len(segments) != 0 {
		t.Fatalf("expected no emission, got %d segments", len(segments))
	}
	if s.PendingText() != "" {
		t.Fatalf("expected buffer untouched, got %q", s.PendingText())
	}
	if s.EmittedHistory() != "we need to measure the pressure" {
		t.Fatalf("expected history unchanged, got %q", s.EmittedHistory())
	}
}

func TestIngestEmptySTTTextNoMutation(t *testing.T) {
	s := NewSession(0.1)
	seedHistory(s, "hello there")

	segments, rawText := s.Ingest("c4", 0, 3000, &stt.Response{Text: "   "})
	if len(segments) != 0 || rawText != "" {
		t.Fatalf("expected no emission and empty raw text, got %d segments, raw=%q", len(segments), rawText)
	}
	if s.EmittedHistory() != "hello there" {
		t.Fatalf("expected history unchanged, got %q", s.EmittedHistory())
	}
	if s.PendingText() != "" {
		t.Fatalf("expected buffer unchanged, got %q", s.PendingText())
	}
}

func TestIngestDuplicatedPhraseCleanup(t *testing.T) {
	s := NewSession(0.1)

	// Cleanup's collapse rule only ever tries phrases of three words or
	// more (see DESIGN.md's cleanup note for the two-word quirk), so this
	// uses a three-word repeat to exercise the collapsing path through
	// Session.Ingest.
	resp := &stt.Response{
		Text:     "the nodule is visible the nodule is visible on the scan.",
		Segments: []stt.Segment{{Text: "the nodule is visible the nodule is visible on the scan.", Confidence: 0.95}},
	}
	segments, _ := s.Ingest("c5", 0, 3000, resp)
	if len(segments) != 1 {
		t.Fatalf("expected one released segment, got %d", len(segments))
	}
	if segments[0].Text != "the nodule is visible on the scan." {
		t.Fatalf("unexpected cleaned text: %q", segments[0].Text)
	}
}

func TestIngestHistoryTruncatesTo1000Characters(t *testing.T) {
	s := NewSession(0.1)
	long := make([]byte, 990)
	for i := range long {
		long[i] = 'a'
	}
	seedHistory(s, string(long))

	resp := &stt.Response{
		Text:     "brand new words that were never said before now.",
		Segments: []stt.Segment{{Text: "brand new words that were never said before now.", Confidence: 0.95}},
	}
	segments, _ := s.Ingest("c6", 0, 3000, resp)
	if len(segments) != 1 {
		t.Fatalf("expected one released segment, got %d", len(segments))
	}
	if got := len([]rune(s.EmittedHistory())); got > emittedHistoryLimit {
		t.Fatalf("expected history truncated to %d runes, got %d", emittedHistoryLimit, got)
	}
}

func TestIngestPushesRecentSegmentsRingBoundedTo40(t *testing.T) {
	s := NewSession(0.0)
	for i := 0; i < 45; i++ {
		resp := &stt.Response{
			Text:     "sentence number marker ends here.",
			Segments: []stt.Segment{{Text: "sentence number marker ends here.", Confidence: 1}},
		}
		s.Ingest("c", int64(i*3000), int64(i*3000+3000), resp)
		// Each call's prior is the growing emittedHistory, so the extractor's
		// full-containment rule (rule 2) will usually suppress repeats after
		// the first; clear the history after each iteration instead.
		s.emittedHistory = ""
	}
	if got := len(s.RecentSegments()); got > recentSegmentsLimit {
		t.Fatalf("expected recentSegments bounded to %d, got %d", recentSegmentsLimit, got)
	}
}

func TestResetClearsAllGlobalState(t *testing.T) {
	s := NewSession(0.1)
	seedHistory(s, "some history")
	s.ChunksProcessed = 5
	s.ChunksSkipped = 2
	s.recentSegments = []TranscriptSegment{{ID: "x"}}

	s.Reset(0.1)

	if s.EmittedHistory() != "" || s.PendingText() != "" || len(s.RecentSegments()) != 0 {
		t.Fatalf("expected all state cleared after Reset")
	}
	if s.ChunksProcessed != 0 || s.ChunksSkipped != 0 {
		t.Fatalf("expected counters cleared after Reset")
	}
}
