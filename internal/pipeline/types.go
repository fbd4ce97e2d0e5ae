// Package pipeline wires the sample buffer, AGC, VAD gate, sliding window,
// STT adapter, incremental extractor, sentence buffer, cleanup, and emitter
// into one per-track processing chain, coordinated through a single
// emitter goroutine's mailbox rather than shared mutable state.
package pipeline

import "time"

// AudioFrame is an opaque raw PCM block handed in by the media transport.
// Its lifetime is the length of one callback; it is never retained past C1.
type AudioFrame struct {
	SampleRate        int
	Channels          int
	SamplesPerChannel int
	Data              []byte // s16le interleaved
}

// ParticipantConfig carries the per-participant overrides layered onto the
// process-global configuration when a track is subscribed.
type ParticipantConfig struct {
	Locale      string
	DomainHint  string
	Terminology []string
	Prompt      string
}

// TranscriptSegment is this pipeline's output unit. Segments emitted by
// this core always carry IsFinal=true, Revision=0, Source="stt".
type TranscriptSegment struct {
	ID         string
	Text       string
	StartMs    int64
	EndMs      int64
	IsFinal    bool
	Revision   int
	Source     string
	Confidence float64
	CreatedAt  time.Time
}
