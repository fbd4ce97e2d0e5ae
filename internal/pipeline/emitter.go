package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lexiqai/transcript-pipeline/internal/correction"
	"github.com/lexiqai/transcript-pipeline/internal/datachannel"
	"github.com/lexiqai/transcript-pipeline/internal/observability"
	"github.com/lexiqai/transcript-pipeline/internal/transcript"
	"github.com/rs/zerolog"
)

// correctionContextSize is how many recent segments are forwarded to the
// correction collaborator alongside a freshly released batch (§4.9: "the
// last 10 items of recentSegments").
const correctionContextSize = 10

// Emitter is the single goroutine that owns Session state and is the sole
// writer of emittedHistory, the sentence buffer, and recentSegments. Track
// pipelines never touch Session directly; they send ChunkResult messages
// to its mailbox and receive nothing back.
type Emitter struct {
	session             *Session
	broadcaster         datachannel.Broadcaster
	correctionClient    *correction.Client
	roomName            string
	confidenceThreshold float64
	logger              zerolog.Logger
}

// NewEmitter constructs an Emitter bound to session, broadcaster, and the
// correction collaborator for roomName. confidenceThreshold is reused to
// rebuild the sentence buffer whenever a reset signal arrives.
func NewEmitter(session *Session, broadcaster datachannel.Broadcaster, correctionClient *correction.Client, roomName string, confidenceThreshold float64, logger zerolog.Logger) *Emitter {
	return &Emitter{
		session:             session,
		broadcaster:         broadcaster,
		correctionClient:    correctionClient,
		roomName:            roomName,
		confidenceThreshold: confidenceThreshold,
		logger:              logger,
	}
}

// Run drains mailbox until ctx is cancelled or the channel is closed,
// handling one ChunkResult at a time. Handling is strictly sequential, so
// released sentences are appended to emittedHistory in the order their
// chunks arrive here — the pipeline's only ordering guarantee across
// tracks. A signal on resets clears all Session state, as required when
// the last track disconnects; resets is the only other goroutine allowed
// to influence Session, and only indirectly, through this loop.
func (e *Emitter) Run(ctx context.Context, mailbox <-chan ChunkResult, resets <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-resets:
			e.session.Reset(e.confidenceThreshold)
		case result, ok := <-mailbox:
			if !ok {
				return
			}
			e.handle(ctx, result)
		}
	}
}

func (e *Emitter) handle(ctx context.Context, result ChunkResult) {
	if result.Skipped {
		e.session.ChunksSkipped++
		e.broadcaster.SendLossy(datachannel.NewStatusEnvelope("info", "window discarded: no speech detected", time.Now()))
		return
	}

	segments, rawText := e.session.Ingest(result.ChunkID, result.WindowStartMs, result.WindowEndMs, result.Response)
	if len(segments) == 0 {
		return
	}

	wireSegments := make([]datachannel.TranscriptSegmentWire, len(segments))
	var cleanedJoined string
	for i, seg := range segments {
		wireSegments[i] = datachannel.TranscriptSegmentWire{
			ID:         seg.ID,
			Text:       seg.Text,
			StartMs:    seg.StartMs,
			EndMs:      seg.EndMs,
			IsFinal:    seg.IsFinal,
			Revision:   seg.Revision,
			Source:     seg.Source,
			Confidence: seg.Confidence,
			CreatedAt:  seg.CreatedAt.UnixMilli(),
		}
		if cleanedJoined == "" {
			cleanedJoined = seg.Text
		} else {
			cleanedJoined = cleanedJoined + " " + seg.Text
		}
	}

	batch := datachannel.TranscriptBatch{
		BatchID:    uuid.NewString(),
		ReceivedAt: time.Now().UnixMilli(),
		Segments:   wireSegments,
	}

	if err := e.broadcaster.SendReliable(datachannel.NewTranscriptEnvelope("stt", batch)); err != nil {
		e.logger.Warn().Err(err).Str("trackId", result.TrackID).Msg("failed to broadcast transcript batch")
	}

	latency := result.CaptureComplete.Sub(result.CaptureStart)
	wer := transcript.WERProxy(rawText, cleanedJoined)
	for _, seg := range segments {
		observability.RecordSegment(seg.Confidence, wer)
	}
	e.broadcaster.SendLossy(datachannel.NewMetricsEnvelope(result.ChunkID, latency, segments[len(segments)-1].Confidence, wer, time.Now()))

	e.forwardCorrection(ctx, result, batch)
}

func (e *Emitter) forwardCorrection(ctx context.Context, result ChunkResult, batch datachannel.TranscriptBatch) {
	if !e.correctionClient.Enabled() {
		return
	}

	recent := e.session.RecentSegments()
	if len(recent) > correctionContextSize {
		recent = recent[len(recent)-correctionContextSize:]
	}
	recentContext := make([]any, len(recent))
	for i, seg := range recent {
		recentContext[i] = seg
	}

	req := correction.Request{
		RequestID:   result.ChunkID,
		RoomName:    e.roomName,
		Batch:       batch,
		Context:     recentContext,
		Language:    result.Language,
		DomainHint:  result.DomainHint,
		Terminology: result.Terminology,
	}

	if err := e.correctionClient.Forward(ctx, req); err != nil {
		e.logger.Warn().Err(err).Str("trackId", result.TrackID).Msg("correction forwarding failed")
		e.broadcaster.SendLossy(datachannel.NewStatusEnvelope("error", "correction forwarding failed", time.Now()))
	}
}
