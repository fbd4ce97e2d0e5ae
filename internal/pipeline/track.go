package pipeline

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/lexiqai/transcript-pipeline/internal/audio"
	"github.com/lexiqai/transcript-pipeline/internal/config"
	"github.com/lexiqai/transcript-pipeline/internal/datachannel"
	"github.com/lexiqai/transcript-pipeline/internal/observability"
	"github.com/lexiqai/transcript-pipeline/internal/stt"
	"github.com/rs/zerolog"
)

// TrackContext is the per-subscribed-track state this pipeline owns:
// the window ring, AGC and VAD state, and the resolved per-participant
// collaborator options. It is driven by exactly one goroutine and is not
// safe for concurrent use.
type TrackContext struct {
	TrackID string

	// canonicalSampleRate is TR (§6.5's configurable sampleRate), the rate
	// every track's audio is normalized to before AGC, windowing, and
	// transcription.
	canonicalSampleRate int

	window *audio.SlidingWindow
	agc    *audio.AGC
	gate   *audio.Gate

	sttModel       string
	sttTemperature float64
	language       string
	prompt         string
	domainHint     string
	terminology    []string

	warnedRate     bool
	warnedChannels bool
}

// NewTrackContext constructs a TrackContext for trackID, merging cfg's
// process-global defaults with participant's per-track overrides.
func NewTrackContext(trackID string, cfg *config.Config, participant ParticipantConfig) (*TrackContext, error) {
	window, err := audio.NewSlidingWindow(cfg.SampleRate, cfg.WindowMs, cfg.StrideMs)
	if err != nil {
		return nil, &config.InvalidConfigError{Reason: err.Error()}
	}

	vadConfig := &audio.VADConfig{
		WindowMs:            cfg.WindowMs,
		VadWindowMs:         cfg.VADWindowMs,
		Sensitivity:         cfg.VADSensitivity,
		SilenceRMSThreshold: cfg.SilenceRMSThreshold,
	}

	prompt := cfg.DefaultPrompt
	if participant.Prompt != "" {
		prompt = participant.Prompt
	}
	domainHint := cfg.DefaultDomainHint
	if participant.DomainHint != "" {
		domainHint = participant.DomainHint
	}
	terminology := cfg.DefaultTerminology
	if len(participant.Terminology) > 0 {
		terminology = participant.Terminology
	}
	language := cfg.STTLanguage
	if participant.Locale != "" {
		language = participant.Locale
	}

	return &TrackContext{
		TrackID:             trackID,
		canonicalSampleRate: cfg.SampleRate,
		window:              window,
		agc:                 audio.NewAGC(cfg.AGCTargetRMS, cfg.AGCMinGain, cfg.AGCMaxGain, cfg.AGCSmoothing),
		gate:                audio.NewGate(vadConfig),
		sttModel:            cfg.STTModel,
		sttTemperature:      cfg.STTTemperature,
		language:            language,
		prompt:              prompt,
		domainHint:          domainHint,
		terminology:         terminology,
	}, nil
}

// ChunkResult is the message a track pipeline sends to the emitter's
// mailbox for every completed window, speech or not, except a speech window
// whose transcription fails, which is dropped without a message. It carries
// nothing back; the track pipeline never observes the result of emission. Skipped
// windows carry a nil Response and only bump Session.ChunksSkipped; the
// counter lives on Session rather than TrackContext because it is
// documented as process-global state, so its mutation is routed through
// the same single-writer mailbox as everything else Session owns.
type ChunkResult struct {
	ChunkID         string
	TrackID         string
	WindowStartMs   int64
	WindowEndMs     int64
	Skipped         bool
	Response        *stt.Response
	DomainHint      string
	Terminology     []string
	Language        string
	CaptureStart    time.Time
	CaptureComplete time.Time
}

// decodeS16LE unpacks little-endian 16-bit interleaved samples from a raw
// byte payload.
func decodeS16LE(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[2*i : 2*i+2]))
	}
	return out
}

// ProcessFrame runs C1 (sample buffer) and C2 (AGC) over one raw frame,
// appends the result to the window ring (C4), and returns every window
// that completed as a result, in capture order.
func (tc *TrackContext) ProcessFrame(frame AudioFrame, startMsHint int64, logger zerolog.Logger) ([]audio.Window, error) {
	if frame.SampleRate != tc.canonicalSampleRate && !tc.warnedRate {
		logger.Warn().Str("trackId", tc.TrackID).Int("sampleRate", frame.SampleRate).Msg("resampling track to canonical rate")
		tc.warnedRate = true
	}
	if frame.Channels != 1 && !tc.warnedChannels {
		logger.Warn().Str("trackId", tc.TrackID).Int("channels", frame.Channels).Msg("track channel count differs from canonical mono")
		tc.warnedChannels = true
	}

	samples := decodeS16LE(frame.Data)

	mono, err := audio.ToMono(samples, frame.Channels)
	if err != nil {
		observability.RecordError("UnsupportedSampleFormat")
		return nil, err
	}

	resampled := audio.Resample(mono, frame.SampleRate, tc.canonicalSampleRate)
	leveled := tc.agc.Apply(resampled)

	// SlidingWindow.Append only honors startMsHint on its own first call, so
	// passing it unconditionally on every frame is safe.
	return tc.window.Append(leveled, startMsHint)
}

// RunTrack drives one track's pipeline to completion: it consumes frames
// from in until ctx is cancelled or the channel closes, running each
// completed window through the VAD gate and, for speech windows, the STT
// collaborator, forwarding every transcribed result to mailbox. Processing
// within the loop is strictly sequential, matching §5's "no new frame
// processed while a chunk is still being transcribed" rule.
func RunTrack(ctx context.Context, tc *TrackContext, in <-chan AudioFrame, startMs int64, sttClient *stt.Client, mailbox chan<- ChunkResult, broadcaster datachannel.Broadcaster, logger zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-in:
			if !ok {
				return
			}
			windows, err := tc.ProcessFrame(frame, startMs, logger)
			if err != nil {
				broadcaster.SendLossy(datachannel.NewStatusEnvelope("error", err.Error(), time.Now()))
				continue
			}
			for _, win := range windows {
				select {
				case <-ctx.Done():
					return
				default:
				}
				tc.processWindow(ctx, win, sttClient, mailbox, broadcaster, logger)
			}
		}
	}
}

func (tc *TrackContext) processWindow(ctx context.Context, win audio.Window, sttClient *stt.Client, mailbox chan<- ChunkResult, broadcaster datachannel.Broadcaster, logger zerolog.Logger) {
	captureStart := time.Now()
	isSpeech := tc.gate.IsSpeech(win.Samples)
	observability.RecordWindow(isSpeech)

	if !isSpeech {
		result := ChunkResult{
			ChunkID:       newChunkID(),
			TrackID:       tc.TrackID,
			WindowStartMs: win.StartMs,
			WindowEndMs:   win.EndMs,
			Skipped:       true,
		}
		select {
		case mailbox <- result:
		case <-ctx.Done():
		}
		return
	}

	resp, err := sttClient.Transcribe(ctx, stt.Request{
		Samples:     win.Samples,
		SampleRate:  win.SampleRate,
		Model:       tc.sttModel,
		Temperature: tc.sttTemperature,
		Language:    tc.language,
		Prompt:      tc.prompt,
	})
	if err != nil {
		logger.Error().Err(err).Str("trackId", tc.TrackID).Msg("transcription failed, dropping window")
		broadcaster.SendLossy(datachannel.NewStatusEnvelope("error", "transcription failed", time.Now()))
		return
	}

	result := ChunkResult{
		ChunkID:         newChunkID(),
		TrackID:         tc.TrackID,
		WindowStartMs:   win.StartMs,
		WindowEndMs:     win.EndMs,
		Response:        resp,
		DomainHint:      tc.domainHint,
		Terminology:     tc.terminology,
		Language:        tc.language,
		CaptureStart:    captureStart,
		CaptureComplete: time.Now(),
	}

	select {
	case mailbox <- result:
	case <-ctx.Done():
	}
}
