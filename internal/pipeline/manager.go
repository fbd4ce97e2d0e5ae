package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/lexiqai/transcript-pipeline/internal/config"
	"github.com/lexiqai/transcript-pipeline/internal/correction"
	"github.com/lexiqai/transcript-pipeline/internal/datachannel"
	"github.com/lexiqai/transcript-pipeline/internal/observability"
	"github.com/lexiqai/transcript-pipeline/internal/stt"
	"github.com/rs/zerolog"
)

// Manager owns one room's Session and emitter goroutine and spawns one
// track pipeline per subscribed track. It is the only type outside the
// emitter goroutine that touches Session, and only through the mailbox
// and resets channels — never directly.
type Manager struct {
	cfg              *config.Config
	sttClient        *stt.Client
	correctionClient *correction.Client
	broadcaster      datachannel.Broadcaster
	logger           zerolog.Logger

	mailbox chan ChunkResult
	resets  chan struct{}

	emitterCancel context.CancelFunc

	mu     sync.Mutex
	tracks map[string]context.CancelFunc
}

// NewManager constructs a Manager for roomName and starts its emitter
// goroutine. Call Close when the room's connection ends.
func NewManager(cfg *config.Config, sttClient *stt.Client, correctionClient *correction.Client, broadcaster datachannel.Broadcaster, roomName string, logger zerolog.Logger) *Manager {
	session := NewSession(cfg.ConfidenceThreshold)
	mailbox := make(chan ChunkResult, 16)
	resets := make(chan struct{}, 1)

	emitterCtx, cancel := context.WithCancel(context.Background())
	emitter := NewEmitter(session, broadcaster, correctionClient, roomName, cfg.ConfidenceThreshold, logger)
	go emitter.Run(emitterCtx, mailbox, resets)

	return &Manager{
		cfg:              cfg,
		sttClient:        sttClient,
		correctionClient: correctionClient,
		broadcaster:      broadcaster,
		logger:           logger,
		mailbox:          mailbox,
		resets:           resets,
		emitterCancel:    cancel,
		tracks:           make(map[string]context.CancelFunc),
	}
}

// SubscribeTrack creates a TrackContext for trackID and starts its
// pipeline goroutine, returning the channel the caller should feed raw
// AudioFrames into.
func (m *Manager) SubscribeTrack(trackID string, participant ParticipantConfig) (chan<- AudioFrame, error) {
	tc, err := NewTrackContext(trackID, m.cfg, participant)
	if err != nil {
		return nil, err
	}

	trackCtx, cancel := context.WithCancel(context.Background())
	frames := make(chan AudioFrame, 32)

	m.mu.Lock()
	m.tracks[trackID] = cancel
	m.mu.Unlock()
	observability.TrackSubscribed()

	startMs := time.Now().UnixMilli()
	go RunTrack(trackCtx, tc, frames, startMs, m.sttClient, m.mailbox, m.broadcaster, m.logger)

	return frames, nil
}

// UnsubscribeTrack cancels trackID's pipeline. If this was the last
// subscribed track, it signals the emitter to reset all Session state
// (§3 invariant 5).
func (m *Manager) UnsubscribeTrack(trackID string) {
	m.mu.Lock()
	cancel, ok := m.tracks[trackID]
	if ok {
		delete(m.tracks, trackID)
	}
	remaining := len(m.tracks)
	m.mu.Unlock()

	if !ok {
		return
	}
	cancel()
	observability.TrackUnsubscribed()

	if remaining == 0 {
		select {
		case m.resets <- struct{}{}:
		default:
		}
	}
}

// Close cancels every subscribed track and stops the emitter goroutine,
// as required on a TransportDisconnected event.
func (m *Manager) Close() {
	m.mu.Lock()
	for trackID, cancel := range m.tracks {
		cancel()
		delete(m.tracks, trackID)
		observability.TrackUnsubscribed()
	}
	m.mu.Unlock()
	m.emitterCancel()
}
