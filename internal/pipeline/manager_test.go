package pipeline

import (
	"testing"
	"time"

	"github.com/lexiqai/transcript-pipeline/internal/correction"
	"github.com/lexiqai/transcript-pipeline/internal/datachannel"
	"github.com/lexiqai/transcript-pipeline/internal/stt"
	"github.com/rs/zerolog"
)

func newTestManager() *Manager {
	cfg := testConfig()
	sttClient := stt.NewClient("http://127.0.0.1:0", "key", 1, time.Second, 1, time.Millisecond)
	correctionClient := correction.NewClient("", "", 1, time.Second, 1, time.Millisecond)
	broadcaster := datachannel.NewRecordingBroadcaster()
	return NewManager(cfg, sttClient, correctionClient, broadcaster, "room-1", zerolog.Nop())
}

func TestManagerSubscribeTracksTracking(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	if _, err := m.SubscribeTrack("t1", ParticipantConfig{}); err != nil {
		t.Fatalf("SubscribeTrack: %v", err)
	}
	if _, err := m.SubscribeTrack("t2", ParticipantConfig{}); err != nil {
		t.Fatalf("SubscribeTrack: %v", err)
	}

	m.mu.Lock()
	count := len(m.tracks)
	m.mu.Unlock()
	if count != 2 {
		t.Fatalf("expected 2 tracked tracks, got %d", count)
	}
}

func TestManagerUnsubscribeLastTrackSignalsReset(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	if _, err := m.SubscribeTrack("t1", ParticipantConfig{}); err != nil {
		t.Fatalf("SubscribeTrack: %v", err)
	}
	if _, err := m.SubscribeTrack("t2", ParticipantConfig{}); err != nil {
		t.Fatalf("SubscribeTrack: %v", err)
	}

	m.UnsubscribeTrack("t1")
	select {
	case <-m.resets:
		t.Fatal("did not expect a reset signal with one track still subscribed")
	default:
	}

	m.UnsubscribeTrack("t2")
	select {
	case <-m.resets:
	default:
		t.Fatal("expected a reset signal after the last track unsubscribed")
	}
}

func TestManagerUnsubscribeUnknownTrackIsNoop(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	m.UnsubscribeTrack("does-not-exist")

	m.mu.Lock()
	count := len(m.tracks)
	m.mu.Unlock()
	if count != 0 {
		t.Fatalf("expected no tracked tracks, got %d", count)
	}
}
