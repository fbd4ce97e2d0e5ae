package datachannel

import "sync"

// RecordingBroadcaster is an in-memory Broadcaster for tests: it records
// every envelope it receives instead of delivering it anywhere.
type RecordingBroadcaster struct {
	mu      sync.Mutex
	closed  bool
	reliable []Envelope
	lossy    []Envelope
}

// NewRecordingBroadcaster constructs an empty RecordingBroadcaster.
func NewRecordingBroadcaster() *RecordingBroadcaster {
	return &RecordingBroadcaster{}
}

func (b *RecordingBroadcaster) SendReliable(envelope Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reliable = append(b.reliable, envelope)
	return nil
}

func (b *RecordingBroadcaster) SendLossy(envelope Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lossy = append(b.lossy, envelope)
}

func (b *RecordingBroadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Reliable returns a copy of every envelope sent via SendReliable, in order.
func (b *RecordingBroadcaster) Reliable() []Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Envelope, len(b.reliable))
	copy(out, b.reliable)
	return out
}

// Lossy returns a copy of every envelope sent via SendLossy, in order.
func (b *RecordingBroadcaster) Lossy() []Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Envelope, len(b.lossy))
	copy(out, b.lossy)
	return out
}

// Closed reports whether Close has been called.
func (b *RecordingBroadcaster) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
