package audio

import "fmt"

// ErrWindowOverflow is returned when Append finds the ring's cursor past its
// capacity — an internal invariant violation, never expected from
// well-formed callers. Input longer than the free room is not an overflow:
// Append splits it across the windows it emits.
type ErrWindowOverflow struct {
	Requested, Available int
}

func (e *ErrWindowOverflow) Error() string {
	return fmt.Sprintf("window overflow: tried to append %d samples with only %d of room", e.Requested, e.Available)
}

// Window is a completed analysis window: an immutable copy of the ring's
// samples plus its timing metadata. The copy is load-bearing — the ring
// mutates immediately after emission, so a Window must never alias it.
type Window struct {
	Samples  []int16
	StartMs  int64
	EndMs    int64
	SampleRate int
}

// SlidingWindow is a fixed-capacity ring over mono samples that emits one
// Window every stride as samples are appended.
type SlidingWindow struct {
	capacity      int
	strideSamples int
	sampleRate    int
	windowMs      int64
	strideMs      int64

	buf    []int16
	cursor int

	nextStartMs int64
	started     bool
}

// NewSlidingWindow constructs a window of windowMs length with strideMs
// advance between emissions, for audio at sampleRate.
func NewSlidingWindow(sampleRate, windowMs, strideMs int) (*SlidingWindow, error) {
	capacity := sampleRate * windowMs / 1000
	stride := sampleRate * strideMs / 1000
	if capacity <= 0 || stride <= 0 {
		return nil, fmt.Errorf("invalid config: capacity=%d strideSamples=%d", capacity, stride)
	}
	return &SlidingWindow{
		capacity:      capacity,
		strideSamples: stride,
		sampleRate:    sampleRate,
		windowMs:      int64(windowMs),
		strideMs:      int64(strideMs),
		buf:           make([]int16, capacity),
	}, nil
}

// Append adds mono samples to the ring, emitting every window that
// completes along the way, in capture order. startMsHint seeds the first
// window's StartMs on the very first call; it is ignored afterward.
func (w *SlidingWindow) Append(samples []int16, startMsHint int64) ([]Window, error) {
	if !w.started {
		w.nextStartMs = startMsHint
		w.started = true
	}

	var emitted []Window
	for len(samples) > 0 {
		room := w.capacity - w.cursor
		if room < 0 {
			return emitted, &ErrWindowOverflow{Requested: len(samples), Available: room}
		}
		n := len(samples)
		if n > room {
			n = room
		}
		copy(w.buf[w.cursor:], samples[:n])
		w.cursor += n
		samples = samples[n:]

		if w.cursor == w.capacity {
			win := Window{
				Samples:    append([]int16(nil), w.buf...),
				StartMs:    w.nextStartMs,
				EndMs:      w.nextStartMs + w.windowMs,
				SampleRate: w.sampleRate,
			}
			emitted = append(emitted, win)

			w.nextStartMs += w.strideMs

			if w.strideSamples >= w.capacity {
				w.cursor = 0
			} else {
				copy(w.buf, w.buf[w.strideSamples:w.capacity])
				w.cursor = w.capacity - w.strideSamples
			}
		}
	}
	return emitted, nil
}

// Cursor reports the ring's current fill level, for tests and invariant
// checks.
func (w *SlidingWindow) Cursor() int {
	return w.cursor
}

// Capacity reports N, the window's sample capacity.
func (w *SlidingWindow) Capacity() int {
	return w.capacity
}

// StrideSamples reports the configured stride in samples.
func (w *SlidingWindow) StrideSamples() int {
	return w.strideSamples
}
