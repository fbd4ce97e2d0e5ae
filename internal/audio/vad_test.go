package audio

import "testing"

func silence(n int) []int16 {
	return make([]int16, n)
}

func tone(n int, amp int16, period int) []int16 {
	out := make([]int16, n)
	for i := range out {
		if (i/period)%2 == 0 {
			out[i] = amp
		} else {
			out[i] = -amp
		}
	}
	return out
}

func TestGateRejectsSilence(t *testing.T) {
	g := NewGate(DefaultVADConfig())
	samples := silence(3000)
	if g.IsSpeech(samples) {
		t.Fatal("expected silence to be rejected")
	}
}

func TestGateAcceptsLoudTone(t *testing.T) {
	g := NewGate(DefaultVADConfig())
	samples := tone(3000, 20000, 4)
	if !g.IsSpeech(samples) {
		t.Fatal("expected loud alternating tone to be detected as speech")
	}
}

func TestGateAdaptiveNoiseFloorTracksQuietBackground(t *testing.T) {
	cfg := DefaultVADConfig()
	cfg.SilenceRMSThreshold = 1 // force the adaptive floor to dominate
	g := NewGate(cfg)

	quiet := tone(3000, 50, 4)
	for i := 0; i < 20; i++ {
		g.IsSpeech(quiet)
	}
	if g.noiseFloor <= 0 {
		t.Fatal("expected noise floor to adapt upward from repeated quiet windows")
	}

	// The same quiet tone should now score lower relative to the adapted
	// threshold than it did on the very first call.
	firstScore := g.Score(quiet)
	if firstScore > 1.0 {
		t.Fatalf("expected adapted score near/below sensitivity range, got %f", firstScore)
	}
}

func TestGateScoreDoesNotMutateState(t *testing.T) {
	g := NewGate(DefaultVADConfig())
	before := g.noiseFloor
	g.Score(tone(3000, 5000, 4))
	if g.noiseFloor != before {
		t.Fatal("Score must not mutate noise floor")
	}
}

func TestGateReset(t *testing.T) {
	g := NewGate(DefaultVADConfig())
	g.IsSpeech(tone(3000, 5000, 4))
	g.Reset()
	if g.noiseFloor != 0 || len(g.zcrWindow) != 0 {
		t.Fatal("expected Reset to clear adaptive state")
	}
}

func TestRMSEmpty(t *testing.T) {
	if RMS(nil) != 0 {
		t.Fatal("expected RMS of empty slice to be 0")
	}
}

func TestZeroCrossingRateConstant(t *testing.T) {
	constant := make([]int16, 100)
	for i := range constant {
		constant[i] = 500
	}
	if ZeroCrossingRate(constant) != 0 {
		t.Fatal("expected zero crossings for a constant-sign signal")
	}
}

func TestZeroCrossingRateAlternating(t *testing.T) {
	alt := tone(100, 500, 1)
	zcr := ZeroCrossingRate(alt)
	if zcr < 0.9 {
		t.Fatalf("expected near-1.0 crossing rate for fully alternating signal, got %f", zcr)
	}
}
