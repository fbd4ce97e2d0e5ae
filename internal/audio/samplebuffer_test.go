package audio

import "testing"

func TestToMonoPassthrough(t *testing.T) {
	in := []int16{1, 2, 3}
	out, err := ToMono(in, 1)
	if err != nil {
		t.Fatalf("ToMono: %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("expected passthrough, got %v", out)
		}
	}
}

func TestToMonoStereoAverages(t *testing.T) {
	in := []int16{10, 10, 20, 20, -5, -5}
	out, err := ToMono(in, 2)
	if err != nil {
		t.Fatalf("ToMono: %v", err)
	}
	want := []int16{10, 20, -5}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("index %d: expected %d, got %d", i, want[i], out[i])
		}
	}
}

func TestToMonoUnsupportedChannels(t *testing.T) {
	if _, err := ToMono([]int16{1, 2, 3}, 3); err == nil {
		t.Fatal("expected error for unsupported channel count")
	}
}

func TestResampleIdentity(t *testing.T) {
	in := []int16{100, -200, 300, -400, 500}
	out := Resample(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("expected identical length, got %d", len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("index %d: expected %d, got %d", i, in[i], out[i])
		}
	}
}

func TestResampleDownsampleLength(t *testing.T) {
	// 48kHz stereo mixed to mono (external step), then 4800 mono samples
	// downsampled to 16kHz should land near 1600 samples.
	in := make([]int16, 4800)
	for i := range in {
		if i%2 == 0 {
			in[i] = 1000
		} else {
			in[i] = -1000
		}
	}
	out := Resample(in, 48000, 16000)
	want := 1600
	diff := len(out) - want
	if diff < 0 {
		diff = -diff
	}
	if diff > 1 {
		t.Fatalf("expected length near %d, got %d", want, len(out))
	}
}

func TestAGCBoostsQuietSignal(t *testing.T) {
	agc := NewAGC(8000, 1, 10, 1.0)
	quiet := make([]int16, 100)
	for i := range quiet {
		quiet[i] = 50
	}
	out := agc.Apply(quiet)
	if RMS(out) <= RMS(quiet) {
		t.Fatalf("expected boosted RMS, got %f <= %f", RMS(out), RMS(quiet))
	}
}

func TestAGCNoOpWithinDeadband(t *testing.T) {
	agc := NewAGC(1000, 0.5, 2, 1.0)
	samples := make([]int16, 100)
	for i := range samples {
		samples[i] = 1000
	}
	out := agc.Apply(samples)
	for i := range samples {
		if out[i] != samples[i] {
			t.Fatalf("expected no-op within deadband, got change at %d", i)
		}
	}
}

func TestAGCClampsToMaxGain(t *testing.T) {
	agc := NewAGC(100000, 1, 2, 1.0)
	quiet := make([]int16, 100)
	for i := range quiet {
		quiet[i] = 10
	}
	out := agc.Apply(quiet)
	for i, v := range out {
		if float64(v) > float64(quiet[i])*2.01 {
			t.Fatalf("sample %d exceeds max gain: %d from %d", i, v, quiet[i])
		}
	}
}
