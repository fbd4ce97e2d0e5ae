package audio

import "math"

// VADConfig holds the tunables for voice-activity gating of completed
// analysis windows.
type VADConfig struct {
	WindowMs            int     // analysis window length, ms
	VadWindowMs         int     // rolling ZCR window span, ms
	Sensitivity         float64 // speech iff blended score >= Sensitivity
	SilenceRMSThreshold float64 // static lower bound on the RMS threshold a window's energy is scored against
}

// DefaultVADConfig returns the recommended default gating thresholds.
func DefaultVADConfig() *VADConfig {
	return &VADConfig{
		WindowMs:            3000,
		VadWindowMs:         600,
		Sensitivity:         0.5,
		SilenceRMSThreshold: 600,
	}
}

// Gate evaluates whether completed windows contain speech, using an
// adaptive noise floor and a rolling zero-crossing-rate average. It carries
// state per track and is not safe for concurrent use by multiple tracks.
type Gate struct {
	config *VADConfig

	noiseFloor float64
	zcrWindow  []float64
	zcrCap     int
}

// NewGate constructs a Gate. A nil config falls back to DefaultVADConfig.
func NewGate(config *VADConfig) *Gate {
	if config == nil {
		config = DefaultVADConfig()
	}
	cap := int(math.Round(float64(config.VadWindowMs) / float64(config.WindowMs) * 4))
	if cap < 1 {
		cap = 1
	}
	return &Gate{
		config: config,
		zcrCap: cap,
	}
}

// Score computes the blended VAD score for a completed window without
// mutating gate state; useful for inspection/tests.
func (g *Gate) Score(samples []int16) float64 {
	r := RMS(samples)
	threshold := math.Max(g.config.SilenceRMSThreshold, 1.6*g.noiseFloor)
	zcr := ZeroCrossingRate(samples)

	zAvg := zcr
	if len(g.zcrWindow) > 0 {
		sum := zcr
		for _, v := range g.zcrWindow {
			sum += v
		}
		zAvg = sum / float64(len(g.zcrWindow)+1)
	}

	return 0.7*(r/threshold) + 0.3*zAvg
}

// IsSpeech evaluates a completed window, advancing the adaptive noise floor
// and rolling ZCR window as a side effect. Call exactly once per window.
func (g *Gate) IsSpeech(samples []int16) bool {
	r := RMS(samples)
	g.noiseFloor = 0.95*g.noiseFloor + 0.05*r
	threshold := math.Max(g.config.SilenceRMSThreshold, 1.6*g.noiseFloor)
	zcr := ZeroCrossingRate(samples)

	g.zcrWindow = append(g.zcrWindow, zcr)
	if len(g.zcrWindow) > g.zcrCap {
		g.zcrWindow = g.zcrWindow[len(g.zcrWindow)-g.zcrCap:]
	}
	var sum float64
	for _, v := range g.zcrWindow {
		sum += v
	}
	zAvg := sum / float64(len(g.zcrWindow))

	score := 0.7*(r/threshold) + 0.3*zAvg

	return score >= g.config.Sensitivity
}

// Reset clears adaptive state, e.g. when a track is resubscribed.
func (g *Gate) Reset() {
	g.noiseFloor = 0
	g.zcrWindow = nil
}

// RMS computes the root-mean-square energy of a sample block.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// ZeroCrossingRate returns the number of sign changes between adjacent
// samples divided by the sample count, a cheap proxy for voicing.
func ZeroCrossingRate(samples []int16) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples))
}
