package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeTracks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transcript_pipeline_active_tracks",
		Help: "Number of subscribed audio tracks currently being processed",
	})

	windowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_pipeline_windows_total",
		Help: "Total analysis windows processed, by VAD outcome",
	}, []string{"outcome"}) // "speech" or "silence"

	// STT metrics
	sttRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_pipeline_stt_requests_total",
		Help: "Total number of STT requests",
	}, []string{"status"})

	sttLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcript_pipeline_stt_latency_seconds",
		Help:    "STT processing latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	// Correction metrics
	correctionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_pipeline_correction_requests_total",
		Help: "Total number of correction service requests",
	}, []string{"status"})

	correctionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcript_pipeline_correction_latency_seconds",
		Help:    "Correction service round-trip latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_pipeline_errors_total",
		Help: "Total number of errors",
	}, []string{"kind"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "transcript_pipeline_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"collaborator"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_pipeline_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"collaborator"})

	segmentsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcript_pipeline_segments_emitted_total",
		Help: "Total transcript segments emitted",
	})

	segmentConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcript_pipeline_segment_confidence",
		Help:    "Confidence of emitted transcript segments",
		Buckets: []float64{0.1, 0.25, 0.45, 0.6, 0.75, 0.9, 1.0},
	})

	werProxyMetric = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcript_pipeline_wer_proxy",
		Help:    "Levenshtein-based word-error-rate proxy between raw STT text and cleaned text",
		Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.4, 0.6, 0.8},
	})
)

// RecordWindow tallies one completed analysis window by its VAD outcome.
func RecordWindow(isSpeech bool) {
	if isSpeech {
		windowsProcessed.WithLabelValues("speech").Inc()
	} else {
		windowsProcessed.WithLabelValues("silence").Inc()
	}
}

// RecordSTTCall records the outcome and latency of one STT round trip.
func RecordSTTCall(success bool, latency time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	sttRequests.WithLabelValues(status).Inc()
	sttLatency.Observe(latency.Seconds())
}

// RecordCorrectionCall records the outcome and latency of one correction
// service round trip.
func RecordCorrectionCall(success bool, latency time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	correctionRequests.WithLabelValues(status).Inc()
	correctionLatency.Observe(latency.Seconds())
}

// RecordError tallies an error by its typed kind name (e.g. "TranscriptionFailure").
func RecordError(kind string) {
	errorsTotal.WithLabelValues(kind).Inc()
}

// RecordSegment tallies one emitted transcript segment and its metrics.
func RecordSegment(confidence, wer float64) {
	segmentsEmitted.Inc()
	segmentConfidence.Observe(confidence)
	werProxyMetric.Observe(wer)
}

// TrackSubscribed and TrackUnsubscribed adjust the active-track gauge.
func TrackSubscribed()   { activeTracks.Inc() }
func TrackUnsubscribed() { activeTracks.Dec() }

// UpdateCircuitBreakerState updates the circuit breaker state metric for a collaborator.
func UpdateCircuitBreakerState(collaborator string, state int) {
	circuitBreakerState.WithLabelValues(collaborator).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments the circuit breaker failure counter for a collaborator.
func IncrementCircuitBreakerFailures(collaborator string) {
	circuitBreakerFailures.WithLabelValues(collaborator).Inc()
}
