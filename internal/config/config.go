package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the transcript pipeline.
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Speech-to-text collaborator
	STTURL         string `envconfig:"STT_URL" required:"true"`
	STTAPIKey      string `envconfig:"STT_API_KEY" required:"true"`
	STTModel       string `envconfig:"STT_MODEL" default:""`
	STTTemperature float64 `envconfig:"STT_TEMPERATURE" default:"0"`
	STTLanguage    string `envconfig:"STT_LANGUAGE" default:""`

	// Correction collaborator. Forwarding is skipped entirely when unset.
	CorrectionURL    string `envconfig:"CORRECTION_URL" default:""`
	CorrectionAPIKey string `envconfig:"CORRECTION_API_KEY" default:""`

	// Audio pipeline tunables
	SampleRate int `envconfig:"SAMPLE_RATE" default:"16000"`
	Channels   int `envconfig:"CHANNELS" default:"1"`
	WindowMs   int `envconfig:"WINDOW_MS" default:"3000"`
	StrideMs   int `envconfig:"STRIDE_MS" default:"1000"`

	AGCTargetRMS float64 `envconfig:"AGC_TARGET_RMS" default:"1500"`
	AGCMinGain   float64 `envconfig:"AGC_MIN_GAIN" default:"0.5"`
	AGCMaxGain   float64 `envconfig:"AGC_MAX_GAIN" default:"3"`
	AGCSmoothing float64 `envconfig:"AGC_SMOOTHING" default:"0.2"`

	VADWindowMs            int     `envconfig:"VAD_WINDOW_MS" default:"600"`
	VADSensitivity         float64 `envconfig:"VAD_SENSITIVITY" default:"0.5"`
	SilenceRMSThreshold    float64 `envconfig:"SILENCE_RMS_THRESHOLD" default:"600"`

	ConfidenceThreshold float64 `envconfig:"CONFIDENCE_THRESHOLD" default:"0.45"`

	DefaultDomainHint   string   `envconfig:"DEFAULT_DOMAIN_HINT" default:""`
	DefaultTerminology  []string `envconfig:"DEFAULT_TERMINOLOGY" default:""`
	DefaultPrompt       string   `envconfig:"DEFAULT_PROMPT" default:""`

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // seconds
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"` // milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables, first attempting to
// populate the process environment from a .env file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from the process environment,
// without attempting to load a .env file — useful for containerized
// deployments where .env has no meaning.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &InvalidConfigError{Reason: err.Error()}
	}
	if cfg.WindowMs <= 0 || cfg.StrideMs <= 0 {
		return nil, &InvalidConfigError{Reason: fmt.Sprintf("windowMs and strideMs must be positive, got windowMs=%d strideMs=%d", cfg.WindowMs, cfg.StrideMs)}
	}
	if cfg.SampleRate <= 0 {
		return nil, &InvalidConfigError{Reason: fmt.Sprintf("sampleRate must be positive, got %d", cfg.SampleRate)}
	}
	return &cfg, nil
}

// InvalidConfigError is fatal at startup: the ring capacity derived from
// SampleRate/WindowMs/StrideMs, or envconfig itself, could not be satisfied.
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", e.Reason)
}
