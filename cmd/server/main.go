package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexiqai/transcript-pipeline/internal/config"
	"github.com/lexiqai/transcript-pipeline/internal/correction"
	"github.com/lexiqai/transcript-pipeline/internal/ingress"
	"github.com/lexiqai/transcript-pipeline/internal/observability"
	"github.com/lexiqai/transcript-pipeline/internal/stt"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Int("windowMs", cfg.WindowMs).
		Int("strideMs", cfg.StrideMs).
		Str("logLevel", cfg.LogLevel).
		Bool("metricsEnabled", cfg.MetricsEnabled).
		Msg("transcript pipeline starting")

	sttClient := stt.NewClient(
		cfg.STTURL, cfg.STTAPIKey,
		cfg.CircuitBreakerMaxFailures, time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		cfg.RetryMaxAttempts, time.Duration(cfg.RetryInitialBackoff)*time.Millisecond,
	)
	correctionClient := correction.NewClient(
		cfg.CorrectionURL, cfg.CorrectionAPIKey,
		cfg.CircuitBreakerMaxFailures, time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		cfg.RetryMaxAttempts, time.Duration(cfg.RetryInitialBackoff)*time.Millisecond,
	)

	mux := http.NewServeMux()

	mux.HandleFunc("/rooms/connect", ingress.HandleRoomWS(cfg, sttClient, correctionClient, logger))
	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(sttClient.HealthCheck, correctionClient.HealthCheck))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/rooms/connect", cfg.Port)).
			Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited gracefully")
}
