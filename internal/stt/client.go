package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/lexiqai/transcript-pipeline/internal/audio"
	"github.com/lexiqai/transcript-pipeline/internal/observability"
	"github.com/lexiqai/transcript-pipeline/internal/resilience"
)

// Client submits completed analysis windows to an external speech-to-text
// service over HTTP, protected by a circuit breaker.
type Client struct {
	url            string
	apiKey         string
	httpClient     *http.Client
	circuitBreaker *resilience.CircuitBreaker
	retryConfig    *resilience.RetryConfig
}

// NewClient constructs a Client. maxFailures/resetTimeout configure the
// circuit breaker; retryMaxAttempts/retryInitialBackoff configure the retry
// wrapped around each attempt while the circuit is closed.
func NewClient(url, apiKey string, maxFailures int, resetTimeout time.Duration, retryMaxAttempts int, retryInitialBackoff time.Duration) *Client {
	return &Client{
		url:            url,
		apiKey:         apiKey,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		circuitBreaker: resilience.NewCircuitBreaker("stt", maxFailures, resetTimeout),
		retryConfig: &resilience.RetryConfig{
			MaxAttempts:       retryMaxAttempts,
			InitialBackoff:    retryInitialBackoff,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            true,
		},
	}
}

// Transcribe encodes req's samples as WAV and submits them for
// transcription. On any failure it returns a *TranscriptionFailureError;
// the caller drops the window rather than retrying at a higher level.
func (c *Client) Transcribe(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	var resp *Response

	err := c.circuitBreaker.Call(func() error {
		return resilience.Retry(func() error {
			r, callErr := c.doTranscribe(ctx, req)
			if callErr != nil {
				return callErr
			}
			resp = r
			return nil
		}, c.retryConfig, resilience.IsRetryableNetworkError)
	})

	observability.RecordSTTCall(err == nil, time.Since(start))
	observability.UpdateCircuitBreakerState("stt", int(c.circuitBreaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("stt")
		observability.RecordError("TranscriptionFailure")
		var tf *TranscriptionFailureError
		if errors.As(err, &tf) {
			return nil, tf
		}
		return nil, &TranscriptionFailureError{Err: err}
	}
	return resp, nil
}

func (c *Client) doTranscribe(ctx context.Context, req Request) (*Response, error) {
	wav := audio.EncodeWAV(req.Samples, req.SampleRate)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "chunk.wav")
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, fmt.Errorf("write wav payload: %w", err)
	}

	_ = writer.WriteField("response_format", "verbose_json")
	_ = writer.WriteField("temperature", strconv.FormatFloat(req.Temperature, 'f', -1, 64))
	if req.Model != "" {
		_ = writer.WriteField("model", req.Model)
	}
	if lang, ok := NormalizeLanguage(req.Language); ok {
		_ = writer.WriteField("language", lang)
	}
	if req.Prompt != "" {
		_ = writer.WriteField("prompt", req.Prompt)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TranscriptionFailureError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, &TranscriptionFailureError{StatusCode: resp.StatusCode, Message: string(msg)}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &TranscriptionFailureError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

// HealthCheck probes STT reachability for the readiness handler.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500, nil
}
