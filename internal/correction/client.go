package correction

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lexiqai/transcript-pipeline/internal/observability"
	"github.com/lexiqai/transcript-pipeline/internal/resilience"
)

// Client forwards emitted transcript batches to an external correction
// service and drains its text/event-stream response to completion without
// interpreting deltas — the correction service pushes its own corrections
// to the data channel out of band.
type Client struct {
	url            string
	apiKey         string
	httpClient     *http.Client
	circuitBreaker *resilience.CircuitBreaker
	retryConfig    *resilience.RetryConfig
}

// NewClient constructs a Client. A zero-value url disables forwarding
// entirely; callers should check Enabled() before calling Forward.
func NewClient(url, apiKey string, maxFailures int, resetTimeout time.Duration, retryMaxAttempts int, retryInitialBackoff time.Duration) *Client {
	return &Client{
		url:            url,
		apiKey:         apiKey,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		circuitBreaker: resilience.NewCircuitBreaker("correction", maxFailures, resetTimeout),
		retryConfig: &resilience.RetryConfig{
			MaxAttempts:       retryMaxAttempts,
			InitialBackoff:    retryInitialBackoff,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            true,
		},
	}
}

// Enabled reports whether a correction URL is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// Forward posts req and consumes the response stream to completion. The
// pipeline never blocks on or retries the transcript path because of this
// call's outcome; the caller is expected to log and continue on error.
func (c *Client) Forward(ctx context.Context, req Request) error {
	start := time.Now()

	err := c.circuitBreaker.Call(func() error {
		return resilience.Retry(func() error {
			return c.doForward(ctx, req)
		}, c.retryConfig, resilience.IsRetryableNetworkError)
	})

	observability.RecordCorrectionCall(err == nil, time.Since(start))
	observability.UpdateCircuitBreakerState("correction", int(c.circuitBreaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("correction")
		observability.RecordError("CorrectionFailure")
		var cf *CorrectionFailureError
		if errors.As(err, &cf) {
			return cf
		}
		return &CorrectionFailureError{Err: err}
	}
	return nil
}

func (c *Client) doForward(ctx context.Context, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal correction request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &CorrectionFailureError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return &CorrectionFailureError{StatusCode: resp.StatusCode, Message: string(msg)}
	}

	return drainEventStream(ctx, resp.Body)
}

// drainEventStream reads an SSE body to completion without interpreting
// deltas — the correction service is responsible for pushing its own
// corrections elsewhere. Consuming fully lets the connection be reused.
func drainEventStream(ctx context.Context, body io.Reader) error {
	reader := bufio.NewReader(body)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read correction stream: %w", err)
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		if strings.TrimPrefix(line, "data: ") == "[DONE]" {
			return nil
		}
	}
}

// HealthCheck probes correction-service reachability for the readiness
// handler.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	if !c.Enabled() {
		return true, nil
	}
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
