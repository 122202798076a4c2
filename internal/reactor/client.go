// Package reactor provides the HTTP client for the upstream signal
// scoring service. The gateway consumes scoring; it never implements
// it.
package reactor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/afi-protocol/afi-gateway/internal/observability"
)

const (
	// scoringPath is the upstream ingestion endpoint for signal drafts.
	scoringPath = "/api/webhooks/tradingview"

	// healthPath is the upstream liveness endpoint.
	healthPath = "/health"

	// sharedSecretHeader carries the optional webhook shared secret.
	sharedSecretHeader = "X-Webhook-Secret"
)

// ErrCircuitOpen is returned while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("scoring service circuit is open")

// UpstreamError is returned when the scoring service answers with a
// non-2xx status. The upstream status and body are preserved for the
// ingestion failure surfaced to the caller.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("scoring service returned %d: %s", e.StatusCode, e.Body)
}

// SignalDraft is a TradingView-like draft sent for scoring.
type SignalDraft struct {
	Symbol            string      `json:"symbol"`
	Timeframe         string      `json:"timeframe"`
	Strategy          string      `json:"strategy"`
	Direction         string      `json:"direction"`
	Market            string      `json:"market,omitempty"`
	SetupSummary      string      `json:"setupSummary,omitempty"`
	Notes             string      `json:"notes,omitempty"`
	EnrichmentProfile interface{} `json:"enrichmentProfile,omitempty"`
}

// UWRAxes are the per-axis components of an analyst score.
type UWRAxes struct {
	Utility     float64 `json:"utility"`
	WorkQuality float64 `json:"workQuality"`
	Rarity      float64 `json:"rarity"`
}

// AnalystScore is the scoring result for a draft.
type AnalystScore struct {
	UWRScore float64 `json:"uwrScore"`
	UWRAxes  UWRAxes `json:"uwrAxes"`
}

// DecayParams describe how a scored signal ages.
type DecayParams struct {
	HalfLifeMinutes  float64 `json:"halfLifeMinutes"`
	GreeksTemplateID string  `json:"greeksTemplateId"`
}

// ScoredMeta echoes the draft fields the scorer acted on.
type ScoredMeta struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Strategy  string `json:"strategy"`
	Direction string `json:"direction"`
	Source    string `json:"source"`
}

// ScoredSignal is the upstream response for a scored draft.
type ScoredSignal struct {
	SignalID     string       `json:"signalId"`
	AnalystScore AnalystScore `json:"analystScore"`
	ScoredAt     string       `json:"scoredAt"`
	DecayParams  *DecayParams `json:"decayParams"`
	Meta         ScoredMeta   `json:"meta"`
}

// HealthStatus is the upstream health check response.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Client calls the upstream scoring service. Calls are protected by a
// circuit breaker so a dead upstream sheds load quickly instead of
// tying up gateway connections.
type Client struct {
	baseURL      string
	sharedSecret string
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker
	logger       observability.Logger
	metrics      *observability.Metrics
}

// ClientOption is a functional option for the client.
type ClientOption func(*Client)

// WithClientLogger sets the logger for the client.
func WithClientLogger(logger observability.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClientMetrics sets the metrics for the client.
func WithClientMetrics(metrics *observability.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithSharedSecret sets the webhook shared secret sent on scoring
// requests.
func WithSharedSecret(secret string) ClientOption {
	return func(c *Client) {
		c.sharedSecret = secret
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a scoring service client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "reactor",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info("scoring circuit state change",
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
		},
	})

	return c
}

// ScoreDraft submits a draft to the scoring pipeline and returns the
// scored signal. Non-2xx upstream responses are returned as
// *UpstreamError.
func (c *Client) ScoreDraft(ctx context.Context, draft *SignalDraft) (*ScoredSignal, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.scoreDraft(ctx, draft)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.recordUpstream("open")
			return nil, ErrCircuitOpen
		}
		c.recordUpstream("error")
		return nil, err
	}

	c.recordUpstream("success")
	return result.(*ScoredSignal), nil
}

func (c *Client) scoreDraft(ctx context.Context, draft *SignalDraft) (*ScoredSignal, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signal draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+scoringPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build scoring request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.sharedSecret != "" {
		req.Header.Set(sharedSecretHeader, c.sharedSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoring request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(text)}
	}

	var scored ScoredSignal
	if err := json.NewDecoder(resp.Body).Decode(&scored); err != nil {
		return nil, fmt.Errorf("failed to decode scored signal: %w", err)
	}

	return &scored, nil
}

// Health checks the upstream scoring service liveness. It bypasses
// the circuit breaker so readiness probes observe the real state.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &HealthStatus{Status: "error", Message: err.Error()}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		status := &HealthStatus{
			Status:  "error",
			Message: fmt.Sprintf("health check failed with status %d", resp.StatusCode),
		}
		return status, &UpstreamError{StatusCode: resp.StatusCode}
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	if status.Status == "" {
		status.Status = "ok"
	}

	return &status, nil
}

func (c *Client) recordUpstream(outcome string) {
	if c.metrics != nil {
		c.metrics.RecordUpstream(outcome)
	}
}
