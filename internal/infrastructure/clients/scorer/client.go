package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/pkg/config"
	"github.com/attendlab/clinic-noshow-sim/pkg/retry"
)

// Client calls the hosted inference endpoint that scores appointment features.
// A circuit breaker sits in front of the endpoint and a short retry covers
// transient failures; anything beyond that is surfaced to the caller.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	retryCfg   retry.Config
}

type predictRequest struct {
	Features entities.PatientFeatures `json:"features"`
}

type predictResponse struct {
	Risk float64 `json:"risk"`
}

// NewClient creates a new scorer client
func NewClient(cfg *config.ScorerConfig) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "risk-scorer",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: breaker,
		retryCfg: retry.Config{
			MaxAttempts:     3,
			InitialDelay:    200 * time.Millisecond,
			MaxDelay:        2 * time.Second,
			BackoffFactor:   2.0,
			MaxTotalTimeout: 15 * time.Second,
		},
	}
}

// Predict scores a feature bag against the remote endpoint
func (c *Client) Predict(ctx context.Context, features entities.PatientFeatures) (float64, error) {
	var risk float64
	err := retry.Do(ctx, c.retryCfg, func() error {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.predictOnce(ctx, features)
		})
		if err != nil {
			return err
		}
		risk = result.(float64)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return risk, nil
}

func (c *Client) predictOnce(ctx context.Context, features entities.PatientFeatures) (float64, error) {
	body, err := json.Marshal(predictRequest{Features: features})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("predict request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("scorer returned status %d: %s", resp.StatusCode, string(payload))
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to decode predict response: %w", err)
	}

	if parsed.Risk < 0 || parsed.Risk > 1 {
		return 0, fmt.Errorf("scorer returned risk %f outside [0, 1]", parsed.Risk)
	}

	return parsed.Risk, nil
}
