// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

// Package ml proxies price predictions to the machine-learning service.
// Like the backend proxy, calls go through a circuit breaker so a
// stalled model server cannot pile up requests in the BFF.
package ml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mendezluchoo/urbanytics/internal/config"
	"github.com/mendezluchoo/urbanytics/internal/logging"
	"github.com/mendezluchoo/urbanytics/internal/metrics"
	"github.com/mendezluchoo/urbanytics/internal/models"
)

// maxResponseBody bounds how much of an ML response is read and relayed.
const maxResponseBody = 1 << 20

// Result carries the ML service's status code and body back to the
// handler, which relays both to the client.
type Result struct {
	StatusCode int
	Body       []byte
}

// Client is the HTTP client for the ML service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[*Result]
}

// NewClient creates an ML client from config. The breaker settings match
// the backend client's: opens after a 60% failure rate over at least 10
// requests in a 1 minute window, retries after 2 minutes.
func NewClient(cfg config.MLConfig) *Client {
	metrics.MLCircuitState.Set(0)

	cb := gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:        "ml-service",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("[CIRCUIT BREAKER] ML service state transition")
			metrics.MLCircuitState.Set(stateToFloat(to))
		},
	})

	return &Client{
		baseURL:    cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb:         cb,
	}
}

// Health checks the ML service's health endpoint.
func (c *Client) Health(ctx context.Context) (*Result, error) {
	return c.do(ctx, http.MethodGet, "/health", "ml_health", nil)
}

// Train asks the ML service to retrain its model.
func (c *Client) Train(ctx context.Context) (*Result, error) {
	return c.do(ctx, http.MethodPost, "/train", "ml_train", nil)
}

// ModelInfo fetches the model's metadata: type, feature importances,
// and the categorical vocabulary it was trained on.
func (c *Client) ModelInfo(ctx context.Context) (*Result, error) {
	return c.do(ctx, http.MethodGet, "/model/info", "ml_model_info", nil)
}

// DataStats fetches summary statistics of the training data.
func (c *Client) DataStats(ctx context.Context) (*Result, error) {
	return c.do(ctx, http.MethodGet, "/data/stats", "ml_data_stats", nil)
}

// Predict sends one feature set to the model and returns the prediction
// enriched with derived insights.
func (c *Client) Predict(ctx context.Context, input *models.PredictionInput) (*models.PredictionResult, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode prediction input: %w", err)
	}

	res, err := c.do(ctx, http.MethodPost, "/predict", "ml_predict", body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &models.UpstreamError{
			Operation: "ml_predict",
			Err:       fmt.Errorf("ml service returned %d: %s", res.StatusCode, res.Body),
		}
	}

	var payload struct {
		Prediction models.Prediction      `json:"prediction"`
		InputData  models.PredictionInput `json:"input_data"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return nil, &models.UpstreamError{
			Operation: "ml_predict",
			Err:       fmt.Errorf("failed to decode prediction response: %w", err),
		}
	}

	return &models.PredictionResult{
		Prediction: payload.Prediction,
		Input:      payload.InputData,
		Insights:   Insights(payload.Prediction, payload.InputData),
	}, nil
}

// Healthy reports whether the circuit is currently letting requests through.
func (c *Client) Healthy() bool {
	return c.cb.State() != gobreaker.StateOpen
}

// do sends one request through the circuit breaker. 5xx responses count
// as breaker failures; 4xx responses are relayed as-is, since the ML
// service answered deliberately.
func (c *Client) do(ctx context.Context, method, path, operation string, body []byte) (*Result, error) {
	result, err := c.cb.Execute(func() (*Result, error) {
		return c.send(ctx, method, path, body)
	})

	if err != nil {
		status := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			status = "rejected"
			logging.Ctx(ctx).Warn().Str("operation", operation).Msg("[CIRCUIT BREAKER] ML request rejected")
		}
		metrics.MLRequestsTotal.WithLabelValues(operation, status).Inc()

		return nil, &models.UpstreamError{
			Operation: operation,
			Timeout:   errors.Is(err, context.DeadlineExceeded),
			Err:       err,
		}
	}

	metrics.MLRequestsTotal.WithLabelValues(operation, strconv.Itoa(result.StatusCode)).Inc()
	return result, nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) (*Result, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("ml service returned %d: %s", resp.StatusCode, respBody)
	}

	return &Result{StatusCode: resp.StatusCode, Body: respBody}, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
