// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

// Package backend proxies property mutations to the upstream service
// that owns writes. Calls are rate limited and protected by a circuit
// breaker so a struggling backend cannot take the BFF down with it.
package backend

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
	"golang.org/x/time/rate"

	"github.com/mendezluchoo/urbanytics/internal/config"
	"github.com/mendezluchoo/urbanytics/internal/logging"
	"github.com/mendezluchoo/urbanytics/internal/metrics"
	"github.com/mendezluchoo/urbanytics/internal/models"
)

// maxResponseBody bounds how much of an upstream response is read and
// relayed, so a misbehaving backend cannot exhaust memory here.
const maxResponseBody = 1 << 20

// Result carries the upstream status code and body back to the handler,
// which relays both to the client.
type Result struct {
	StatusCode int
	Body       []byte
}

// Client is the HTTP client for the backend service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[*Result]
	limiter    *rate.Limiter
}

// NewClient creates a backend client from config. A RatePerSecond of
// zero disables outbound throttling.
//
// Circuit breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewClient(cfg config.BackendConfig) *Client {
	metrics.BackendCircuitState.Set(0)

	cb := gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:        "backend-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening backend circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("[CIRCUIT BREAKER] Backend state transition")
			metrics.BackendCircuitState.Set(stateToFloat(to))
		},
	})

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	}

	return &Client{
		baseURL:    cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb:         cb,
		limiter:    limiter,
	}
}

// CreateProperty forwards a create to the backend.
func (c *Client) CreateProperty(ctx context.Context, input *models.PropertyInput) (*Result, error) {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/properties", "create_property", input)
}

// UpdateProperty forwards an update for the given serial number.
func (c *Client) UpdateProperty(ctx context.Context, serialNumber int64, input *models.PropertyInput) (*Result, error) {
	path := "/api/v1/properties/" + strconv.FormatInt(serialNumber, 10)
	return c.doJSON(ctx, http.MethodPut, path, "update_property", input)
}

// DeleteProperty forwards a delete for the given serial number.
func (c *Client) DeleteProperty(ctx context.Context, serialNumber int64) (*Result, error) {
	path := "/api/v1/properties/" + strconv.FormatInt(serialNumber, 10)
	return c.doRequest(ctx, http.MethodDelete, path, "delete_property", nil)
}

// Healthy reports whether the circuit is currently letting requests through.
func (c *Client) Healthy() bool {
	return c.cb.State() != gobreaker.StateOpen
}

func (c *Client) doJSON(ctx context.Context, method, path, operation string, payload interface{}) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", operation, err)
	}
	return c.doRequest(ctx, method, path, operation, body)
}

// doRequest sends one request through the rate limiter and circuit
// breaker. Upstream 5xx responses count as breaker failures; 4xx
// responses are relayed as-is and count as successes, since the backend
// answered deliberately.
func (c *Client) doRequest(ctx context.Context, method, path, operation string, body []byte) (*Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &models.UpstreamError{Operation: operation, Err: err}
		}
	}

	result, err := c.cb.Execute(func() (*Result, error) {
		return c.send(ctx, method, path, body)
	})

	if err != nil {
		status := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			status = "rejected"
			logging.Ctx(ctx).Warn().Str("operation", operation).Msg("[CIRCUIT BREAKER] Backend request rejected")
		}
		metrics.BackendRequestsTotal.WithLabelValues(operation, status).Inc()

		return nil, &models.UpstreamError{
			Operation: operation,
			Timeout:   errors.Is(err, context.DeadlineExceeded),
			Err:       err,
		}
	}

	metrics.BackendRequestsTotal.WithLabelValues(operation, strconv.Itoa(result.StatusCode)).Inc()
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
		return nil, fmt.Errorf("backend returned %d: %s", resp.StatusCode, respBody)
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
