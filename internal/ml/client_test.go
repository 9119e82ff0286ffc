// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package ml

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/mendezluchoo/urbanytics/internal/config"
	"github.com/mendezluchoo/urbanytics/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.MLConfig{
		URL:     server.URL,
		Timeout: 2 * time.Second,
	})
}

func TestPredictDecodesAndEnriches(t *testing.T) {
	var gotPath string
	var gotBody models.PredictionInput

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"prediction": map[string]interface{}{
				"predicted_price":  312000.0,
				"assessed_value":   250000.0,
				"price_ratio":      1.248,
				"confidence_score": 0.87,
				"model_version":    "1.0.0",
			},
			"input_data": map[string]interface{}{
				"town":          "Hartford",
				"property_type": "Residential",
			},
		})
	})

	input := &models.PredictionInput{
		AssessedValue: 250000,
		PropertyType:  "Residential",
		Town:          "Hartford",
	}
	result, err := client.Predict(context.Background(), input)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if gotPath != "POST /predict" {
		t.Errorf("Expected POST /predict, got %s", gotPath)
	}
	if gotBody.Town != "Hartford" || gotBody.AssessedValue != 250000 {
		t.Errorf("Input not forwarded: %+v", gotBody)
	}
	if result.PredictedPrice != 312000 || result.ModelVersion != "1.0.0" {
		t.Errorf("Prediction not decoded: %+v", result.Prediction)
	}
	if len(result.Insights) != 3 {
		t.Fatalf("Expected 3 insights (ratio band, type, town), got %d", len(result.Insights))
	}
	if result.Insights[0].Type != "warning" {
		t.Errorf("Ratio 1.248 should produce a warning insight, got %q", result.Insights[0].Type)
	}
}

func TestPredictServerErrorBecomesUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Predict(context.Background(), &models.PredictionInput{})
	var upstreamErr *models.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("Expected UpstreamError for 500, got %v", err)
	}
	if upstreamErr.Operation != "ml_predict" {
		t.Errorf("Expected ml_predict operation, got %q", upstreamErr.Operation)
	}
}

func TestPassthroughEndpointsRelayVerdict(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	})

	calls := []func(context.Context) (*Result, error){
		client.Health, client.Train, client.ModelInfo, client.DataStats,
	}
	for _, call := range calls {
		result, err := call(context.Background())
		if err != nil {
			t.Fatalf("Passthrough call failed: %v", err)
		}
		if result.StatusCode != http.StatusOK || string(result.Body) != `{"ok":true}` {
			t.Errorf("Verdict not relayed: %d %s", result.StatusCode, result.Body)
		}
	}

	want := []string{"GET /health", "POST /train", "GET /model/info", "GET /data/stats"}
	for i, w := range want {
		if paths[i] != w {
			t.Errorf("Request %d: expected %q, got %q", i, w, paths[i])
		}
	}
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 12; i++ {
		client.Health(context.Background()) //nolint:errcheck
	}

	if client.Healthy() {
		t.Error("Circuit should be open after sustained failures")
	}
}

func TestInsightRatioBands(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1.25, "warning"},
		{1.05, "neutral"},
		{0.95, "neutral"},
		{0.85, "opportunity"},
	}

	for _, tt := range tests {
		insights := Insights(models.Prediction{PriceRatio: tt.ratio}, models.PredictionInput{})
		if len(insights) != 1 {
			t.Fatalf("Ratio %v: expected only the ratio insight without context fields, got %d", tt.ratio, len(insights))
		}
		if insights[0].Type != tt.want {
			t.Errorf("Ratio %v: expected %q insight, got %q", tt.ratio, tt.want, insights[0].Type)
		}
	}
}
