// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package backend

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

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.BackendConfig{
		URL:     server.URL,
		Timeout: 2 * time.Second,
	})
	return client, server
}

func TestCreatePropertyForwardsPayload(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody models.PropertyInput

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status":"created"}`))
	})

	input := &models.PropertyInput{SerialNumber: 12345, ListYear: 2021, Town: "Hartford"}
	result, err := client.CreateProperty(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateProperty failed: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/api/v1/properties" {
		t.Errorf("Expected POST /api/v1/properties, got %s %s", gotMethod, gotPath)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", gotContentType)
	}
	if gotBody.SerialNumber != 12345 || gotBody.Town != "Hartford" {
		t.Errorf("Payload not forwarded: %+v", gotBody)
	}
	if result.StatusCode != http.StatusCreated {
		t.Errorf("Expected 201 relayed, got %d", result.StatusCode)
	}
	if string(result.Body) != `{"status":"created"}` {
		t.Errorf("Expected body relayed, got %s", result.Body)
	}
}

func TestUpdateAndDeletePaths(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	if _, err := client.UpdateProperty(context.Background(), 99, &models.PropertyInput{}); err != nil {
		t.Fatalf("UpdateProperty failed: %v", err)
	}
	if _, err := client.DeleteProperty(context.Background(), 99); err != nil {
		t.Fatalf("DeleteProperty failed: %v", err)
	}

	want := []string{"PUT /api/v1/properties/99", "DELETE /api/v1/properties/99"}
	for i, w := range want {
		if paths[i] != w {
			t.Errorf("Request %d: expected %q, got %q", i, w, paths[i])
		}
	}
}

func TestClientErrorsAreRelayedNotFailed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"bad serial"}`))
	})

	result, err := client.DeleteProperty(context.Background(), 1)
	if err != nil {
		t.Fatalf("4xx responses should be relayed, not errored: %v", err)
	}
	if result.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 relayed, got %d", result.StatusCode)
	}
}

func TestServerErrorsBecomeUpstreamErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.DeleteProperty(context.Background(), 1)
	if err == nil {
		t.Fatal("Expected error for upstream 500")
	}

	var upstreamErr *models.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("Expected UpstreamError, got %T", err)
	}
	if upstreamErr.Operation != "delete_property" {
		t.Errorf("Expected operation name in error, got %q", upstreamErr.Operation)
	}
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	// Drive enough failures to trip the 60%/10-request threshold.
	for i := 0; i < 12; i++ {
		client.DeleteProperty(context.Background(), 1) //nolint:errcheck
	}

	if client.Healthy() {
		t.Error("Circuit should be open after sustained failures")
	}
}

func TestUnreachableBackend(t *testing.T) {
	client := NewClient(config.BackendConfig{
		URL:     "http://127.0.0.1:1",
		Timeout: 200 * time.Millisecond,
	})

	_, err := client.DeleteProperty(context.Background(), 1)
	var upstreamErr *models.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("Expected UpstreamError for unreachable backend, got %v", err)
	}
}
