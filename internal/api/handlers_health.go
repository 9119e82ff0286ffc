// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package api

import (
	"net/http"
	"runtime"
	"time"
)

var startTime = time.Now()

// Health handles GET /health. Reports degraded (503) when the database
// is unreachable; the backend circuit state is informational since reads
// keep working while the backend is down.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	status := http.StatusOK
	dbStatus := "up"
	if err := h.store.Ping(r.Context()); err != nil {
		status = http.StatusServiceUnavailable
		dbStatus = "down"
	}

	backendStatus := "up"
	if !h.mutator.Healthy() {
		backendStatus = "circuit_open"
	}

	payload := map[string]interface{}{
		"status":   map[int]string{http.StatusOK: "healthy", http.StatusServiceUnavailable: "degraded"}[status],
		"database": dbStatus,
		"backend":  backendStatus,
		"uptime":   time.Since(startTime).Round(time.Second).String(),
	}

	respondData(w, status, payload, start, false)
}

// Info handles GET /info with build and runtime details.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	respondData(w, http.StatusOK, map[string]interface{}{
		"name":        "urbanytics-bff",
		"version":     h.version,
		"environment": h.cfg.Server.Environment,
		"go_version":  runtime.Version(),
	}, start, false)
}
