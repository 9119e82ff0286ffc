// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package api

import (
	"net/http"
	"time"

	"github.com/mendezluchoo/urbanytics/internal/logging"
	"github.com/mendezluchoo/urbanytics/internal/metrics"
)

// CacheStats handles GET /api/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	stats := h.cacheStore.GetStats()
	metrics.CacheEntries.Set(float64(stats.Entries))

	respondData(w, http.StatusOK, stats, start, false)
}

// CacheClear handles DELETE /api/cache. With a "scope" query parameter
// only that scope is invalidated; without one the whole cache is flushed.
func (h *Handler) CacheClear(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	scope := r.URL.Query().Get("scope")
	if scope != "" {
		removed := h.cacheStore.DeletePattern(scope)
		logging.Ctx(r.Context()).Info().Str("scope", sanitizeLogValue(scope)).Int("removed", removed).Msg("Cache scope cleared")
		respondData(w, http.StatusOK, map[string]interface{}{"scope": scope, "removed": removed}, start, false)
		return
	}

	h.cacheStore.Clear()
	logging.Ctx(r.Context()).Info().Msg("Cache cleared")
	respondData(w, http.StatusOK, map[string]string{"status": "cleared"}, start, false)
}
