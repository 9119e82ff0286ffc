// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/mendezluchoo/urbanytics/internal/backend"
	"github.com/mendezluchoo/urbanytics/internal/logging"
	"github.com/mendezluchoo/urbanytics/internal/models"
	"github.com/mendezluchoo/urbanytics/internal/validation"
)

// invalidationScopes lists the cache scopes stale after any property
// mutation: listing pages, single-property entries, and every analytics
// chart including the composite dashboard.
var invalidationScopes = []string{"properties", "property:", "analytics:"}

// AdminCreateProperty handles POST /api/admin/properties. The write is
// proxied to the backend service; on success the affected cache scopes
// are invalidated so the next read sees the new row.
func (h *Handler) AdminCreateProperty(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodePropertyInput(w, r)
	if !ok {
		return
	}

	result, err := h.mutator.CreateProperty(r.Context(), input)
	h.relayMutation(w, r, result, err)
}

// AdminUpdateProperty handles PUT /api/admin/properties/{serialNumber}.
func (h *Handler) AdminUpdateProperty(w http.ResponseWriter, r *http.Request) {
	serial, ok := h.serialParam(w, r)
	if !ok {
		return
	}
	input, ok := h.decodePropertyInput(w, r)
	if !ok {
		return
	}

	result, err := h.mutator.UpdateProperty(r.Context(), serial, input)
	h.relayMutation(w, r, result, err)
}

// AdminDeleteProperty handles DELETE /api/admin/properties/{serialNumber}.
func (h *Handler) AdminDeleteProperty(w http.ResponseWriter, r *http.Request) {
	serial, ok := h.serialParam(w, r)
	if !ok {
		return
	}

	result, err := h.mutator.DeleteProperty(r.Context(), serial)
	h.relayMutation(w, r, result, err)
}

func (h *Handler) serialParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	serial, err := strconv.ParseInt(chi.URLParam(r, "serialNumber"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_SERIAL", "Serial number must be an integer", nil)
		return 0, false
	}
	return serial, true
}

func (h *Handler) decodePropertyInput(w http.ResponseWriter, r *http.Request) (*models.PropertyInput, bool) {
	var input models.PropertyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", err)
		return nil, false
	}
	if verr := validation.ValidateStruct(&input); verr != nil {
		respondValidationError(w, verr)
		return nil, false
	}
	return &input, true
}

// relayMutation forwards the backend's verdict to the client. Only a
// successful (2xx) upstream response invalidates the cache; a rejected
// or failed mutation changed nothing, so the cache stays warm.
func (h *Handler) relayMutation(w http.ResponseWriter, r *http.Request, result *backend.Result, err error) {
	if err != nil {
		var upstreamErr *models.UpstreamError
		if errors.As(err, &upstreamErr) && upstreamErr.Timeout {
			respondError(w, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "Backend service timed out", err)
			return
		}
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Backend service is unavailable", err)
		return
	}

	if result.StatusCode >= 200 && result.StatusCode < 300 {
		evicted := h.dashboard.Invalidate(invalidationScopes...)
		logging.Ctx(r.Context()).Info().
			Int("status", result.StatusCode).
			Int("evicted", evicted).
			Msg("Mutation applied, cache scopes invalidated")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.StatusCode)
	if len(result.Body) > 0 {
		if _, err := w.Write(result.Body); err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to relay backend response")
		}
	}
}
