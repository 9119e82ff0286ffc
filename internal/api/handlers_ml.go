// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/mendezluchoo/urbanytics/internal/cache"
	"github.com/mendezluchoo/urbanytics/internal/logging"
	"github.com/mendezluchoo/urbanytics/internal/metrics"
	"github.com/mendezluchoo/urbanytics/internal/ml"
	"github.com/mendezluchoo/urbanytics/internal/models"
	"github.com/mendezluchoo/urbanytics/internal/validation"
)

// Prediction cache lifetimes. Predictions are deterministic per input
// and model version, so they can outlive a single request; model
// metadata only changes on retrain, which clears the whole ml: scope.
const (
	predictionTTL = 5 * time.Minute
	modelInfoTTL  = time.Hour
	dataStatsTTL  = 30 * time.Minute
	featuresTTL   = time.Hour

	maxBatchPredictions = 10
)

const (
	keyModelInfo = "ml:model:info"
	keyDataStats = "ml:data:stats"
	keyFeatures  = "ml:features"
)

// MLHealth handles GET /api/ml/health by probing the ML service.
func (h *Handler) MLHealth(w http.ResponseWriter, r *http.Request) {
	result, err := h.predictor.Health(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	relayResult(w, r, result)
}

// MLTrain handles POST /api/ml/train. Retraining changes every
// prediction, so a successful train clears the whole ml: scope.
func (h *Handler) MLTrain(w http.ResponseWriter, r *http.Request) {
	result, err := h.predictor.Train(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}

	if result.StatusCode >= 200 && result.StatusCode < 300 {
		evicted := h.cacheStore.DeletePattern("ml:")
		logging.Ctx(r.Context()).Info().
			Int("evicted", evicted).
			Msg("Model retrained, prediction cache cleared")
	}
	relayResult(w, r, result)
}

// MLModelInfo handles GET /api/ml/model/info, cached until retrain or
// expiry.
func (h *Handler) MLModelInfo(w http.ResponseWriter, r *http.Request) {
	h.relayCached(w, r, keyModelInfo, modelInfoTTL, h.predictor.ModelInfo)
}

// MLDataStats handles GET /api/ml/data/stats.
func (h *Handler) MLDataStats(w http.ResponseWriter, r *http.Request) {
	h.relayCached(w, r, keyDataStats, dataStatsTTL, h.predictor.DataStats)
}

// MLPredict handles POST /api/ml/predict. Input is validated here so a
// malformed request never reaches the model; valid predictions are
// cached per distinct feature set.
func (h *Handler) MLPredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var input models.PredictionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", err)
		return
	}
	input.ApplyDefaults()
	if verr := validation.ValidateStruct(&input); verr != nil {
		respondValidationError(w, verr)
		return
	}

	key := predictionCacheKey(input)
	if val, ok := h.cacheStore.Get(key); ok {
		if result, ok := val.(*models.PredictionResult); ok {
			metrics.RecordCacheLookup("ml", true)
			respondData(w, http.StatusOK, result, start, true)
			return
		}
		h.cacheStore.Delete(key)
	}
	metrics.RecordCacheLookup("ml", false)

	result, err := h.predictor.Predict(r.Context(), &input)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}

	h.cacheStore.SetWithTTL(key, result, predictionTTL)
	respondData(w, http.StatusOK, result, start, false)
}

// MLBatchPredict handles POST /api/ml/batch-predict. Entries fail
// independently; the response reports per-index results and errors.
func (h *Handler) MLBatchPredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req struct {
		Properties []models.PredictionInput `json:"properties"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", err)
		return
	}
	if len(req.Properties) == 0 {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "A non-empty properties array is required", nil)
		return
	}
	if len(req.Properties) > maxBatchPredictions {
		respondError(w, http.StatusBadRequest, "BATCH_TOO_LARGE",
			"At most "+strconv.Itoa(maxBatchPredictions)+" properties per batch", nil)
		return
	}

	batch := models.BatchPredictionResult{
		Total:   len(req.Properties),
		Results: []models.BatchPredictionItem{},
		Errors:  []models.BatchPredictionError{},
	}

	for i := range req.Properties {
		input := req.Properties[i]
		input.ApplyDefaults()
		if verr := validation.ValidateStruct(&input); verr != nil {
			batch.Errors = append(batch.Errors, models.BatchPredictionError{
				Index: i,
				Error: verr.Error(),
			})
			continue
		}

		result, err := h.predictor.Predict(r.Context(), &input)
		if err != nil {
			batch.Errors = append(batch.Errors, models.BatchPredictionError{
				Index: i,
				Error: "Prediction failed",
			})
			continue
		}
		batch.Results = append(batch.Results, models.BatchPredictionItem{
			Index:      i,
			Input:      req.Properties[i],
			Prediction: *result,
		})
	}

	batch.Successful = len(batch.Results)
	batch.Failed = len(batch.Errors)
	respondData(w, http.StatusOK, &batch, start, false)
}

// MLFeatures handles GET /api/ml/features: the prediction input schema
// with categorical options pulled from the live model.
func (h *Handler) MLFeatures(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if val, ok := h.cacheStore.Get(keyFeatures); ok {
		if features, ok := val.(*models.PredictionFeatures); ok {
			metrics.RecordCacheLookup("ml", true)
			respondData(w, http.StatusOK, features, start, true)
			return
		}
		h.cacheStore.Delete(keyFeatures)
	}
	metrics.RecordCacheLookup("ml", false)

	result, err := h.predictor.ModelInfo(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	if result.StatusCode < 200 || result.StatusCode >= 300 {
		relayResult(w, r, result)
		return
	}

	var info models.ModelInfo
	if err := json.Unmarshal(result.Body, &info); err != nil {
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "ML service returned an unreadable model description", err)
		return
	}

	features := buildFeatureCatalog(info)
	h.cacheStore.SetWithTTL(keyFeatures, features, featuresTTL)
	respondData(w, http.StatusOK, features, start, false)
}

// buildFeatureCatalog folds the model's categorical vocabulary into the
// static prediction input schema.
func buildFeatureCatalog(info models.ModelInfo) *models.PredictionFeatures {
	zero := 0.0
	minYear, maxYear := 1900.0, 2030.0
	cats := info.Model.AvailableCategories

	features := &models.PredictionFeatures{
		Required: []models.FeatureSpec{
			{Name: "assessed_value", Type: "number", Description: "Assessed value of the property", Min: &zero},
			{Name: "property_type", Type: "string", Description: "Property type", Options: cats.PropertyTypes},
			{Name: "town", Type: "string", Description: "Town of the property", Options: cats.Towns},
		},
		Optional: []models.FeatureSpec{
			{Name: "list_year", Type: "number", Description: "Listing year", Min: &minYear, Max: &maxYear, Default: 2020},
			{Name: "residential_type", Type: "string", Description: "Residential subtype", Options: cats.ResidentialTypes},
			{Name: "years_until_sold", Type: "number", Description: "Years between listing and sale", Min: &zero, Default: 0},
		},
	}
	features.Model.Type = info.Model.Type
	features.Model.FeatureImportance = info.Model.FeatureImportance
	features.Model.Version = "1.0.0"
	return features
}

// predictionCacheKey folds the complete defaulted feature set into a
// deterministic key in the ml: scope, so retraining evicts predictions
// together with model metadata.
func predictionCacheKey(in models.PredictionInput) string {
	return cache.DeriveKey("ml:prediction", map[string]string{
		"list_year":        strconv.Itoa(in.ListYear),
		"assessed_value":   strconv.FormatFloat(in.AssessedValue, 'f', -1, 64),
		"property_type":    in.PropertyType,
		"residential_type": in.ResidentialType,
		"town":             in.Town,
		"years_until_sold": strconv.Itoa(in.YearsUntilSold),
	})
}

// relayCached serves an ML passthrough endpoint from the cache, falling
// through to fetch and caching only deliberate 2xx answers.
func (h *Handler) relayCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, fetch func(context.Context) (*ml.Result, error)) {
	if val, ok := h.cacheStore.Get(key); ok {
		if result, ok := val.(*ml.Result); ok {
			metrics.RecordCacheLookup("ml", true)
			relayResult(w, r, result)
			return
		}
		h.cacheStore.Delete(key)
	}
	metrics.RecordCacheLookup("ml", false)

	result, err := fetch(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	if result.StatusCode >= 200 && result.StatusCode < 300 {
		h.cacheStore.SetWithTTL(key, result, ttl)
	}
	relayResult(w, r, result)
}

// relayResult forwards the ML service's verdict to the client unchanged.
func relayResult(w http.ResponseWriter, r *http.Request, result *ml.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.StatusCode)
	if len(result.Body) > 0 {
		if _, err := w.Write(result.Body); err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to relay ML response")
		}
	}
}

// respondUpstreamError maps a proxy failure to 504 on timeout and 502
// otherwise.
func respondUpstreamError(w http.ResponseWriter, err error) {
	var upstreamErr *models.UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.Timeout {
		respondError(w, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "ML service timed out", err)
		return
	}
	respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "ML service is unavailable", err)
}
