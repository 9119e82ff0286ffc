// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/mendezluchoo/urbanytics/internal/models"
)

// AnalyticsDashboard handles GET /api/analytics/dashboard. The composite
// is assembled by the orchestrator; a failure in any constituent chart
// yields a 502 rather than a partial dashboard. An optional property_type
// query parameter restricts every chart to that type.
func (h *Handler) AnalyticsDashboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	dashboard, cached, err := h.dashboard.GetDashboard(r.Context(), r.URL.Query().Get("property_type"))
	if err != nil {
		var aggErr *models.AggregationError
		if errors.As(err, &aggErr) {
			respondError(w, http.StatusBadGateway, "AGGREGATION_ERROR",
				"Dashboard could not be assembled: "+aggErr.Chart+" failed", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to assemble dashboard", err)
		return
	}

	respondData(w, http.StatusOK, dashboard, start, cached)
}

// chartHandler adapts a single orchestrator chart getter to HTTP. Every
// chart accepts the optional property_type filter.
func chartHandler[T any](fetch func(r *http.Request, propertyType string) (T, bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		data, cached, err := fetch(r, r.URL.Query().Get("property_type"))
		if err != nil {
			respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch analytics", err)
			return
		}

		respondData(w, http.StatusOK, data, start, cached)
	}
}

// AnalyticsKPIs handles GET /api/analytics/kpis.
func (h *Handler) AnalyticsKPIs(w http.ResponseWriter, r *http.Request) {
	chartHandler(func(r *http.Request, propertyType string) (*models.KPIData, bool, error) {
		return h.dashboard.GetKPIs(r.Context(), propertyType)
	})(w, r)
}

// AnalyticsAvgPriceByTown handles GET /api/analytics/avg-price-by-town.
func (h *Handler) AnalyticsAvgPriceByTown(w http.ResponseWriter, r *http.Request) {
	chartHandler(func(r *http.Request, propertyType string) ([]models.TownAvgPrice, bool, error) {
		return h.dashboard.GetAvgPriceByTown(r.Context(), propertyType)
	})(w, r)
}

// AnalyticsPropertyTypes handles GET /api/analytics/property-types.
func (h *Handler) AnalyticsPropertyTypes(w http.ResponseWriter, r *http.Request) {
	chartHandler(func(r *http.Request, propertyType string) ([]models.PropertyTypeStats, bool, error) {
		return h.dashboard.GetPropertyTypeStats(r.Context(), propertyType)
	})(w, r)
}

// AnalyticsYearlyTrends handles GET /api/analytics/yearly-trends.
func (h *Handler) AnalyticsYearlyTrends(w http.ResponseWriter, r *http.Request) {
	chartHandler(func(r *http.Request, propertyType string) ([]models.YearlyTrend, bool, error) {
		return h.dashboard.GetYearlyTrends(r.Context(), propertyType)
	})(w, r)
}

// AnalyticsSalesRatioDistribution handles GET /api/analytics/sales-ratio-distribution.
func (h *Handler) AnalyticsSalesRatioDistribution(w http.ResponseWriter, r *http.Request) {
	chartHandler(func(r *http.Request, propertyType string) ([]models.DistributionBucket, bool, error) {
		return h.dashboard.GetSalesRatioDistribution(r.Context(), propertyType)
	})(w, r)
}

// AnalyticsTimeToSellDistribution handles GET /api/analytics/time-to-sell-distribution.
func (h *Handler) AnalyticsTimeToSellDistribution(w http.ResponseWriter, r *http.Request) {
	chartHandler(func(r *http.Request, propertyType string) ([]models.DistributionBucket, bool, error) {
		return h.dashboard.GetTimeToSellDistribution(r.Context(), propertyType)
	})(w, r)
}

// AnalyticsTopCities handles GET /api/analytics/top-cities.
func (h *Handler) AnalyticsTopCities(w http.ResponseWriter, r *http.Request) {
	chartHandler(func(r *http.Request, propertyType string) ([]models.TopCity, bool, error) {
		return h.dashboard.GetTopCities(r.Context(), propertyType)
	})(w, r)
}
