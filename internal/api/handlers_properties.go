// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/mendezluchoo/urbanytics/internal/cache"
	"github.com/mendezluchoo/urbanytics/internal/database"
	"github.com/mendezluchoo/urbanytics/internal/metrics"
	"github.com/mendezluchoo/urbanytics/internal/models"
	"github.com/mendezluchoo/urbanytics/internal/validation"
)

// filtersFromQuery parses the GET listing query parameters into the
// closed filter set, applying pagination defaults from config.
func (h *Handler) filtersFromQuery(r *http.Request) database.SearchFilters {
	q := r.URL.Query()
	return database.SearchFilters{
		Town:              q.Get("town"),
		MinPrice:          getFloatPtrParam(r, "min_price"),
		MaxPrice:          getFloatPtrParam(r, "max_price"),
		PropertyType:      q.Get("property_type"),
		ResidentialType:   q.Get("residential_type"),
		ListYear:          getIntPtrParam(r, "list_year"),
		MinSalesRatio:     getFloatPtrParam(r, "min_sales_ratio"),
		MaxSalesRatio:     getFloatPtrParam(r, "max_sales_ratio"),
		MinYearsUntilSold: getIntPtrParam(r, "min_years_until_sold"),
		MaxYearsUntilSold: getIntPtrParam(r, "max_years_until_sold"),
		SortBy:            q.Get("sort_by"),
		SortOrder:         q.Get("sort_order"),
		Page:              getIntParam(r, "page", 1),
		Limit:             getIntParam(r, "limit", h.cfg.API.DefaultPageSize),
	}
}

// ListProperties handles GET /api/properties with filters in the query string.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	filters := h.filtersFromQuery(r)
	if filters.Limit > h.cfg.API.MaxPageSize {
		filters.Limit = h.cfg.API.MaxPageSize
	}
	if verr := validation.ValidateStruct(&filters); verr != nil {
		respondValidationError(w, verr)
		return
	}

	h.runSearch(w, r, filters, start)
}

// SearchProperties handles POST /api/properties/search with filters in
// the JSON body. Semantically identical to the GET listing; the POST
// form exists for clients whose filter sets outgrow a query string.
// POSTs bypass the response cache middleware, so results are cached
// here under a key derived from the validated filter set.
func (h *Handler) SearchProperties(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var filters database.SearchFilters
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", err)
		return
	}

	if filters.Page == 0 {
		filters.Page = 1
	}
	if filters.Limit == 0 {
		filters.Limit = h.cfg.API.DefaultPageSize
	}
	if filters.Limit > h.cfg.API.MaxPageSize {
		filters.Limit = h.cfg.API.MaxPageSize
	}
	if verr := validation.ValidateStruct(&filters); verr != nil {
		respondValidationError(w, verr)
		return
	}

	key := searchCacheKey(filters)
	if val, ok := h.cacheStore.Get(key); ok {
		if result, ok := val.(*models.PagedProperties); ok {
			metrics.RecordCacheLookup("properties", true)
			respondData(w, http.StatusOK, result, start, true)
			return
		}
		h.cacheStore.Delete(key)
	}
	metrics.RecordCacheLookup("properties", false)

	result, err := h.store.SearchProperties(r.Context(), filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to search properties", err)
		return
	}

	h.cacheStore.SetWithTTL(key, result, h.cfg.Cache.PropertiesTTL)
	respondData(w, http.StatusOK, result, start, false)
}

// searchCacheKey folds the active filters into a deterministic cache
// key in the "properties" scope, so mutations evict searches together
// with listing pages.
func searchCacheKey(f database.SearchFilters) string {
	params := map[string]string{
		"page":  strconv.Itoa(f.Page),
		"limit": strconv.Itoa(f.Limit),
	}
	if f.Town != "" {
		params["town"] = f.Town
	}
	if f.PropertyType != "" {
		params["property_type"] = f.PropertyType
	}
	if f.ResidentialType != "" {
		params["residential_type"] = f.ResidentialType
	}
	if f.SortBy != "" {
		params["sort_by"] = f.SortBy
	}
	if f.SortOrder != "" {
		params["sort_order"] = f.SortOrder
	}
	if f.MinPrice != nil {
		params["min_price"] = strconv.FormatFloat(*f.MinPrice, 'f', -1, 64)
	}
	if f.MaxPrice != nil {
		params["max_price"] = strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64)
	}
	if f.MinSalesRatio != nil {
		params["min_sales_ratio"] = strconv.FormatFloat(*f.MinSalesRatio, 'f', -1, 64)
	}
	if f.MaxSalesRatio != nil {
		params["max_sales_ratio"] = strconv.FormatFloat(*f.MaxSalesRatio, 'f', -1, 64)
	}
	if f.ListYear != nil {
		params["list_year"] = strconv.Itoa(*f.ListYear)
	}
	if f.MinYearsUntilSold != nil {
		params["min_years_until_sold"] = strconv.Itoa(*f.MinYearsUntilSold)
	}
	if f.MaxYearsUntilSold != nil {
		params["max_years_until_sold"] = strconv.Itoa(*f.MaxYearsUntilSold)
	}
	return cache.DeriveKey("properties:search", params)
}

func (h *Handler) runSearch(w http.ResponseWriter, r *http.Request, filters database.SearchFilters, start time.Time) {
	result, err := h.store.SearchProperties(r.Context(), filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to search properties", err)
		return
	}

	respondData(w, http.StatusOK, result, start, false)
}

// GetProperty handles GET /api/properties/{serialNumber}.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	serial, err := strconv.ParseInt(chi.URLParam(r, "serialNumber"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_SERIAL", "Serial number must be an integer", nil)
		return
	}

	property, err := h.store.GetPropertyBySerial(r.Context(), serial)
	if errors.Is(err, models.ErrPropertyNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Property not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch property", err)
		return
	}

	respondData(w, http.StatusOK, property, start, false)
}

// GetCities handles GET /api/properties/filters/cities.
func (h *Handler) GetCities(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, func() (interface{}, error) {
		return h.store.GetCities(r.Context())
	})
}

// GetPropertyTypes handles GET /api/properties/filters/property-types.
func (h *Handler) GetPropertyTypes(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, func() (interface{}, error) {
		return h.store.GetPropertyTypes(r.Context())
	})
}

// GetResidentialTypes handles GET /api/properties/filters/residential-types.
func (h *Handler) GetResidentialTypes(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, func() (interface{}, error) {
		return h.store.GetResidentialTypes(r.Context())
	})
}

// GetListYears handles GET /api/properties/filters/list-years.
func (h *Handler) GetListYears(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, func() (interface{}, error) {
		return h.store.GetListYears(r.Context())
	})
}

// GetAllFilters handles GET /api/properties/filters/all.
func (h *Handler) GetAllFilters(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, func() (interface{}, error) {
		return h.store.GetFilterOptions(r.Context())
	})
}

// GetStatsSummary handles GET /api/properties/stats/summary.
func (h *Handler) GetStatsSummary(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, func() (interface{}, error) {
		return h.store.GetStatsSummary(r.Context())
	})
}

func (h *Handler) respondList(w http.ResponseWriter, _ *http.Request, fetch func() (interface{}, error)) {
	start := time.Now()

	data, err := fetch()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch data", err)
		return
	}

	respondData(w, http.StatusOK, data, start, false)
}
