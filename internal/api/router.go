// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mendezluchoo/urbanytics/internal/cache"
	"github.com/mendezluchoo/urbanytics/internal/config"
	"github.com/mendezluchoo/urbanytics/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so it can be used with r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Router assembles the HTTP surface from the handler set and config.
type Router struct {
	handler *Handler
	store   cache.Cacher
	cfg     *config.Config
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, store cache.Cacher, cfg *config.Config) *Router {
	return &Router{handler: handler, store: store, cfg: cfg}
}

// Setup configures all routes and the middleware stack.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.Security.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	readThrough := middleware.ReadThrough(router.store, router.cachePolicy)

	// Property read endpoints, served through the read-through cache.
	r.Route("/api/properties", func(r chi.Router) {
		r.Use(router.rateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(readThrough))

		r.Get("/", router.handler.ListProperties)
		r.Post("/search", router.handler.SearchProperties)

		r.Route("/filters", func(r chi.Router) {
			r.Get("/cities", router.handler.GetCities)
			r.Get("/property-types", router.handler.GetPropertyTypes)
			r.Get("/residential-types", router.handler.GetResidentialTypes)
			r.Get("/list-years", router.handler.GetListYears)
			r.Get("/all", router.handler.GetAllFilters)
		})

		r.Get("/stats/summary", router.handler.GetStatsSummary)

		r.Get("/{serialNumber}", router.handler.GetProperty)
	})

	// Analytics endpoints cache inside the orchestrator, one entry per
	// chart, so they bypass the response-level read-through layer.
	r.Route("/api/analytics", func(r chi.Router) {
		r.Use(router.rateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/dashboard", router.handler.AnalyticsDashboard)
		r.Get("/kpis", router.handler.AnalyticsKPIs)
		r.Get("/avg-price-by-town", router.handler.AnalyticsAvgPriceByTown)
		r.Get("/property-types", router.handler.AnalyticsPropertyTypes)
		r.Get("/yearly-trends", router.handler.AnalyticsYearlyTrends)
		r.Get("/sales-ratio-distribution", router.handler.AnalyticsSalesRatioDistribution)
		r.Get("/time-to-sell-distribution", router.handler.AnalyticsTimeToSellDistribution)
		r.Get("/top-cities", router.handler.AnalyticsTopCities)
	})

	// Price predictions proxied to the ML service. Prediction and
	// metadata caching happens inside the handlers under the ml: scope.
	r.Route("/api/ml", func(r chi.Router) {
		r.Use(router.rateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/health", router.handler.MLHealth)
		r.Post("/train", router.handler.MLTrain)
		r.Post("/predict", router.handler.MLPredict)
		r.Post("/batch-predict", router.handler.MLBatchPredict)
		r.Get("/model/info", router.handler.MLModelInfo)
		r.Get("/data/stats", router.handler.MLDataStats)
		r.Get("/features", router.handler.MLFeatures)
	})

	// Mutations proxied to the backend service.
	r.Route("/api/admin/properties", func(r chi.Router) {
		r.Use(router.rateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Post("/", router.handler.AdminCreateProperty)
		r.Put("/{serialNumber}", router.handler.AdminUpdateProperty)
		r.Delete("/{serialNumber}", router.handler.AdminDeleteProperty)
	})

	// Cache administration.
	r.Route("/api/cache", func(r chi.Router) {
		r.Use(router.rateLimit())

		r.Get("/stats", router.handler.CacheStats)
		r.Delete("/", router.handler.CacheClear)
	})

	// Observability. Health gets no rate limit so monitors are never
	// throttled into false alerts.
	r.Get("/health", router.handler.Health)
	r.Get("/info", router.handler.Info)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// rateLimit returns the per-IP request limiter, or a no-op when disabled.
func (router *Router) rateLimit() func(http.Handler) http.Handler {
	if router.cfg.Security.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(router.cfg.Security.RateLimitReqs, router.cfg.Security.RateLimitWindow)
}

// cachePolicy maps read endpoints to their cache scope, key, and TTL.
// The key folds in the full sorted parameter bag so two requests with
// the same filters share an entry regardless of parameter order.
func (router *Router) cachePolicy(r *http.Request) (scope, key string, ttl time.Duration, cacheable bool) {
	path := r.URL.Path
	ttls := router.cfg.Cache

	switch {
	case path == "/api/properties" || path == "/api/properties/":
		return "properties", cache.DeriveKey("properties", queryParams(r)), ttls.PropertiesTTL, true

	case strings.HasPrefix(path, "/api/properties/filters/"):
		list := strings.TrimPrefix(path, "/api/properties/filters/")
		return "filters", cache.DeriveKey("filters", map[string]string{"list": list}), ttls.FiltersTTL, true

	case path == "/api/properties/stats/summary":
		return "stats", "stats:summary", ttls.FiltersTTL, true

	case strings.HasPrefix(path, "/api/properties/"):
		serial := strings.TrimPrefix(path, "/api/properties/")
		if serial == "" || strings.Contains(serial, "/") {
			return "", "", 0, false
		}
		return "property", "property:serial:" + serial, ttls.PropertyTTL, true
	}

	return "", "", 0, false
}

// queryParams flattens the query string into a map, taking the first
// value of each parameter.
func queryParams(r *http.Request) map[string]string {
	values := r.URL.Query()
	if len(values) == 0 {
		return nil
	}
	params := make(map[string]string, len(values))
	for name, vals := range values {
		if len(vals) > 0 {
			params[name] = vals[0]
		}
	}
	return params
}
