// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

// Package analytics assembles the market dashboard by fanning out the
// individual chart queries concurrently, caching each result on its own
// key, and joining them into one composite payload.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/mendezluchoo/urbanytics/internal/cache"
	"github.com/mendezluchoo/urbanytics/internal/logging"
	"github.com/mendezluchoo/urbanytics/internal/metrics"
	"github.com/mendezluchoo/urbanytics/internal/models"
)

// Queries is the database capability the orchestrator depends on. The
// propertyType argument restricts a chart to one property type; empty
// means the whole dataset.
type Queries interface {
	GetKPIs(ctx context.Context, propertyType string) (*models.KPIData, error)
	GetAvgPriceByTown(ctx context.Context, propertyType string) ([]models.TownAvgPrice, error)
	GetPropertyTypeStats(ctx context.Context, propertyType string) ([]models.PropertyTypeStats, error)
	GetYearlyTrends(ctx context.Context, propertyType string) ([]models.YearlyTrend, error)
	GetSalesRatioDistribution(ctx context.Context, propertyType string) ([]models.DistributionBucket, error)
	GetTimeToSellDistribution(ctx context.Context, propertyType string) ([]models.DistributionBucket, error)
	GetTopCities(ctx context.Context, propertyType string) ([]models.TopCity, error)
}

// Chart cache keys. Mutations invalidate the whole "analytics" scope,
// which covers every key below plus the composite dashboard.
const (
	keyKPIs           = "analytics:kpis"
	keyAvgPriceByTown = "analytics:avg_price_by_town"
	keyPropertyTypes  = "analytics:property_types"
	keyYearlyTrends   = "analytics:yearly_trends"
	keySalesRatioDist = "analytics:sales_ratio_distribution"
	keyTimeToSellDist = "analytics:time_to_sell_distribution"
	keyTopCities      = "analytics:top_cities"
	keyDashboard      = "analytics:dashboard"
)

// chartKey derives the cache key for a chart, folding in the optional
// property-type restriction so filtered and unfiltered results never
// share an entry.
func chartKey(base, propertyType string) string {
	if propertyType == "" {
		return base
	}
	return cache.DeriveKey(base, map[string]string{"property_type": propertyType})
}

// Orchestrator serves cached analytics and coordinates the dashboard fan-out.
type Orchestrator struct {
	queries      Queries
	store        cache.Cacher
	analyticsTTL time.Duration
	dashboardTTL time.Duration
}

// New creates an Orchestrator. analyticsTTL applies to individual chart
// results, dashboardTTL to the assembled composite.
func New(queries Queries, store cache.Cacher, analyticsTTL, dashboardTTL time.Duration) *Orchestrator {
	return &Orchestrator{
		queries:      queries,
		store:        store,
		analyticsTTL: analyticsTTL,
		dashboardTTL: dashboardTTL,
	}
}

// getCached runs fetch through the cache under key. The bool reports
// whether the value came from the cache.
func getCached[T any](ctx context.Context, o *Orchestrator, scope, key string, fetch func(context.Context) (T, error)) (T, bool, error) {
	if val, ok := o.store.Get(key); ok {
		if typed, ok := val.(T); ok {
			metrics.RecordCacheLookup(scope, true)
			return typed, true, nil
		}
		o.store.Delete(key)
	}
	metrics.RecordCacheLookup(scope, false)

	result, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}

	o.store.SetWithTTL(key, result, o.analyticsTTL)
	return result, false, nil
}

// GetKPIs returns the headline indicators, cached.
func (o *Orchestrator) GetKPIs(ctx context.Context, propertyType string) (*models.KPIData, bool, error) {
	return getCached(ctx, o, "analytics", chartKey(keyKPIs, propertyType), func(ctx context.Context) (*models.KPIData, error) {
		return o.queries.GetKPIs(ctx, propertyType)
	})
}

// GetAvgPriceByTown returns the average-price-by-town chart, cached.
func (o *Orchestrator) GetAvgPriceByTown(ctx context.Context, propertyType string) ([]models.TownAvgPrice, bool, error) {
	return getCached(ctx, o, "analytics", chartKey(keyAvgPriceByTown, propertyType), func(ctx context.Context) ([]models.TownAvgPrice, error) {
		return o.queries.GetAvgPriceByTown(ctx, propertyType)
	})
}

// GetPropertyTypeStats returns the property-type analysis, cached.
func (o *Orchestrator) GetPropertyTypeStats(ctx context.Context, propertyType string) ([]models.PropertyTypeStats, bool, error) {
	return getCached(ctx, o, "analytics", chartKey(keyPropertyTypes, propertyType), func(ctx context.Context) ([]models.PropertyTypeStats, error) {
		return o.queries.GetPropertyTypeStats(ctx, propertyType)
	})
}

// GetYearlyTrends returns the sales-over-time chart, cached.
func (o *Orchestrator) GetYearlyTrends(ctx context.Context, propertyType string) ([]models.YearlyTrend, bool, error) {
	return getCached(ctx, o, "analytics", chartKey(keyYearlyTrends, propertyType), func(ctx context.Context) ([]models.YearlyTrend, error) {
		return o.queries.GetYearlyTrends(ctx, propertyType)
	})
}

// GetSalesRatioDistribution returns the sales-ratio histogram, cached.
func (o *Orchestrator) GetSalesRatioDistribution(ctx context.Context, propertyType string) ([]models.DistributionBucket, bool, error) {
	return getCached(ctx, o, "analytics", chartKey(keySalesRatioDist, propertyType), func(ctx context.Context) ([]models.DistributionBucket, error) {
		return o.queries.GetSalesRatioDistribution(ctx, propertyType)
	})
}

// GetTimeToSellDistribution returns the time-to-sell histogram, cached.
func (o *Orchestrator) GetTimeToSellDistribution(ctx context.Context, propertyType string) ([]models.DistributionBucket, bool, error) {
	return getCached(ctx, o, "analytics", chartKey(keyTimeToSellDist, propertyType), func(ctx context.Context) ([]models.DistributionBucket, error) {
		return o.queries.GetTimeToSellDistribution(ctx, propertyType)
	})
}

// GetTopCities returns the most-active-cities ranking, cached.
func (o *Orchestrator) GetTopCities(ctx context.Context, propertyType string) ([]models.TopCity, bool, error) {
	return getCached(ctx, o, "analytics", chartKey(keyTopCities, propertyType), func(ctx context.Context) ([]models.TopCity, error) {
		return o.queries.GetTopCities(ctx, propertyType)
	})
}

// GetDashboard assembles the composite dashboard. All seven constituent
// queries run concurrently; each goes through its own cache entry, so a
// dashboard miss still reuses any chart that is already warm. The join
// is all-or-nothing: if any constituent fails, the whole assembly is
// discarded and nothing is cached, so a partial dashboard can never be
// served or replayed.
func (o *Orchestrator) GetDashboard(ctx context.Context, propertyType string) (*models.DashboardData, bool, error) {
	dashboardKey := chartKey(keyDashboard, propertyType)
	if val, ok := o.store.Get(dashboardKey); ok {
		if dashboard, ok := val.(*models.DashboardData); ok {
			metrics.RecordCacheLookup("dashboard", true)
			return dashboard, true, nil
		}
		o.store.Delete(dashboardKey)
	}
	metrics.RecordCacheLookup("dashboard", false)

	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dashboard := models.DashboardData{
		Filters: models.DashboardFilters{PropertyType: propertyType},
	}
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	fail := func(chart string, err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = &models.AggregationError{Chart: chart, Err: err}
			cancel()
		}
		mu.Unlock()
	}

	run := func(chart string, fetch func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fetch(ctx); err != nil {
				fail(chart, err)
			}
		}()
	}

	run("kpis", func(ctx context.Context) error {
		v, _, err := o.GetKPIs(ctx, propertyType)
		if err == nil {
			dashboard.KPIs = *v
		}
		return err
	})
	run("avg_price_by_town", func(ctx context.Context) error {
		v, _, err := o.GetAvgPriceByTown(ctx, propertyType)
		dashboard.Charts.AvgPriceByTown = v
		return err
	})
	run("property_types", func(ctx context.Context) error {
		v, _, err := o.GetPropertyTypeStats(ctx, propertyType)
		dashboard.Charts.PropertyTypes = v
		return err
	})
	run("yearly_trends", func(ctx context.Context) error {
		v, _, err := o.GetYearlyTrends(ctx, propertyType)
		dashboard.Charts.YearlyTrends = v
		return err
	})
	run("sales_ratio_distribution", func(ctx context.Context) error {
		v, _, err := o.GetSalesRatioDistribution(ctx, propertyType)
		dashboard.Charts.SalesRatioDist = v
		return err
	})
	run("time_to_sell_distribution", func(ctx context.Context) error {
		v, _, err := o.GetTimeToSellDistribution(ctx, propertyType)
		dashboard.Charts.TimeToSellDist = v
		return err
	})
	run("top_cities", func(ctx context.Context) error {
		v, _, err := o.GetTopCities(ctx, propertyType)
		dashboard.Charts.TopCities = v
		return err
	})

	wg.Wait()

	if firstErr != nil {
		metrics.DashboardAssemblyFailures.Inc()
		logging.Ctx(ctx).Error().Err(firstErr).Msg("Dashboard assembly discarded")
		return nil, false, firstErr
	}

	metrics.DashboardAssemblyDuration.Observe(time.Since(start).Seconds())
	o.store.SetWithTTL(dashboardKey, &dashboard, o.dashboardTTL)
	return &dashboard, false, nil
}

// Invalidate removes every cache entry in the given scopes and returns
// the total number of entries evicted. Called after mutations succeed
// on the backend.
func (o *Orchestrator) Invalidate(scopes ...string) int {
	total := 0
	for _, scope := range scopes {
		n := o.store.DeletePattern(scope)
		metrics.CacheInvalidationsTotal.WithLabelValues(scope).Inc()
		total += n
	}
	if total > 0 {
		logging.Debug().Int("entries", total).Strs("scopes", scopes).Msg("Cache scopes invalidated")
	}
	return total
}
