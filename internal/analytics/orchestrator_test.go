// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package analytics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mendezluchoo/urbanytics/internal/cache"
	"github.com/mendezluchoo/urbanytics/internal/models"
)

// fakeQueries counts calls per chart and can fail selected charts.
type fakeQueries struct {
	calls    map[string]*int64
	failures map[string]error
}

func newFakeQueries() *fakeQueries {
	f := &fakeQueries{calls: map[string]*int64{}, failures: map[string]error{}}
	for _, name := range []string{"kpis", "towns", "types", "trends", "ratio", "tts", "cities"} {
		var n int64
		f.calls[name] = &n
	}
	return f
}

func (f *fakeQueries) count(name string) int64 {
	return atomic.LoadInt64(f.calls[name])
}

func (f *fakeQueries) record(name string) error {
	atomic.AddInt64(f.calls[name], 1)
	return f.failures[name]
}

func (f *fakeQueries) GetKPIs(ctx context.Context, propertyType string) (*models.KPIData, error) {
	if err := f.record("kpis"); err != nil {
		return nil, err
	}
	return &models.KPIData{TotalProperties: 100}, nil
}

func (f *fakeQueries) GetAvgPriceByTown(ctx context.Context, propertyType string) ([]models.TownAvgPrice, error) {
	if err := f.record("towns"); err != nil {
		return nil, err
	}
	return []models.TownAvgPrice{{Town: "Hartford", AvgPrice: 250000, Count: 10}}, nil
}

func (f *fakeQueries) GetPropertyTypeStats(ctx context.Context, propertyType string) ([]models.PropertyTypeStats, error) {
	if err := f.record("types"); err != nil {
		return nil, err
	}
	return []models.PropertyTypeStats{{PropertyType: "Residential", Count: 80}}, nil
}

func (f *fakeQueries) GetYearlyTrends(ctx context.Context, propertyType string) ([]models.YearlyTrend, error) {
	if err := f.record("trends"); err != nil {
		return nil, err
	}
	return []models.YearlyTrend{{ListYear: 2020, Count: 40}}, nil
}

func (f *fakeQueries) GetSalesRatioDistribution(ctx context.Context, propertyType string) ([]models.DistributionBucket, error) {
	if err := f.record("ratio"); err != nil {
		return nil, err
	}
	return []models.DistributionBucket{{Bucket: "0.75-1.0", Count: 30}}, nil
}

func (f *fakeQueries) GetTimeToSellDistribution(ctx context.Context, propertyType string) ([]models.DistributionBucket, error) {
	if err := f.record("tts"); err != nil {
		return nil, err
	}
	return []models.DistributionBucket{{Bucket: "0-1 years", Count: 50}}, nil
}

func (f *fakeQueries) GetTopCities(ctx context.Context, propertyType string) ([]models.TopCity, error) {
	if err := f.record("cities"); err != nil {
		return nil, err
	}
	return []models.TopCity{{Town: "Hartford", SalesCount: 10}}, nil
}

func newTestOrchestrator(t *testing.T, queries Queries) (*Orchestrator, *cache.Store) {
	t.Helper()
	store := cache.New(time.Minute, time.Minute)
	t.Cleanup(store.Close)
	return New(queries, store, time.Minute, time.Minute), store
}

func TestGetDashboardAssemblesAllCharts(t *testing.T) {
	queries := newFakeQueries()
	o, _ := newTestOrchestrator(t, queries)

	dashboard, cached, err := o.GetDashboard(context.Background(), "")
	if err != nil {
		t.Fatalf("GetDashboard failed: %v", err)
	}
	if cached {
		t.Error("First assembly should not be cached")
	}

	if dashboard.KPIs.TotalProperties != 100 {
		t.Errorf("KPIs missing from composite: %+v", dashboard.KPIs)
	}
	if len(dashboard.Charts.AvgPriceByTown) != 1 || dashboard.Charts.AvgPriceByTown[0].Town != "Hartford" {
		t.Errorf("Town chart missing from composite: %+v", dashboard.Charts.AvgPriceByTown)
	}
	if len(dashboard.Charts.TopCities) != 1 {
		t.Errorf("Top cities missing from composite: %+v", dashboard.Charts.TopCities)
	}
	if dashboard.Filters.PropertyType != "" {
		t.Errorf("Unfiltered dashboard must not echo a property type, got %q", dashboard.Filters.PropertyType)
	}
}

func TestGetDashboardEchoesActiveFilter(t *testing.T) {
	queries := newFakeQueries()
	o, _ := newTestOrchestrator(t, queries)

	dashboard, _, err := o.GetDashboard(context.Background(), "Residential")
	if err != nil {
		t.Fatalf("GetDashboard failed: %v", err)
	}
	if dashboard.Filters.PropertyType != "Residential" {
		t.Errorf("Filtered dashboard must echo its property type, got %q", dashboard.Filters.PropertyType)
	}
}

func TestGetDashboardServedFromCache(t *testing.T) {
	queries := newFakeQueries()
	o, _ := newTestOrchestrator(t, queries)

	if _, _, err := o.GetDashboard(context.Background(), ""); err != nil {
		t.Fatalf("First assembly failed: %v", err)
	}

	_, cached, err := o.GetDashboard(context.Background(), "")
	if err != nil {
		t.Fatalf("Second call failed: %v", err)
	}
	if !cached {
		t.Error("Second call should be served from cache")
	}
	if n := queries.count("kpis"); n != 1 {
		t.Errorf("KPI query should run once, ran %d times", n)
	}
}

func TestGetDashboardAllOrNothing(t *testing.T) {
	queries := newFakeQueries()
	queries.failures["trends"] = errors.New("connection reset")
	o, store := newTestOrchestrator(t, queries)

	dashboard, _, err := o.GetDashboard(context.Background(), "")
	if err == nil {
		t.Fatal("Expected assembly failure when one chart fails")
	}
	if dashboard != nil {
		t.Error("Failed assembly must not return a partial dashboard")
	}

	var aggErr *models.AggregationError
	if !errors.As(err, &aggErr) {
		t.Fatalf("Expected AggregationError, got %T", err)
	}

	if _, ok := store.Get(keyDashboard); ok {
		t.Error("Failed assembly must not cache the composite")
	}
	if _, ok := store.Get(keyYearlyTrends); ok {
		t.Error("Failed chart must not be cached")
	}
}

func TestGetDashboardReusesWarmCharts(t *testing.T) {
	queries := newFakeQueries()
	o, _ := newTestOrchestrator(t, queries)

	// Warm one chart through its own endpoint.
	if _, _, err := o.GetKPIs(context.Background(), ""); err != nil {
		t.Fatalf("GetKPIs failed: %v", err)
	}

	if _, _, err := o.GetDashboard(context.Background(), ""); err != nil {
		t.Fatalf("Assembly failed: %v", err)
	}

	if n := queries.count("kpis"); n != 1 {
		t.Errorf("Warm KPI chart should not be re-queried, ran %d times", n)
	}
	if n := queries.count("cities"); n != 1 {
		t.Errorf("Cold chart should be queried once, ran %d times", n)
	}
}

func TestChartEndpointsCacheIndividually(t *testing.T) {
	queries := newFakeQueries()
	o, _ := newTestOrchestrator(t, queries)

	for i := 0; i < 3; i++ {
		if _, _, err := o.GetTopCities(context.Background(), ""); err != nil {
			t.Fatalf("GetTopCities failed: %v", err)
		}
	}

	if n := queries.count("cities"); n != 1 {
		t.Errorf("Chart query should run once across repeated calls, ran %d times", n)
	}
}

func TestInvalidateClearsAnalyticsScope(t *testing.T) {
	queries := newFakeQueries()
	o, store := newTestOrchestrator(t, queries)

	if _, _, err := o.GetDashboard(context.Background(), ""); err != nil {
		t.Fatalf("Assembly failed: %v", err)
	}
	store.Set("properties:page:1", "unrelated scope")

	removed := o.Invalidate("analytics:")
	if removed < 8 {
		t.Errorf("Expected at least 8 evictions (7 charts + composite), got %d", removed)
	}

	if _, ok := store.Get(keyDashboard); ok {
		t.Error("Dashboard should be invalidated")
	}
	if _, ok := store.Get("properties:page:1"); !ok {
		t.Error("Unrelated scope must survive analytics invalidation")
	}

	// Next dashboard call re-queries everything.
	if _, _, err := o.GetDashboard(context.Background(), ""); err != nil {
		t.Fatalf("Reassembly failed: %v", err)
	}
	if n := queries.count("kpis"); n != 2 {
		t.Errorf("Expected fresh KPI query after invalidation, ran %d times", n)
	}
}

func TestPropertyTypeVariantsCacheSeparately(t *testing.T) {
	queries := newFakeQueries()
	o, store := newTestOrchestrator(t, queries)

	if _, _, err := o.GetKPIs(context.Background(), ""); err != nil {
		t.Fatalf("Unfiltered GetKPIs failed: %v", err)
	}
	if _, _, err := o.GetKPIs(context.Background(), "Residential"); err != nil {
		t.Fatalf("Filtered GetKPIs failed: %v", err)
	}

	if n := queries.count("kpis"); n != 2 {
		t.Errorf("Filtered and unfiltered charts must query separately, ran %d times", n)
	}
	if _, ok := store.Get(keyKPIs); !ok {
		t.Error("Unfiltered entry missing")
	}
	if _, ok := store.Get(keyKPIs + ":property_type:Residential"); !ok {
		t.Error("Filtered entry missing under its derived key")
	}

	// Both variants sit in the analytics scope and fall together.
	o.Invalidate("analytics:")
	if _, ok := store.Get(keyKPIs + ":property_type:Residential"); ok {
		t.Error("Filtered entry must be evicted with the analytics scope")
	}
}
