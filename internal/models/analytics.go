// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package models

// KPIData holds the headline indicators shown at the top of the dashboard.
type KPIData struct {
	TotalProperties   int64   `json:"total_properties"`
	AvgSaleAmount     float64 `json:"avg_sale_amount"`
	AvgSalesRatio     float64 `json:"avg_sales_ratio"`
	AvgYearsUntilSold float64 `json:"avg_years_until_sold"`
	TotalSalesVolume  float64 `json:"total_sales_volume"`
}

// TownAvgPrice is one bar of the average-price-by-town chart.
type TownAvgPrice struct {
	Town     string  `json:"town"`
	AvgPrice float64 `json:"avg_price"`
	Count    int64   `json:"count"`
}

// PropertyTypeStats summarizes sales for one property type.
type PropertyTypeStats struct {
	PropertyType  string  `json:"property_type"`
	Count         int64   `json:"count"`
	AvgSaleAmount float64 `json:"avg_sale_amount"`
	AvgSalesRatio float64 `json:"avg_sales_ratio"`
}

// YearlyTrend is one point of the sales-over-time chart.
type YearlyTrend struct {
	ListYear      int     `json:"list_year"`
	Count         int64   `json:"count"`
	AvgSaleAmount float64 `json:"avg_sale_amount"`
	TotalVolume   float64 `json:"total_volume"`
}

// DistributionBucket is one bucket of a histogram chart. The label is a
// human-readable range such as "0.5-1.0" or "2-5 years".
type DistributionBucket struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

// TopCity is one entry of the most-active-cities ranking.
type TopCity struct {
	Town       string  `json:"town"`
	SalesCount int64   `json:"sales_count"`
	AvgPrice   float64 `json:"avg_price"`
}

// DashboardCharts groups the six chart tables of the composite payload.
// Clients address them as charts.<name>.
type DashboardCharts struct {
	AvgPriceByTown []TownAvgPrice       `json:"avg_price_by_town"`
	PropertyTypes  []PropertyTypeStats  `json:"property_types"`
	YearlyTrends   []YearlyTrend        `json:"yearly_trends"`
	SalesRatioDist []DistributionBucket `json:"sales_ratio_distribution"`
	TimeToSellDist []DistributionBucket `json:"time_to_sell_distribution"`
	TopCities      []TopCity            `json:"top_cities"`
}

// DashboardFilters echoes the filters the dashboard was assembled under,
// so a client can tell a filtered composite from the full dataset.
type DashboardFilters struct {
	PropertyType string `json:"property_type,omitempty"`
}

// DashboardData is the composite payload assembled from all analytics
// sub-queries: headline KPIs plus the charts block. It is only ever
// populated whole; a failure in any constituent query discards the
// entire assembly.
type DashboardData struct {
	KPIs    KPIData          `json:"kpis"`
	Charts  DashboardCharts  `json:"charts"`
	Filters DashboardFilters `json:"filters"`
}
