// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestDashboardPayloadLayout(t *testing.T) {
	dashboard := DashboardData{
		KPIs: KPIData{TotalProperties: 100},
		Charts: DashboardCharts{
			AvgPriceByTown: []TownAvgPrice{{Town: "Hartford", AvgPrice: 250000}},
			TopCities:      []TopCity{{Town: "Hartford", SalesCount: 10}},
		},
		Filters: DashboardFilters{PropertyType: "Residential"},
	}

	raw, err := json.Marshal(dashboard)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	for _, key := range []string{"kpis", "charts", "filters"} {
		if _, ok := payload[key]; !ok {
			t.Errorf("Top-level %q field missing from payload", key)
		}
	}

	var charts map[string]json.RawMessage
	if err := json.Unmarshal(payload["charts"], &charts); err != nil {
		t.Fatalf("charts field is not an object: %v", err)
	}
	for _, name := range []string{
		"avg_price_by_town", "property_types", "yearly_trends",
		"sales_ratio_distribution", "time_to_sell_distribution", "top_cities",
	} {
		if _, ok := charts[name]; !ok {
			t.Errorf("Chart %q missing from charts block", name)
		}
		if _, ok := payload[name]; ok {
			t.Errorf("Chart %q must not appear at the top level", name)
		}
	}

	var filters struct {
		PropertyType string `json:"property_type"`
	}
	if err := json.Unmarshal(payload["filters"], &filters); err != nil {
		t.Fatalf("filters field is not an object: %v", err)
	}
	if filters.PropertyType != "Residential" {
		t.Errorf("filters.property_type = %q, want Residential", filters.PropertyType)
	}
}
