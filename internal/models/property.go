// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

// Package models defines the data structures shared between the database
// layer, the analytics orchestrator, and the HTTP API.
package models

import "time"

// Property is a single recorded real-estate sale. Nullable columns in the
// source dataset are represented as pointers so absent values serialize
// as null rather than zero.
type Property struct {
	SerialNumber    int64      `json:"serial_number"`
	ListYear        int        `json:"list_year"`
	DateRecorded    *time.Time `json:"date_recorded,omitempty"`
	Town            string     `json:"town"`
	Address         *string    `json:"address,omitempty"`
	AssessedValue   float64    `json:"assessed_value"`
	SaleAmount      float64    `json:"sale_amount"`
	SalesRatio      float64    `json:"sales_ratio"`
	PropertyType    *string    `json:"property_type,omitempty"`
	ResidentialType *string    `json:"residential_type,omitempty"`
	YearsUntilSold  *int       `json:"years_until_sold,omitempty"`
}

// PropertyInput carries the mutable fields of a property for create and
// update operations proxied to the backend service.
type PropertyInput struct {
	SerialNumber    int64    `json:"serial_number" validate:"required,gt=0"`
	ListYear        int      `json:"list_year" validate:"required,gte=1900,lte=2100"`
	DateRecorded    *string  `json:"date_recorded,omitempty"`
	Town            string   `json:"town" validate:"required,max=100"`
	Address         *string  `json:"address,omitempty"`
	AssessedValue   float64  `json:"assessed_value" validate:"gte=0"`
	SaleAmount      float64  `json:"sale_amount" validate:"gte=0"`
	SalesRatio      *float64 `json:"sales_ratio,omitempty"`
	PropertyType    *string  `json:"property_type,omitempty"`
	ResidentialType *string  `json:"residential_type,omitempty"`
	YearsUntilSold  *int     `json:"years_until_sold,omitempty"`
}

// FilterOptions aggregates the distinct values available for each
// filterable column, used by clients to populate filter dropdowns.
type FilterOptions struct {
	Cities           []string `json:"cities"`
	PropertyTypes    []string `json:"property_types"`
	ResidentialTypes []string `json:"residential_types"`
	ListYears        []int    `json:"list_years"`
}

// StatsSummary is a lightweight aggregate over the whole dataset.
type StatsSummary struct {
	TotalProperties int64   `json:"total_properties"`
	AvgSaleAmount   float64 `json:"avg_sale_amount"`
	MinSaleAmount   float64 `json:"min_sale_amount"`
	MaxSaleAmount   float64 `json:"max_sale_amount"`
	TownCount       int64   `json:"town_count"`
}
