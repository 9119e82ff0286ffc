// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

// Package api exposes the HTTP surface of the BFF: property search and
// lookup, filter lists, analytics endpoints, the admin mutation proxy,
// and cache administration.
package api

import (
	"context"

	"github.com/mendezluchoo/urbanytics/internal/backend"
	"github.com/mendezluchoo/urbanytics/internal/cache"
	"github.com/mendezluchoo/urbanytics/internal/config"
	"github.com/mendezluchoo/urbanytics/internal/database"
	"github.com/mendezluchoo/urbanytics/internal/ml"
	"github.com/mendezluchoo/urbanytics/internal/models"
)

// PropertyStore is the database capability consumed by the handlers.
type PropertyStore interface {
	SearchProperties(ctx context.Context, filters database.SearchFilters) (*models.PagedProperties, error)
	GetPropertyBySerial(ctx context.Context, serialNumber int64) (*models.Property, error)
	GetCities(ctx context.Context) ([]string, error)
	GetPropertyTypes(ctx context.Context) ([]string, error)
	GetResidentialTypes(ctx context.Context) ([]string, error)
	GetListYears(ctx context.Context) ([]int, error)
	GetFilterOptions(ctx context.Context) (*models.FilterOptions, error)
	GetStatsSummary(ctx context.Context) (*models.StatsSummary, error)
	Ping(ctx context.Context) error
}

// Dashboard is the analytics capability consumed by the handlers. The
// propertyType argument carries the optional chart filter; empty means
// the whole dataset.
type Dashboard interface {
	GetDashboard(ctx context.Context, propertyType string) (*models.DashboardData, bool, error)
	GetKPIs(ctx context.Context, propertyType string) (*models.KPIData, bool, error)
	GetAvgPriceByTown(ctx context.Context, propertyType string) ([]models.TownAvgPrice, bool, error)
	GetPropertyTypeStats(ctx context.Context, propertyType string) ([]models.PropertyTypeStats, bool, error)
	GetYearlyTrends(ctx context.Context, propertyType string) ([]models.YearlyTrend, bool, error)
	GetSalesRatioDistribution(ctx context.Context, propertyType string) ([]models.DistributionBucket, bool, error)
	GetTimeToSellDistribution(ctx context.Context, propertyType string) ([]models.DistributionBucket, bool, error)
	GetTopCities(ctx context.Context, propertyType string) ([]models.TopCity, bool, error)
	Invalidate(scopes ...string) int
}

// Mutator is the backend proxy capability consumed by the admin handlers.
type Mutator interface {
	CreateProperty(ctx context.Context, input *models.PropertyInput) (*backend.Result, error)
	UpdateProperty(ctx context.Context, serialNumber int64, input *models.PropertyInput) (*backend.Result, error)
	DeleteProperty(ctx context.Context, serialNumber int64) (*backend.Result, error)
	Healthy() bool
}

// Predictor is the ML proxy capability consumed by the prediction
// handlers.
type Predictor interface {
	Predict(ctx context.Context, input *models.PredictionInput) (*models.PredictionResult, error)
	Health(ctx context.Context) (*ml.Result, error)
	Train(ctx context.Context) (*ml.Result, error)
	ModelInfo(ctx context.Context) (*ml.Result, error)
	DataStats(ctx context.Context) (*ml.Result, error)
}

// Handler holds the dependencies shared by all endpoint handlers.
type Handler struct {
	store      PropertyStore
	dashboard  Dashboard
	mutator    Mutator
	predictor  Predictor
	cacheStore cache.Cacher
	cfg        *config.Config
	version    string
}

// NewHandler wires a Handler with its dependencies.
func NewHandler(store PropertyStore, dashboard Dashboard, mutator Mutator, predictor Predictor, cacheStore cache.Cacher, cfg *config.Config, version string) *Handler {
	return &Handler{
		store:      store,
		dashboard:  dashboard,
		mutator:    mutator,
		predictor:  predictor,
		cacheStore: cacheStore,
		cfg:        cfg,
		version:    version,
	}
}
