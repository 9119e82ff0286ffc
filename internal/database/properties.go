// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/mendezluchoo/urbanytics/internal/models"
)

// SearchProperties runs the filtered paged search and its paired count
// query, returning one page of rows plus pagination metadata.
func (db *DB) SearchProperties(ctx context.Context, filters SearchFilters) (*models.PagedProperties, error) {
	defer observeQuery("search_properties", time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	dataSQL, dataArgs, countSQL, countArgs := filters.BuildSearchQuery()

	var totalCount int64
	if err := db.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}

	rows, err := db.pool.Query(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	properties := make([]models.Property, 0, filters.Limit)
	for rows.Next() {
		var p models.Property
		if err := rows.Scan(
			&p.SerialNumber, &p.ListYear, &p.DateRecorded, &p.Town, &p.Address,
			&p.AssessedValue, &p.SaleAmount, &p.SalesRatio,
			&p.PropertyType, &p.ResidentialType, &p.YearsUntilSold,
		); err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read property rows: %w", err)
	}

	return &models.PagedProperties{
		Properties: properties,
		Pagination: models.NewPagination(filters.Page, filters.Limit, totalCount),
	}, nil
}

// GetPropertyBySerial looks up a single property by its serial number.
// Returns models.ErrPropertyNotFound when no row matches.
func (db *DB) GetPropertyBySerial(ctx context.Context, serialNumber int64) (*models.Property, error) {
	defer observeQuery("get_property", time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM properties WHERE serial_number = $1", propertyColumns)

	var p models.Property
	err := db.pool.QueryRow(ctx, query, serialNumber).Scan(
		&p.SerialNumber, &p.ListYear, &p.DateRecorded, &p.Town, &p.Address,
		&p.AssessedValue, &p.SaleAmount, &p.SalesRatio,
		&p.PropertyType, &p.ResidentialType, &p.YearsUntilSold,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrPropertyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query property %d: %w", serialNumber, err)
	}

	return &p, nil
}

// GetCities returns the distinct towns in alphabetical order.
func (db *DB) GetCities(ctx context.Context) ([]string, error) {
	defer observeQuery("get_cities", time.Now())
	return db.distinctStrings(ctx,
		"SELECT DISTINCT town FROM properties WHERE town IS NOT NULL AND town <> '' ORDER BY town")
}

// GetPropertyTypes returns the distinct property types in alphabetical order.
func (db *DB) GetPropertyTypes(ctx context.Context) ([]string, error) {
	defer observeQuery("get_property_types", time.Now())
	return db.distinctStrings(ctx,
		"SELECT DISTINCT property_type FROM properties WHERE property_type IS NOT NULL ORDER BY property_type")
}

// GetResidentialTypes returns the distinct residential types. The source
// dataset encodes missing values as the literal string 'Nan', which is
// filtered out here so it never reaches a dropdown.
func (db *DB) GetResidentialTypes(ctx context.Context) ([]string, error) {
	defer observeQuery("get_residential_types", time.Now())
	return db.distinctStrings(ctx,
		"SELECT DISTINCT residential_type FROM properties WHERE residential_type IS NOT NULL AND residential_type <> 'Nan' ORDER BY residential_type")
}

// GetListYears returns the distinct list years, most recent first.
func (db *DB) GetListYears(ctx context.Context) ([]int, error) {
	defer observeQuery("get_list_years", time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx,
		"SELECT DISTINCT list_year FROM properties WHERE list_year IS NOT NULL ORDER BY list_year DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query list years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("failed to scan list year: %w", err)
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

// GetFilterOptions fetches all four filter value lists concurrently.
// The pool hands each query its own connection; the first failure
// cancels the rest.
func (db *DB) GetFilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	var opts models.FilterOptions
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		opts.Cities, err = db.GetCities(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		opts.PropertyTypes, err = db.GetPropertyTypes(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		opts.ResidentialTypes, err = db.GetResidentialTypes(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		opts.ListYears, err = db.GetListYears(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// GetStatsSummary returns whole-dataset aggregates for the stats endpoint.
func (db *DB) GetStatsSummary(ctx context.Context) (*models.StatsSummary, error) {
	defer observeQuery("get_stats_summary", time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var s models.StatsSummary
	err := db.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(sale_amount), 0),
		       COALESCE(MIN(sale_amount), 0),
		       COALESCE(MAX(sale_amount), 0),
		       COUNT(DISTINCT town)
		FROM properties`).Scan(
		&s.TotalProperties, &s.AvgSaleAmount, &s.MinSaleAmount, &s.MaxSaleAmount, &s.TownCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats summary: %w", err)
	}

	return &s, nil
}

// distinctStrings runs a single-column string query and collects the rows.
func (db *DB) distinctStrings(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct values: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan distinct value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
