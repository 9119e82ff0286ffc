// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mendezluchoo/urbanytics/internal/models"
)

// typeFilter builds the optional property-type predicate shared by all
// analytics queries. The clause text is fixed; only the value is bound.
// With a base condition present the predicate is ANDed onto it.
func typeFilter(propertyType, base string) (string, []any) {
	switch {
	case propertyType == "" && base == "":
		return "", nil
	case propertyType == "":
		return "WHERE " + base, nil
	case base == "":
		return "WHERE property_type = $1", []any{propertyType}
	default:
		return "WHERE " + base + " AND property_type = $1", []any{propertyType}
	}
}

// GetKPIs computes the headline dashboard indicators in a single scan,
// optionally restricted to one property type.
func (db *DB) GetKPIs(ctx context.Context, propertyType string) (*models.KPIData, error) {
	defer observeQuery("analytics_kpis", time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	where, args := typeFilter(propertyType, "")
	var k models.KPIData
	err := db.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT COUNT(*),
		       COALESCE(AVG(sale_amount), 0),
		       COALESCE(AVG(sales_ratio), 0),
		       COALESCE(AVG(years_until_sold), 0),
		       COALESCE(SUM(sale_amount), 0)
		FROM properties %s`, where), args...).Scan(
		&k.TotalProperties, &k.AvgSaleAmount, &k.AvgSalesRatio,
		&k.AvgYearsUntilSold, &k.TotalSalesVolume)
	if err != nil {
		return nil, fmt.Errorf("failed to query KPIs: %w", err)
	}

	return &k, nil
}

// GetAvgPriceByTown returns the 15 towns with the highest average sale
// amount, with their sale counts.
func (db *DB) GetAvgPriceByTown(ctx context.Context, propertyType string) ([]models.TownAvgPrice, error) {
	defer observeQuery("analytics_avg_price_by_town", time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	where, args := typeFilter(propertyType, "town IS NOT NULL AND town <> ''")
	rows, err := db.pool.Query(ctx, fmt.Sprintf(`
		SELECT town, AVG(sale_amount), COUNT(*)
		FROM properties
		%s
		GROUP BY town
		ORDER BY AVG(sale_amount) DESC
		LIMIT 15`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query avg price by town: %w", err)
	}
	defer rows.Close()

	var result []models.TownAvgPrice
	for rows.Next() {
		var t models.TownAvgPrice
		if err := rows.Scan(&t.Town, &t.AvgPrice, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan town price row: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// GetPropertyTypeStats summarizes count, average price, and average
// sales ratio per property type.
func (db *DB) GetPropertyTypeStats(ctx context.Context, propertyType string) ([]models.PropertyTypeStats, error) {
	defer observeQuery("analytics_property_types", time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	where, args := typeFilter(propertyType, "property_type IS NOT NULL")
	rows, err := db.pool.Query(ctx, fmt.Sprintf(`
		SELECT property_type, COUNT(*), COALESCE(AVG(sale_amount), 0), COALESCE(AVG(sales_ratio), 0)
		FROM properties
		%s
		GROUP BY property_type
		ORDER BY COUNT(*) DESC`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query property type stats: %w", err)
	}
	defer rows.Close()

	var result []models.PropertyTypeStats
	for rows.Next() {
		var s models.PropertyTypeStats
		if err := rows.Scan(&s.PropertyType, &s.Count, &s.AvgSaleAmount, &s.AvgSalesRatio); err != nil {
			return nil, fmt.Errorf("failed to scan property type row: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetYearlyTrends returns sale count, average price, and total volume
// per list year in chronological order.
func (db *DB) GetYearlyTrends(ctx context.Context, propertyType string) ([]models.YearlyTrend, error) {
	defer observeQuery("analytics_yearly_trends", time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	where, args := typeFilter(propertyType, "list_year IS NOT NULL")
	rows, err := db.pool.Query(ctx, fmt.Sprintf(`
		SELECT list_year, COUNT(*), COALESCE(AVG(sale_amount), 0), COALESCE(SUM(sale_amount), 0)
		FROM properties
		%s
		GROUP BY list_year
		ORDER BY list_year`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query yearly trends: %w", err)
	}
	defer rows.Close()

	var result []models.YearlyTrend
	for rows.Next() {
		var y models.YearlyTrend
		if err := rows.Scan(&y.ListYear, &y.Count, &y.AvgSaleAmount, &y.TotalVolume); err != nil {
			return nil, fmt.Errorf("failed to scan yearly trend row: %w", err)
		}
		result = append(result, y)
	}
	return result, rows.Err()
}

// GetSalesRatioDistribution buckets sales ratios into a histogram. A
// ratio above 1.0 means the assessment exceeded the sale price.
func (db *DB) GetSalesRatioDistribution(ctx context.Context, propertyType string) ([]models.DistributionBucket, error) {
	defer observeQuery("analytics_sales_ratio_dist", time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	where, args := typeFilter(propertyType, "sales_ratio IS NOT NULL")
	rows, err := db.pool.Query(ctx, fmt.Sprintf(`
		SELECT bucket, COUNT(*) FROM (
			SELECT CASE
				WHEN sales_ratio < 0.5 THEN '0-0.5'
				WHEN sales_ratio < 0.75 THEN '0.5-0.75'
				WHEN sales_ratio < 1.0 THEN '0.75-1.0'
				WHEN sales_ratio < 1.25 THEN '1.0-1.25'
				WHEN sales_ratio < 2.0 THEN '1.25-2.0'
				ELSE '2.0+'
			END AS bucket,
			CASE
				WHEN sales_ratio < 0.5 THEN 1
				WHEN sales_ratio < 0.75 THEN 2
				WHEN sales_ratio < 1.0 THEN 3
				WHEN sales_ratio < 1.25 THEN 4
				WHEN sales_ratio < 2.0 THEN 5
				ELSE 6
			END AS bucket_order
			FROM properties
			%s
		) buckets
		GROUP BY bucket, bucket_order
		ORDER BY bucket_order`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales ratio distribution: %w", err)
	}
	defer rows.Close()

	return scanBuckets(rows)
}

// GetTimeToSellDistribution buckets the years between listing and sale.
func (db *DB) GetTimeToSellDistribution(ctx context.Context, propertyType string) ([]models.DistributionBucket, error) {
	defer observeQuery("analytics_time_to_sell_dist", time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	where, args := typeFilter(propertyType, "years_until_sold IS NOT NULL")
	rows, err := db.pool.Query(ctx, fmt.Sprintf(`
		SELECT bucket, COUNT(*) FROM (
			SELECT CASE
				WHEN years_until_sold <= 1 THEN '0-1 years'
				WHEN years_until_sold <= 2 THEN '1-2 years'
				WHEN years_until_sold <= 5 THEN '2-5 years'
				WHEN years_until_sold <= 10 THEN '5-10 years'
				ELSE '10+ years'
			END AS bucket,
			CASE
				WHEN years_until_sold <= 1 THEN 1
				WHEN years_until_sold <= 2 THEN 2
				WHEN years_until_sold <= 5 THEN 3
				WHEN years_until_sold <= 10 THEN 4
				ELSE 5
			END AS bucket_order
			FROM properties
			%s
		) buckets
		GROUP BY bucket, bucket_order
		ORDER BY bucket_order`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time to sell distribution: %w", err)
	}
	defer rows.Close()

	return scanBuckets(rows)
}

// GetTopCities returns the 10 towns with the most recorded sales.
func (db *DB) GetTopCities(ctx context.Context, propertyType string) ([]models.TopCity, error) {
	defer observeQuery("analytics_top_cities", time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	where, args := typeFilter(propertyType, "town IS NOT NULL AND town <> ''")
	rows, err := db.pool.Query(ctx, fmt.Sprintf(`
		SELECT town, COUNT(*), COALESCE(AVG(sale_amount), 0)
		FROM properties
		%s
		GROUP BY town
		ORDER BY COUNT(*) DESC
		LIMIT 10`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top cities: %w", err)
	}
	defer rows.Close()

	var result []models.TopCity
	for rows.Next() {
		var c models.TopCity
		if err := rows.Scan(&c.Town, &c.SalesCount, &c.AvgPrice); err != nil {
			return nil, fmt.Errorf("failed to scan top city row: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// bucketRows is the subset of pgx.Rows used by scanBuckets.
type bucketRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanBuckets(rows bucketRows) ([]models.DistributionBucket, error) {
	var result []models.DistributionBucket
	for rows.Next() {
		var b models.DistributionBucket
		if err := rows.Scan(&b.Bucket, &b.Count); err != nil {
			return nil, fmt.Errorf("failed to scan distribution bucket: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}
