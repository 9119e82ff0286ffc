// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package database

import (
	"fmt"
	"strings"
)

// SearchFilters is the closed set of filters accepted by the property
// search. Pointer fields distinguish "absent" from zero values. Any
// field outside this set simply does not exist as far as SQL generation
// is concerned, so user input can never name an arbitrary column.
type SearchFilters struct {
	Town              string   `json:"town"`
	MinPrice          *float64 `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice          *float64 `json:"max_price" validate:"omitempty,gte=0"`
	PropertyType      string   `json:"property_type"`
	ResidentialType   string   `json:"residential_type"`
	ListYear          *int     `json:"list_year" validate:"omitempty,gte=1900,lte=2100"`
	MinSalesRatio     *float64 `json:"min_sales_ratio" validate:"omitempty,gte=0"`
	MaxSalesRatio     *float64 `json:"max_sales_ratio" validate:"omitempty,gte=0"`
	MinYearsUntilSold *int     `json:"min_years_until_sold" validate:"omitempty,gte=0"`
	MaxYearsUntilSold *int     `json:"max_years_until_sold" validate:"omitempty,gte=0"`

	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
	Page      int    `json:"page" validate:"min=1"`
	Limit     int    `json:"limit" validate:"min=1,max=100"`
}

// sortColumns is the allow-list of sortable columns. Requests naming any
// other column fall back to the default sort rather than erroring.
var sortColumns = map[string]string{
	"serial_number":    "serial_number",
	"list_year":        "list_year",
	"town":             "town",
	"sale_amount":      "sale_amount",
	"assessed_value":   "assessed_value",
	"sales_ratio":      "sales_ratio",
	"property_type":    "property_type",
	"residential_type": "residential_type",
	"years_until_sold": "years_until_sold",
}

const defaultSortColumn = "serial_number"

// propertyColumns is the select list shared by the search and lookup queries.
const propertyColumns = `serial_number, list_year, date_recorded, town, address,
	assessed_value, sale_amount, sales_ratio, property_type, residential_type, years_until_sold`

// buildWhereClause translates the populated filters into parameterized
// predicates. It returns the WHERE clause (empty string when no filter
// is set) and the argument slice, numbered $1..$n in order.
func (f *SearchFilters) buildWhereClause() (string, []interface{}) {
	var conditions []string
	var args []interface{}

	arg := func(v interface{}) int {
		args = append(args, v)
		return len(args)
	}

	if f.Town != "" {
		conditions = append(conditions, fmt.Sprintf("town ILIKE $%d", arg("%"+f.Town+"%")))
	}
	if f.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("sale_amount >= $%d", arg(*f.MinPrice)))
	}
	if f.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("sale_amount <= $%d", arg(*f.MaxPrice)))
	}
	if f.PropertyType != "" {
		conditions = append(conditions, fmt.Sprintf("property_type = $%d", arg(f.PropertyType)))
	}
	if f.ResidentialType != "" {
		conditions = append(conditions, fmt.Sprintf("residential_type = $%d", arg(f.ResidentialType)))
	}
	if f.ListYear != nil {
		conditions = append(conditions, fmt.Sprintf("list_year = $%d", arg(*f.ListYear)))
	}
	if f.MinSalesRatio != nil {
		conditions = append(conditions, fmt.Sprintf("sales_ratio >= $%d", arg(*f.MinSalesRatio)))
	}
	if f.MaxSalesRatio != nil {
		conditions = append(conditions, fmt.Sprintf("sales_ratio <= $%d", arg(*f.MaxSalesRatio)))
	}
	if f.MinYearsUntilSold != nil {
		conditions = append(conditions, fmt.Sprintf("years_until_sold >= $%d", arg(*f.MinYearsUntilSold)))
	}
	if f.MaxYearsUntilSold != nil {
		conditions = append(conditions, fmt.Sprintf("years_until_sold <= $%d", arg(*f.MaxYearsUntilSold)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// orderClause resolves the sort column against the allow-list and folds
// the direction to ASC unless it is exactly "desc" (case-insensitive).
func (f *SearchFilters) orderClause() string {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = defaultSortColumn
	}

	direction := "ASC"
	if strings.EqualFold(f.SortOrder, "desc") {
		direction = "DESC"
	}

	return fmt.Sprintf(" ORDER BY %s %s", column, direction)
}

// BuildSearchQuery produces the paged data query and its paired count
// query. Both share the same predicate set; only the data query carries
// ORDER BY, LIMIT, and OFFSET.
func (f *SearchFilters) BuildSearchQuery() (dataSQL string, dataArgs []interface{}, countSQL string, countArgs []interface{}) {
	where, args := f.buildWhereClause()

	countSQL = "SELECT COUNT(*) FROM properties" + where
	countArgs = args

	offset := (f.Page - 1) * f.Limit
	dataArgs = make([]interface{}, len(args), len(args)+2)
	copy(dataArgs, args)
	dataArgs = append(dataArgs, f.Limit, offset)

	dataSQL = fmt.Sprintf("SELECT %s FROM properties%s%s LIMIT $%d OFFSET $%d",
		propertyColumns, where, f.orderClause(), len(args)+1, len(args)+2)

	return dataSQL, dataArgs, countSQL, countArgs
}
