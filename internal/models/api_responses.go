// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package models

import "time"

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Status   string       `json:"status"`
	Data     interface{}  `json:"data,omitempty"`
	Metadata *APIMetadata `json:"metadata,omitempty"`
	Error    *APIError    `json:"error,omitempty"`
}

// APIMetadata carries response provenance for clients and debugging.
type APIMetadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
	Cached      bool      `json:"cached"`
}

// APIError describes a failed request in a machine-readable way.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Pagination describes the position of a page within a result set.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalCount  int64 `json:"total_count"`
	Limit       int   `json:"limit"`
	Offset      int   `json:"offset"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
}

// NewPagination computes pagination metadata from a total row count and
// the requested page and limit. Page is 1-based.
func NewPagination(page, limit int, totalCount int64) Pagination {
	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
		Limit:       limit,
		Offset:      (page - 1) * limit,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

// PagedProperties is a page of property rows plus its position metadata.
type PagedProperties struct {
	Properties []Property `json:"properties"`
	Pagination Pagination `json:"pagination"`
}
