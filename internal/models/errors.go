// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package models

import (
	"errors"
	"fmt"
)

// ErrPropertyNotFound indicates a lookup by serial number matched no row.
var ErrPropertyNotFound = errors.New("property not found")

// UpstreamError wraps a failure from the backend service or the database
// so handlers can map it to 502 or 504 instead of a generic 500.
type UpstreamError struct {
	Operation string
	Timeout   bool
	Err       error
}

func (e *UpstreamError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("upstream timeout during %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("upstream failure during %s: %v", e.Operation, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// AggregationError reports which dashboard sub-query failed. The composite
// is discarded whole, so one error is enough to identify the cause.
type AggregationError struct {
	Chart string
	Err   error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation failed on %s: %v", e.Chart, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }
