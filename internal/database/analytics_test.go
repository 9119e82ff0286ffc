// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package database

import "testing"

func TestTypeFilter(t *testing.T) {
	tests := []struct {
		name         string
		propertyType string
		base         string
		wantClause   string
		wantArgs     int
	}{
		{"no filter no base", "", "", "", 0},
		{"base only", "", "town IS NOT NULL", "WHERE town IS NOT NULL", 0},
		{"filter only", "Residential", "", "WHERE property_type = $1", 1},
		{"filter and base", "Residential", "town IS NOT NULL", "WHERE town IS NOT NULL AND property_type = $1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := typeFilter(tt.propertyType, tt.base)
			if clause != tt.wantClause {
				t.Errorf("clause = %q, want %q", clause, tt.wantClause)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("got %d args, want %d", len(args), tt.wantArgs)
			}
			if tt.wantArgs == 1 && args[0] != tt.propertyType {
				t.Errorf("arg = %v, want %q", args[0], tt.propertyType)
			}
		})
	}
}
