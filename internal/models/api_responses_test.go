// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package models

import "testing"

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		totalCount int64
		wantPages  int
		wantOffset int
		wantNext   bool
		wantPrev   bool
	}{
		{"partial last page", 1, 10, 95, 10, 0, true, false},
		{"exact multiple", 2, 10, 100, 10, 10, true, true},
		{"last page", 10, 10, 95, 10, 90, false, true},
		{"single page", 1, 20, 5, 1, 0, false, false},
		{"empty result", 1, 20, 0, 0, 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.limit, tt.totalCount)
			if p.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages, tt.wantPages)
			}
			if p.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", p.Offset, tt.wantOffset)
			}
			if p.HasNextPage != tt.wantNext {
				t.Errorf("HasNextPage = %v, want %v", p.HasNextPage, tt.wantNext)
			}
			if p.HasPrevPage != tt.wantPrev {
				t.Errorf("HasPrevPage = %v, want %v", p.HasPrevPage, tt.wantPrev)
			}
			if p.CurrentPage != tt.page || p.TotalCount != tt.totalCount || p.Limit != tt.limit {
				t.Errorf("Echo fields mismatch: %+v", p)
			}
		})
	}
}
