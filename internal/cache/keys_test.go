// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package cache

import "testing"

func TestDeriveKeyDeterministic(t *testing.T) {
	a := DeriveKey("properties", map[string]string{"town": "Hartford", "page": "2", "limit": "10"})
	b := DeriveKey("properties", map[string]string{"limit": "10", "page": "2", "town": "Hartford"})

	if a != b {
		t.Errorf("Same parameters must derive the same key: %q vs %q", a, b)
	}
}

func TestDeriveKeySortedOrder(t *testing.T) {
	got := DeriveKey("properties", map[string]string{"town": "Hartford", "page": "2"})
	want := "properties:page:2|town:Hartford"

	if got != want {
		t.Errorf("DeriveKey = %q, want %q", got, want)
	}
}

func TestDeriveKeyEmptyParams(t *testing.T) {
	if got := DeriveKey("filters", nil); got != "filters" {
		t.Errorf("Empty bag should yield bare prefix, got %q", got)
	}
	if got := DeriveKey("filters", map[string]string{}); got != "filters" {
		t.Errorf("Empty bag should yield bare prefix, got %q", got)
	}
}

func TestDeriveKeyDiscriminates(t *testing.T) {
	a := DeriveKey("properties", map[string]string{"page": "1"})
	b := DeriveKey("properties", map[string]string{"page": "2"})

	if a == b {
		t.Error("Different parameter values must derive different keys")
	}
}

func TestDeriveKeyPrefixScoping(t *testing.T) {
	a := DeriveKey("properties", map[string]string{"page": "1"})
	b := DeriveKey("analytics", map[string]string{"page": "1"})

	if a == b {
		t.Error("Different prefixes must derive different keys")
	}
}
