// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package cache

import (
	"sort"
	"strings"
)

// DeriveKey builds a deterministic cache key from a scope prefix and a
// bag of request parameters. Parameters are sorted by name so that two
// semantically identical requests always produce the same key:
//
//	DeriveKey("properties", map[string]string{"town": "Hartford", "page": "2"})
//	// "properties:page:2|town:Hartford"
//
// An empty parameter bag yields the bare prefix.
func DeriveKey(prefix string, params map[string]string) string {
	if len(params) == 0 {
		return prefix
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte(':')
	for i, name := range names {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(params[name])
	}
	return b.String()
}
