// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package cache

import "time"

// Cacher is the capability surface consumed by the middleware, the
// analytics orchestrator, and the admin handlers. Components accept a
// Cacher so tests can substitute their own implementation.
type Cacher interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	SetWithTTL(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	DeletePattern(pattern string) int
	Clear()
	GetStats() Stats
	Close()
}

var _ Cacher = (*Store)(nil)
