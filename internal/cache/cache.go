// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

// Package cache provides an in-process TTL cache used as the read-through
// layer in front of the database and the analytics orchestrator.
//
// The cache stores opaque values under composite string keys derived by
// DeriveKey. Expired entries are reclaimed lazily on read and periodically
// by a background janitor.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/mendezluchoo/urbanytics/internal/logging"
)

// entry is a single cached value with its absolute expiration time.
// A zero expiration means the entry never expires.
type entry struct {
	value      interface{}
	expiration int64
}

func (e entry) expired(now int64) bool {
	return e.expiration > 0 && now > e.expiration
}

// Store is a thread-safe in-memory cache with per-entry TTLs.
type Store struct {
	mu         sync.RWMutex
	items      map[string]entry
	defaultTTL time.Duration

	hits      uint64
	misses    uint64
	evictions uint64

	janitorStop chan struct{}
	closeOnce   sync.Once
}

// Stats is a point-in-time snapshot of cache effectiveness counters.
type Stats struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	Entries   int     `json:"entries"`
	HitRate   float64 `json:"hit_rate"`
}

// New creates a Store with the given default TTL and starts a janitor
// goroutine that sweeps expired entries every cleanupInterval. Callers
// must Close the store to stop the janitor.
func New(defaultTTL, cleanupInterval time.Duration) *Store {
	s := &Store{
		items:       make(map[string]entry),
		defaultTTL:  defaultTTL,
		janitorStop: make(chan struct{}),
	}
	go s.janitor(cleanupInterval)
	return s
}

// Get returns the value stored under key. The second return value is
// false on a miss or when the entry has expired.
func (s *Store) Get(key string) (interface{}, bool) {
	now := time.Now().UnixNano()

	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()

	if !ok || e.expired(now) {
		s.mu.Lock()
		if e2, ok2 := s.items[key]; ok2 && e2.expired(now) {
			delete(s.items, key)
			s.evictions++
		}
		s.misses++
		s.mu.Unlock()
		return nil, false
	}

	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
	return e.value, true
}

// Set stores value under key with the store's default TTL.
func (s *Store) Set(key string, value interface{}) {
	s.SetWithTTL(key, value, s.defaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL. A non-positive
// TTL makes the entry permanent until deleted or cleared.
func (s *Store) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).UnixNano()
	}

	s.mu.Lock()
	s.items[key] = entry{value: value, expiration: exp}
	s.mu.Unlock()
}

// Delete removes the entry under key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// DeletePattern removes every entry whose key contains pattern as a
// substring and returns the number of entries removed. A trailing or
// leading '*' in the pattern is ignored, so "properties:*" and
// "properties:" invalidate the same scope.
func (s *Store) DeletePattern(pattern string) int {
	needle := strings.ReplaceAll(pattern, "*", "")

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.items {
		if strings.Contains(key, needle) {
			delete(s.items, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries without resetting the counters.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = make(map[string]entry)
	s.mu.Unlock()
}

// GetStats returns a snapshot of the cache counters.
func (s *Store) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		Entries:   len(s.items),
	}
	if total := st.Hits + st.Misses; total > 0 {
		st.HitRate = float64(st.Hits) / float64(total)
	}
	return st
}

// Close stops the janitor goroutine. The store remains usable afterwards
// but expired entries are only reclaimed lazily on read.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.janitorStop)
	})
}

// janitor periodically sweeps expired entries until Close is called.
func (s *Store) janitor(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.deleteExpired(); n > 0 {
				logging.Debug().Int("count", n).Msg("Cache janitor evicted expired entries")
			}
		case <-s.janitorStop:
			return
		}
	}
}

func (s *Store) deleteExpired() int {
	now := time.Now().UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.items {
		if e.expired(now) {
			delete(s.items, key)
			s.evictions++
			removed++
		}
	}
	return removed
}
