// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(time.Minute, time.Minute)
	t.Cleanup(s.Close)
	return s
}

func TestSetAndGet(t *testing.T) {
	s := newTestStore(t)

	s.Set("key1", "value1")

	got, ok := s.Get("key1")
	if !ok {
		t.Fatal("Expected hit for key1")
	}
	if got != "value1" {
		t.Errorf("Expected value1, got %v", got)
	}
}

func TestGetMiss(t *testing.T) {
	s := newTestStore(t)

	if _, ok := s.Get("absent"); ok {
		t.Error("Expected miss for absent key")
	}

	stats := s.GetStats()
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
}

func TestExpiration(t *testing.T) {
	s := newTestStore(t)

	s.SetWithTTL("ephemeral", 42, 10*time.Millisecond)

	if _, ok := s.Get("ephemeral"); !ok {
		t.Fatal("Expected hit before expiration")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := s.Get("ephemeral"); ok {
		t.Error("Expected miss after expiration")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	s := newTestStore(t)

	s.SetWithTTL("permanent", "v", 0)
	time.Sleep(5 * time.Millisecond)

	if _, ok := s.Get("permanent"); !ok {
		t.Error("Entry with zero TTL should not expire")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s := newTestStore(t)

	s.Set("key1", "v")
	s.Delete("key1")
	s.Delete("key1")

	if _, ok := s.Get("key1"); ok {
		t.Error("Expected miss after delete")
	}
}

func TestDeletePattern(t *testing.T) {
	s := newTestStore(t)

	s.Set("properties:page:1", "a")
	s.Set("properties:page:2", "b")
	s.Set("property:serial:100", "c")
	s.Set("analytics:kpis", "d")

	removed := s.DeletePattern("properties:*")
	if removed != 2 {
		t.Errorf("Expected 2 removals, got %d", removed)
	}

	if _, ok := s.Get("properties:page:1"); ok {
		t.Error("properties:page:1 should be invalidated")
	}
	if _, ok := s.Get("analytics:kpis"); !ok {
		t.Error("analytics:kpis should survive unrelated invalidation")
	}
}

func TestDeletePatternNoMatch(t *testing.T) {
	s := newTestStore(t)

	s.Set("key1", "v")

	if removed := s.DeletePattern("nothing:*"); removed != 0 {
		t.Errorf("Expected 0 removals, got %d", removed)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)

	s.Set("key1", "a")
	s.Set("key2", "b")
	s.Get("key1")

	s.Clear()

	if _, ok := s.Get("key1"); ok {
		t.Error("Expected miss after clear")
	}

	stats := s.GetStats()
	if stats.Entries != 0 {
		t.Errorf("Expected 0 entries after clear, got %d", stats.Entries)
	}
	if stats.Hits != 1 {
		t.Errorf("Clear should not reset hit counter, got %d hits", stats.Hits)
	}
}

func TestHitRate(t *testing.T) {
	s := newTestStore(t)

	s.Set("key1", "v")
	s.Get("key1")
	s.Get("key1")
	s.Get("absent")
	s.Get("absent")

	stats := s.GetStats()
	if stats.HitRate != 0.5 {
		t.Errorf("Expected hit rate 0.5, got %f", stats.HitRate)
	}
}

func TestJanitorEvictsExpired(t *testing.T) {
	s := New(time.Minute, 10*time.Millisecond)
	defer s.Close()

	s.SetWithTTL("ephemeral", "v", time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	stats := s.GetStats()
	if stats.Entries != 0 {
		t.Errorf("Janitor should have evicted the entry, %d remain", stats.Entries)
	}
	if stats.Evictions == 0 {
		t.Error("Expected eviction to be counted")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key%d", j%10)
				s.Set(key, n)
				s.Get(key)
				if j%25 == 0 {
					s.DeletePattern("key1")
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestCloseIdempotent(t *testing.T) {
	s := New(time.Minute, time.Minute)
	s.Close()
	s.Close()

	s.Set("key1", "v")
	if _, ok := s.Get("key1"); !ok {
		t.Error("Store should remain usable after Close")
	}
}
