// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/mendezluchoo/urbanytics/internal/cache"
	"github.com/mendezluchoo/urbanytics/internal/logging"
	"github.com/mendezluchoo/urbanytics/internal/metrics"
)

// CachePolicy decides whether a request is cacheable and under what key.
// It returns the scope prefix (for metrics and invalidation), the full
// cache key, and the TTL. cacheable=false passes the request straight
// through to the handler.
type CachePolicy func(r *http.Request) (scope, key string, ttl time.Duration, cacheable bool)

// cachedResponse is the unit stored by the read-through middleware.
type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

// ReadThrough serves GET responses from the cache and transparently
// populates it on a miss. Only successful (2xx) responses are stored,
// so upstream failures are never replayed to later clients. The cache
// write happens off the request path.
//
// Responses served by this middleware carry an X-Cache header with
// value HIT or MISS.
func ReadThrough(store cache.Cacher, policy CachePolicy) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next(w, r)
				return
			}

			scope, key, ttl, cacheable := policy(r)
			if !cacheable {
				next(w, r)
				return
			}

			if val, ok := store.Get(key); ok {
				if resp, ok := val.(*cachedResponse); ok {
					metrics.RecordCacheLookup(scope, true)
					w.Header().Set("Content-Type", resp.contentType)
					w.Header().Set("X-Cache", "HIT")
					w.WriteHeader(resp.status)
					if _, err := w.Write(resp.body); err != nil {
						logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write cached response")
					}
					return
				}
				// A foreign value under our key means the key derivation
				// collided with another producer. Drop it and refill.
				store.Delete(key)
			}

			metrics.RecordCacheLookup(scope, false)

			rec := &recordingResponseWriter{ResponseWriter: w, status: http.StatusOK}
			rec.Header().Set("X-Cache", "MISS")
			next(rec, r)

			if rec.status < 200 || rec.status >= 300 {
				return
			}

			resp := &cachedResponse{
				status:      rec.status,
				contentType: rec.Header().Get("Content-Type"),
				body:        rec.buf.Bytes(),
			}
			go store.SetWithTTL(key, resp, ttl)
		}
	}
}

// recordingResponseWriter tees the response body so it can be cached
// after being sent to the client.
type recordingResponseWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (rw *recordingResponseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingResponseWriter) Write(p []byte) (int, error) {
	rw.buf.Write(p)
	return rw.ResponseWriter.Write(p)
}
