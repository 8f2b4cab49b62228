// Package cache implements the per-search-session memoization layer: five
// independent key-value stores, one per external data kind, with in-flight
// request de-duplication so concurrent lookups for one key collapse into a
// single upstream fetch.
//
// Stores live for the process lifetime and are never persisted. Upstream
// failures are cached as unavailable for the key, so a failing adapter is not
// retried within a search; callers treat ErrUnavailable as a neutral input.
package cache

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrUnavailable is returned for keys whose fetch has already failed this
// session. Evaluators must treat it as "no data", not as a hard error.
var ErrUnavailable = errors.New("cache: upstream data unavailable for key")

// Key is the constraint for typed cache keys: comparable for map lookup plus
// a canonical string form for flight grouping.
type Key interface {
	comparable
	String() string
}

// MetricsRecorder receives cache lookup outcomes. Implemented by
// observability.Collector; a nil recorder disables recording.
type MetricsRecorder interface {
	RecordCacheLookup(kind, result string)
}

type entry[V any] struct {
	value  V
	failed bool
}

// Store is a single-data-kind memo store with request de-duplication.
// The zero value is not usable; construct with NewStore.
type Store[K Key, V any] struct {
	kind    string
	metrics MetricsRecorder

	mu      sync.RWMutex
	entries map[K]entry[V]
	flight  singleflight.Group
}

// NewStore creates an empty store. kind labels the store in metrics.
func NewStore[K Key, V any](kind string, metrics MetricsRecorder) *Store[K, V] {
	return &Store[K, V]{
		kind:    kind,
		metrics: metrics,
		entries: make(map[K]entry[V]),
	}
}

// GetOrFetch returns the cached value for key, or runs fetch exactly once per
// key across all concurrent callers and caches its result. A fetch error is
// cached as a failure: the error is returned to the caller that triggered the
// fetch, and every later lookup for the key gets ErrUnavailable without a new
// upstream call.
func (s *Store[K, V]) GetOrFetch(ctx context.Context, key K, fetch func(ctx context.Context) (V, error)) (V, error) {
	if v, err, ok := s.lookup(key); ok {
		s.record("hit", err != nil)
		return v, err
	}

	res, err, _ := s.flight.Do(key.String(), func() (any, error) {
		// A concurrent caller may have populated the entry between the lookup
		// above and this flight winning the key.
		if v, err, ok := s.lookup(key); ok {
			return v, err
		}

		v, fetchErr := fetch(ctx)
		s.mu.Lock()
		s.entries[key] = entry[V]{value: v, failed: fetchErr != nil}
		s.mu.Unlock()
		if fetchErr != nil {
			return nil, fetchErr
		}
		return v, nil
	})

	s.record("miss", err != nil)
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Peek returns the cached value for key without fetching. The second return
// reports whether the key is resolved (successfully or as a failure).
func (s *Store[K, V]) Peek(key K) (V, error, bool) {
	return s.lookup(key)
}

// Len reports the number of resolved keys, failures included.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store[K, V]) lookup(key K) (V, error, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		var zero V
		return zero, nil, false
	}
	if e.failed {
		var zero V
		return zero, ErrUnavailable, true
	}
	return e.value, nil, true
}

func (s *Store[K, V]) record(result string, failed bool) {
	if s.metrics == nil {
		return
	}
	if result == "hit" && failed {
		result = "hit_failure"
	}
	s.metrics.RecordCacheLookup(s.kind, result)
}
