// Package observability bundles the Prometheus metrics for the tour finder:
// search counts, per-kind cache effectiveness, and upstream adapter outcomes.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics and provides helpers to wire them
// into the HTTP surface.
type Collector struct {
	gatherer prometheus.Gatherer

	Searches       *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	CacheLookups   *prometheus.CounterVec
	UpstreamCalls  *prometheus.CounterVec
	RankedTours    prometheus.Histogram
}

// NewCollector registers the tour-finder metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	searches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tourfinder_searches_total",
		Help: "Total number of ranking searches, labeled by outcome.",
	}, []string{"outcome"})
	searches, err := registerCounterVec(reg, searches, "tourfinder_searches_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tourfinder_search_duration_seconds",
		Help:    "End-to-end ranking search latency in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	})
	duration, err = registerHistogram(reg, duration, "tourfinder_search_duration_seconds")
	if err != nil {
		return nil, err
	}

	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tourfinder_cache_lookups_total",
		Help: "Cache lookups per data kind, labeled by result (hit, miss, hit_failure).",
	}, []string{"kind", "result"})
	lookups, err = registerCounterVec(reg, lookups, "tourfinder_cache_lookups_total")
	if err != nil {
		return nil, err
	}

	upstream := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tourfinder_upstream_calls_total",
		Help: "Upstream adapter calls, labeled by adapter and outcome.",
	}, []string{"adapter", "outcome"})
	upstream, err = registerCounterVec(reg, upstream, "tourfinder_upstream_calls_total")
	if err != nil {
		return nil, err
	}

	ranked := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tourfinder_ranked_tours",
		Help:    "Number of tours returned per completed search.",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})
	ranked, err = registerHistogram(reg, ranked, "tourfinder_ranked_tours")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		Searches:       searches,
		SearchDuration: duration,
		CacheLookups:   lookups,
		UpstreamCalls:  upstream,
		RankedTours:    ranked,
	}, nil
}

// ObserveSearch records one completed search.
func (c *Collector) ObserveSearch(outcome string, resultCount int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.Searches != nil {
		c.Searches.WithLabelValues(outcome).Inc()
	}
	if c.SearchDuration != nil {
		c.SearchDuration.Observe(elapsed.Seconds())
	}
	if c.RankedTours != nil {
		c.RankedTours.Observe(float64(resultCount))
	}
}

// RecordCacheLookup satisfies the cache package's metrics hook.
func (c *Collector) RecordCacheLookup(kind, result string) {
	if c == nil || c.CacheLookups == nil {
		return
	}
	c.CacheLookups.WithLabelValues(kind, result).Inc()
}

// RecordUpstreamCall records the outcome of one adapter call.
func (c *Collector) RecordUpstreamCall(adapter, outcome string) {
	if c == nil || c.UpstreamCalls == nil {
		return
	}
	c.UpstreamCalls.WithLabelValues(adapter, outcome).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
