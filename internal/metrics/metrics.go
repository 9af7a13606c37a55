// Package metrics exposes prometheus instrumentation for the search engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/lox/storefront-search/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_searches_total",
			Help: "Total number of searches executed",
		},
		[]string{"service", "type"},
	)

	zeroResultSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_zero_result_searches_total",
			Help: "Total number of searches that matched no products",
		},
		[]string{"service"},
	)

	searchResultsCount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_search_results_count",
			Help:    "Number of products returned per search",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 200, 500, 1000},
		},
		[]string{"service"},
	)

	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_search_duration_seconds",
			Help:    "Search duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"service"},
	)

	suggestionsServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_suggestions_served_total",
			Help: "Total number of suggestions returned",
		},
		[]string{"service"},
	)

	didYouMeanTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_did_you_mean_total",
			Help: "Total number of spelling corrections offered",
		},
		[]string{"service"},
	)
)

// SearchMetrics records engine activity under a service label.
// A nil *SearchMetrics records nothing.
type SearchMetrics struct {
	serviceName string
}

func NewSearchMetrics(serviceName string) *SearchMetrics {
	return &SearchMetrics{
		serviceName: serviceName,
	}
}

func (sm *SearchMetrics) RecordSearch(queryType types.QueryType, results int, duration time.Duration) {
	if sm == nil {
		return
	}
	if queryType == "" {
		queryType = types.QueryTypeText
	}
	searchesTotal.WithLabelValues(sm.serviceName, string(queryType)).Inc()
	searchResultsCount.WithLabelValues(sm.serviceName).Observe(float64(results))
	searchDuration.WithLabelValues(sm.serviceName).Observe(duration.Seconds())
	if results == 0 {
		zeroResultSearchesTotal.WithLabelValues(sm.serviceName).Inc()
	}
}

func (sm *SearchMetrics) RecordSuggestions(count int) {
	if sm == nil || count <= 0 {
		return
	}
	suggestionsServedTotal.WithLabelValues(sm.serviceName).Add(float64(count))
}

func (sm *SearchMetrics) RecordDidYouMean() {
	if sm == nil {
		return
	}
	didYouMeanTotal.WithLabelValues(sm.serviceName).Inc()
}

func (sm *SearchMetrics) ServiceName() string {
	if sm == nil {
		return ""
	}
	return sm.serviceName
}

// Handler serves the default registry in the prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
