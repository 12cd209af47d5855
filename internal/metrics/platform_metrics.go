package metrics

import "github.com/prometheus/client_golang/prometheus"

// Platform client metrics
var (
	PlatformRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "platform_requests_total",
		Help:      "Total number of trading platform requests by endpoint and status",
	}, []string{"endpoint", "status"})
	PlatformRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "platform_request_duration_seconds",
		Help:      "Latency of trading platform requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
	MarketCatalogLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "market_catalog_lookups_total",
		Help:      "Market catalog refreshes served from cache or fetched",
	}, []string{"result"})
	MarketCatalogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "market_catalog_size",
		Help:      "Number of markets in the catalog",
	})
)

// RecordPlatformRequest records one platform request.
// status should be one of: "success", "failure"
func RecordPlatformRequest(endpoint, status string, durationSeconds float64) {
	PlatformRequestsTotal.WithLabelValues(endpoint, status).Inc()
	PlatformRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordCatalogLookup records a catalog refresh as "hit" or "miss".
func RecordCatalogLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	MarketCatalogLookupsTotal.WithLabelValues(result).Inc()
}

// UpdateCatalogSize sets the catalog size gauge.
func UpdateCatalogSize(n int) {
	MarketCatalogSize.Set(float64(n))
}
