// Package observability holds the Prometheus collectors of the API.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts requests by method, route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartstudy_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPDuration records request latency by method and route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smartstudy_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Uploads counts object uploads by kind (resource, avatar) and result.
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartstudy_uploads_total",
		Help: "Total number of file uploads by kind and result",
	}, []string{"kind", "result"})

	// Toggles counts like/save toggles by kind and resulting state.
	Toggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartstudy_toggles_total",
		Help: "Total number of like and save toggles",
	}, []string{"kind", "state"})

	// CacheLookups counts feed cache hits and misses.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartstudy_cache_lookups_total",
		Help: "Feed cache lookups by result",
	}, []string{"result"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartstudy_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// RateLimited counts rejected requests by limiter name.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartstudy_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"limiter"})
)

// State returns the label used for a toggle outcome.
func State(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
