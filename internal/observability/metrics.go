package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequestDuration records social API latency by operation and status.
	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postboard_upstream_request_duration_seconds",
		Help:    "Social API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	// CacheRequests counts read-through cache lookups by result (hit, miss, error).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_cache_requests_total",
		Help: "Total number of cache lookups by result",
	}, []string{"result"})

	// StaleRenders counts fetch results discarded because a newer request superseded them.
	StaleRenders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postboard_stale_renders_total",
		Help: "Total number of superseded page results that were discarded",
	})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// RateLimitRejections counts requests refused by the rate limiter.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_rate_limit_rejections_total",
		Help: "Total number of rate limited requests by resource",
	}, []string{"resource"})
)

// ObserveUpstream records the latency of a social API call. Status 0 means the
// request never produced a response.
func ObserveUpstream(operation string, status int, start time.Time) {
	UpstreamRequestDuration.
		WithLabelValues(operation, strconv.Itoa(status)).
		Observe(time.Since(start).Seconds())
}
