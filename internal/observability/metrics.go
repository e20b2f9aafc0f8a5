// Package observability provides metrics and tracing instrumentation.
package observability

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factvault_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// UsageRecordFailures counts usage rows that could not be persisted.
	// Usage accounting is best-effort, so failures only surface here and in logs.
	UsageRecordFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "factvault_usage_record_failures_total",
		Help: "Total number of api_usage rows dropped due to persistence failures",
	})

	// RateLimitRejections counts admissions rejected per resource window.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factvault_rate_limit_rejections_total",
		Help: "Total number of requests rejected by the rate limiter",
	}, []string{"resource"})

	// FactViews counts served random facts by category.
	FactViews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factvault_fact_views_total",
		Help: "Total number of random fact picks by category",
	}, []string{"category"})
)

// InitMetrics creates the fiberprometheus middleware for per-route HTTP metrics.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}
