package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JudgeRequestsTotal counts judge requests by mode and final verdict status.
	JudgeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codearena_judge_requests_total",
			Help: "Total number of judge requests",
		},
		[]string{"mode", "status"},
	)

	// ExecutionDuration tracks sandboxed execution wall time in seconds.
	ExecutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codearena_execution_duration_seconds",
			Help:    "Wall time of sandboxed executions in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	// RateLimitedTotal counts requests denied by admission control.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codearena_rate_limited_total",
			Help: "Total number of requests denied by the rate limiter",
		},
	)

	// SandboxFailures counts sandbox infrastructure failures (not user code errors).
	SandboxFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codearena_sandbox_failures_total",
			Help: "Total number of sandbox infrastructure failures",
		},
	)
)
