package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// SyncRuns 按最终状态统计的同步次数
	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of user sync runs by terminal state",
		},
		[]string{"state"},
	)

	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of a single user sync",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
		},
	)

	// PlatformFetches 上游平台调用结果，outcome = ok | error
	PlatformFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_fetch_total",
			Help: "Upstream platform fetch attempts by source and outcome",
		},
		[]string{"platform", "source", "outcome"},
	)

	SweepUsers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_sweep_users_total",
			Help: "Users processed by batch sweeps",
		},
		[]string{"result"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SyncRuns)
	prometheus.MustRegister(SyncDuration)
	prometheus.MustRegister(PlatformFetches)
	prometheus.MustRegister(SweepUsers)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
