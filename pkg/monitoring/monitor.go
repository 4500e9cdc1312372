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

	// XPAwarded 按来源累计发放的 XP（milestone / review / challenge）
	XPAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillforge_xp_awarded_total",
			Help: "Experience points awarded to learners",
		},
		[]string{"source"},
	)

	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillforge_transitions_total",
			Help: "Lifecycle transitions applied to projects and challenges",
		},
		[]string{"entity", "to"},
	)

	LLMDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skillforge_llm_request_duration_seconds",
			Help:    "Latency of prediction service calls",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "schema"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(XPAwarded)
	prometheus.MustRegister(Transitions)
	prometheus.MustRegister(LLMDuration)
}

func RecordXP(source string, xp int) {
	if xp <= 0 {
		return
	}
	XPAwarded.WithLabelValues(source).Add(float64(xp))
}

func RecordTransition(entity, to string) {
	Transitions.WithLabelValues(entity, to).Inc()
}

func ObserveLLM(provider, schema string, start time.Time) {
	LLMDuration.WithLabelValues(provider, schema).Observe(time.Since(start).Seconds())
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
