// Package metrics collects and exposes Prometheus metrics for the dashboard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface handlers and components record through.
type Recorder interface {
	RecordExtraction(err error, duration time.Duration)
	RecordAuthExchangeFailure()
	RecordProcessedFetch(hit bool)
	RecordHTTPStatus(statusCode int)
}

// Collector implements Recorder with Prometheus metrics.
type Collector struct {
	extractSuccess   prometheus.Counter
	extractFail      prometheus.Counter
	extractDuration  prometheus.Histogram
	authExchangeFail prometheus.Counter
	processedFetch   *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		extractSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_extract_success_total",
			Help: "Successful snapshot extractions.",
		}),
		extractFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_extract_fail_total",
			Help: "Failed snapshot extractions.",
		}),
		extractDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_extract_duration_seconds",
			Help:    "Wall-clock duration of snapshot extraction including the raw upload.",
			Buckets: prometheus.DefBuckets,
		}),
		authExchangeFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_auth_exchange_fail_total",
			Help: "Failed authorization-code exchanges.",
		}),
		processedFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_processed_fetch_total",
			Help: "Processed snapshot lookups by outcome.",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.extractSuccess,
		c.extractFail,
		c.extractDuration,
		c.authExchangeFail,
		c.processedFetch,
		c.httpStatus,
	)

	return c
}

// RecordExtraction records the outcome and duration of one extraction.
func (c *Collector) RecordExtraction(err error, duration time.Duration) {
	if err != nil {
		c.extractFail.Inc()
	} else {
		c.extractSuccess.Inc()
	}
	c.extractDuration.Observe(duration.Seconds())
}

// RecordAuthExchangeFailure records a failed code-for-token exchange.
func (c *Collector) RecordAuthExchangeFailure() {
	c.authExchangeFail.Inc()
}

// RecordProcessedFetch records whether the processed object was obtained.
func (c *Collector) RecordProcessedFetch(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	c.processedFetch.WithLabelValues(outcome).Inc()
}

// RecordHTTPStatus records one HTTP response.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the HTTP handler serving the metrics from reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Nop is a Recorder that discards everything. Used in tests.
type Nop struct{}

func (Nop) RecordExtraction(error, time.Duration) {}
func (Nop) RecordAuthExchangeFailure()            {}
func (Nop) RecordProcessedFetch(bool)             {}
func (Nop) RecordHTTPStatus(int)                  {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
