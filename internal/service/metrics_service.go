package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the service.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	ledgerDuration  prometheus.Observer
	campaignSize    prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	ledgerDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_compute_duration_seconds",
		Help:    "Duration of debt aggregation queries",
		Buckets: prometheus.DefBuckets,
	})

	campaignSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "campaign_recipient_count",
		Help:    "Recipient counts of created campaigns",
		Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 2000},
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "summary_cache_hits_total",
		Help: "Total summary cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "summary_cache_misses_total",
		Help: "Total summary cache misses",
	})

	registry.MustRegister(requestDuration, requestTotal, ledgerDuration, campaignSize, cacheHits, cacheMisses)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		ledgerDuration:  ledgerDuration,
		campaignSize:    campaignSize,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one request's outcome.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, fmt.Sprintf("%d", status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveLedgerCompute records the duration of a debt aggregation.
func (s *MetricsService) ObserveLedgerCompute(duration time.Duration) {
	s.ledgerDuration.Observe(duration.Seconds())
}

// ObserveCampaignSize records the recipient count of a created campaign.
func (s *MetricsService) ObserveCampaignSize(count int) {
	s.campaignSize.Observe(float64(count))
}

// RecordCacheHit increments the summary cache hit counter.
func (s *MetricsService) RecordCacheHit() { s.cacheHits.Inc() }

// RecordCacheMiss increments the summary cache miss counter.
func (s *MetricsService) RecordCacheMiss() { s.cacheMisses.Inc() }
