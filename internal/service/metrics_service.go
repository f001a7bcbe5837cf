package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface
// and the assignment/settlement engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	assignmentsTotal     *prometheus.CounterVec
	settlementsTotal     *prometheus.CounterVec
	ledgerRepairsTotal   prometheus.Counter
	notificationsTotal   *prometheus.CounterVec
	pendingConfirmations prometheus.Gauge
}

// NewMetricsService registers the collectors on a private registry.
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache read operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	assignmentsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "case_assignments_total",
		Help: "Case intake outcomes by status",
	}, []string{"status"})

	settlementsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Settlement runs by trigger",
	}, []string{"trigger"})

	ledgerRepairsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_cache_repairs_total",
		Help: "Ledger caches overwritten after reconciliation mismatches",
	})

	notificationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_notifications_total",
		Help: "Assignment notification dispatch results",
	}, []string{"result"})

	pendingConfirmations := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pending_confirmations",
		Help: "Escalation-gate decisions awaiting confirmation",
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHits, cacheMisses,
		assignmentsTotal, settlementsTotal, ledgerRepairsTotal,
		notificationsTotal, pendingConfirmations,
	)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		cacheLatency:         cacheLatency,
		cacheWrite:           cacheWrite,
		cacheHits:            cacheHits,
		cacheMisses:          cacheMisses,
		assignmentsTotal:     assignmentsTotal,
		settlementsTotal:     settlementsTotal,
		ledgerRepairsTotal:   ledgerRepairsTotal,
		notificationsTotal:   notificationsTotal,
		pendingConfirmations: pendingConfirmations,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one request's latency and outcome.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	s.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, code).Inc()
}

// RecordCacheOperation tracks a cache read and whether it hit.
func (s *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	s.cacheLatency.Observe(duration.Seconds())
	if hit {
		s.cacheHits.Inc()
	} else {
		s.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks a cache set latency.
func (s *MetricsService) ObserveCacheWrite(duration time.Duration) {
	s.cacheWrite.Observe(duration.Seconds())
}

// RecordAssignment counts an intake outcome (ASSIGNED, PENDING_CONFIRM, NO_CANDIDATE).
func (s *MetricsService) RecordAssignment(status string) {
	if s == nil {
		return
	}
	s.assignmentsTotal.WithLabelValues(status).Inc()
}

// RecordSettlement counts a settlement run by trigger (timer, manual).
func (s *MetricsService) RecordSettlement(trigger string) {
	if s == nil {
		return
	}
	s.settlementsTotal.WithLabelValues(trigger).Inc()
}

// RecordLedgerRepairs adds repaired cache counts from a reconciliation pass.
func (s *MetricsService) RecordLedgerRepairs(n int) {
	if s == nil || n <= 0 {
		return
	}
	s.ledgerRepairsTotal.Add(float64(n))
}

// RecordNotification counts one dispatch attempt result.
func (s *MetricsService) RecordNotification(success bool) {
	if s == nil {
		return
	}
	result := "ok"
	if !success {
		result = "error"
	}
	s.notificationsTotal.WithLabelValues(result).Inc()
}

// SetPendingConfirmations publishes the current pending-registry size.
func (s *MetricsService) SetPendingConfirmations(n int) {
	if s == nil {
		return
	}
	s.pendingConfirmations.Set(float64(n))
}
