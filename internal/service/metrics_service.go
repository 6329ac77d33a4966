package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the broadcaster.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	rejections      prometheus.Counter
	replays         prometheus.Counter
	languageResults *prometheus.CounterVec
	languageLatency *prometheus.HistogramVec
	fanout          prometheus.Histogram
	subscribers     prometheus.Gauge
	evictions       prometheus.Counter
	cacheLookups    *prometheus.CounterVec
	artifactsPurged prometheus.Counter
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

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pa_announcements_total",
		Help: "Announcements broadcast, by priority",
	}, []string{"priority"})

	rejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pa_announcements_rejected_total",
		Help: "Submissions rejected before any work started",
	})

	replays := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pa_replays_total",
		Help: "Announcements re-delivered from history",
	})

	languageResults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pa_language_results_total",
		Help: "Per-language job outcomes",
	}, []string{"language", "outcome"})

	languageLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pa_language_job_seconds",
		Help:    "Duration of translate and synthesize jobs",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	}, []string{"language"})

	fanout := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pa_broadcast_recipients",
		Help:    "Subscribers reached per broadcast",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	subscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pa_subscribers",
		Help: "Currently connected subscribers",
	})

	evictions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pa_subscriber_evictions_total",
		Help: "Subscribers dropped because their queue was full or closed",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pa_translation_cache_lookups_total",
		Help: "Translation cache lookups by result",
	}, []string{"result"})

	artifactsPurged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pa_audio_artifacts_removed_total",
		Help: "Audio artifacts removed by clear or retention sweeps",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, submissions, rejections, replays, languageResults,
		languageLatency, fanout, subscribers, evictions, cacheLookups, artifactsPurged, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		submissions:     submissions,
		rejections:      rejections,
		replays:         replays,
		languageResults: languageResults,
		languageLatency: languageLatency,
		fanout:          fanout,
		subscribers:     subscribers,
		evictions:       evictions,
		cacheLookups:    cacheLookups,
		artifactsPurged: artifactsPurged,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordSubmission counts a committed announcement and its fan-out.
func (m *MetricsService) RecordSubmission(priority string, recipients int) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(priority).Inc()
	m.fanout.Observe(float64(recipients))
}

// RecordRejection counts a submission rejected by validation.
func (m *MetricsService) RecordRejection() {
	if m == nil {
		return
	}
	m.rejections.Inc()
}

// RecordReplay counts a replay broadcast.
func (m *MetricsService) RecordReplay(recipients int) {
	if m == nil {
		return
	}
	m.replays.Inc()
	m.fanout.Observe(float64(recipients))
}

// RecordLanguageResult records a per-language outcome ("ok", "translation", "synthesis").
func (m *MetricsService) RecordLanguageResult(language, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.languageResults.WithLabelValues(language, outcome).Inc()
	m.languageLatency.WithLabelValues(language).Observe(duration.Seconds())
}

// SetSubscribers updates the connected subscriber gauge.
func (m *MetricsService) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}

// RecordEviction counts a subscriber dropped during fan-out.
func (m *MetricsService) RecordEviction() {
	if m == nil {
		return
	}
	m.evictions.Inc()
}

// RecordCacheLookup counts a translation cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordArtifactsRemoved counts removed audio files.
func (m *MetricsService) RecordArtifactsRemoved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.artifactsPurged.Add(float64(n))
}
