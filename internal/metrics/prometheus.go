package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the Prometheus collectors of the gateway
type Metrics struct {
	registry *prometheus.Registry

	// Forwarding metrics
	TranscriptionRequests *prometheus.CounterVec
	TranscriptionDuration *prometheus.HistogramVec
	UploadSize            prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a dedicated registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		TranscriptionRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voxgate_transcription_requests_total",
			Help: "Transcription requests by provider and outcome",
		}, []string{"provider", "outcome"}),
		TranscriptionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voxgate_transcription_duration_seconds",
			Help:    "Time spent forwarding a file to the backend",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"provider"}),
		UploadSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxgate_upload_size_bytes",
			Help:    "Size of accepted uploads",
			Buckets: prometheus.ExponentialBuckets(64<<10, 4, 8),
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voxgate_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voxgate_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveTranscription records one forwarding attempt. outcome is "success" or an error kind.
// Safe on a nil receiver.
func (m *Metrics) ObserveTranscription(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TranscriptionRequests.WithLabelValues(provider, outcome).Inc()
	m.TranscriptionDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveUpload records the size of an upload that passed validation
func (m *Metrics) ObserveUpload(size int64) {
	if m == nil {
		return
	}
	m.UploadSize.Observe(float64(size))
}

// ObserveHTTP records a completed HTTP request
func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
