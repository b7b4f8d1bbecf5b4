// internal/platform/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "domowner"

// Metrics holds every collector of the process. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	PipelineRuns      *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
	DomainsExtracted  prometheus.Counter
	DomainsExcluded   prometheus.Counter
	WhoisLookups      *prometheus.CounterVec
	WhoisDuration     *prometheus.HistogramVec
	WhoisCache        *prometheus.CounterVec
	InferenceRequests *prometheus.CounterVec
	InferenceDuration *prometheus.HistogramVec
	BreakerState      *prometheus.GaugeVec
	HTTPRequests      *prometheus.CounterVec
}

// New creates a registry and registers all collectors on it.
// withRuntime adds the Go and process collectors (serve mode).
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)

	lookupBuckets := []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30}
	inferBuckets := []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}

	return &Metrics{
		registry: reg,
		PipelineRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by outcome (ok, inference_error, canceled).",
		}, []string{"outcome"}),
		PipelineDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of a full pipeline run.",
			Buckets:   inferBuckets,
		}),
		DomainsExtracted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domains_extracted_total",
			Help:      "Canonical domains extracted from records.",
		}),
		DomainsExcluded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domains_excluded_total",
			Help:      "Domains dropped by the exclusion policy.",
		}),
		WhoisLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "whois_lookups_total",
			Help:      "WHOIS lookups by backend and outcome.",
		}, []string{"backend", "outcome"}),
		WhoisDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "whois_lookup_duration_seconds",
			Help:      "Latency of WHOIS lookups that reached the backend.",
			Buckets:   lookupBuckets,
		}, []string{"backend"}),
		WhoisCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "whois_cache_total",
			Help:      "WHOIS cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		InferenceRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_requests_total",
			Help:      "Question-answering calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		InferenceDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Latency of question-answering calls.",
			Buckets:   inferBuckets,
		}, []string{"provider"}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		}, []string{"component"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
	}
}

// Registry exposes the underlying registry (tests, custom collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WriteTextfile dumps the registry for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) ObservePipeline(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(outcome).Inc()
	m.PipelineDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveExtraction(extracted, excluded int) {
	if m == nil {
		return
	}
	m.DomainsExtracted.Add(float64(extracted))
	m.DomainsExcluded.Add(float64(excluded))
}

// ObserveWhois records one lookup. d is ignored for cached and
// short-circuited lookups (d == 0).
func (m *Metrics) ObserveWhois(backend, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.WhoisLookups.WithLabelValues(backend, outcome).Inc()
	if d > 0 {
		m.WhoisDuration.WithLabelValues(backend).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveWhoisCache(result string) {
	if m == nil {
		return
	}
	m.WhoisCache.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveInference(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.InferenceRequests.WithLabelValues(provider, outcome).Inc()
	m.InferenceDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// SetBreakerState records a breaker transition; state follows
// resilience.State numbering.
func (m *Metrics) SetBreakerState(component string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(component).Set(float64(state))
}

func (m *Metrics) ObserveHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
