package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamfinder/internal/streams"
)

const namespace = "streamfinder"

// Resolution outcomes.
const (
	OutcomeBoth        = "both"
	OutcomePhimAPIOnly = "phimapi_only"
	OutcomeOphimOnly   = "ophim_only"
	OutcomeEmpty       = "empty"
	OutcomeNoID        = "no_id"
)

// Recorder owns a private registry so tests and multiple servers in one
// process never collide on the default registerer.
type Recorder struct {
	registry          *prometheus.Registry
	resolutions       *prometheus.CounterVec
	episodes          *prometheus.CounterVec
	duration          prometheus.Histogram
	canonicalFailures *prometheus.CounterVec
}

// New builds a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Stream resolutions by outcome.",
		}, []string{"outcome"}),
		episodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "episodes_total",
			Help:      "Normalized episodes returned, by source catalog.",
		}, []string{"source"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Wall time of stream resolutions.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}),
		canonicalFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "canonical_lookup_failures_total",
			Help:      "Failed canonical metadata lookups, by failure kind.",
		}, []string{"kind"}),
	}
	r.registry.MustRegister(
		r.resolutions,
		r.episodes,
		r.duration,
		r.canonicalFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	// Pre-create label sets so dashboards see zeros instead of gaps.
	for _, outcome := range []string{OutcomeBoth, OutcomePhimAPIOnly, OutcomeOphimOnly, OutcomeEmpty, OutcomeNoID} {
		r.resolutions.WithLabelValues(outcome)
	}
	for _, source := range []streams.SourceTag{streams.SourceA, streams.SourceB} {
		r.episodes.WithLabelValues(string(source))
	}
	return r
}

// Outcome classifies a result by which catalogs contributed.
func Outcome(result streams.AggregateResult) string {
	switch {
	case len(result.SourceA) > 0 && len(result.SourceB) > 0:
		return OutcomeBoth
	case len(result.SourceA) > 0:
		return OutcomePhimAPIOnly
	case len(result.SourceB) > 0:
		return OutcomeOphimOnly
	default:
		return OutcomeEmpty
	}
}

// ObserveResolution records one completed resolution. hadID false marks the
// defined empty outcome for records without an identifier.
func (r *Recorder) ObserveResolution(result streams.AggregateResult, hadID bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	outcome := Outcome(result)
	if !hadID {
		outcome = OutcomeNoID
	}
	r.resolutions.WithLabelValues(outcome).Inc()
	r.episodes.WithLabelValues(string(streams.SourceA)).Add(float64(len(result.SourceA)))
	r.episodes.WithLabelValues(string(streams.SourceB)).Add(float64(len(result.SourceB)))
	r.duration.Observe(elapsed.Seconds())
}

// ObserveCanonicalFailure counts a failed canonical lookup.
func (r *Recorder) ObserveCanonicalFailure(kind string) {
	if r == nil {
		return
	}
	if kind == "" {
		kind = "transient"
	}
	r.canonicalFailures.WithLabelValues(kind).Inc()
}

// Registry exposes the underlying registry for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
