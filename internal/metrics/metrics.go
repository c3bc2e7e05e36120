// ABOUTME: Prometheus counters for the retrieval and answer pipeline
// ABOUTME: A nil *Recorder is valid and records nothing
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "doc_assistant"

// Recorder owns a private registry with the pipeline metrics
type Recorder struct {
	registry      *prometheus.Registry
	retrievals    *prometheus.CounterVec
	answers       *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
	completion    prometheus.Histogram
}

// New creates a Recorder with its metrics registered
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		retrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_total",
			Help:      "Retrieval verdicts by the strategy that produced them.",
		}, []string{"strategy"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers returned, by outcome.",
		}, []string{"outcome"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Recovered stage failures, by stage and error kind.",
		}, []string{"stage", "kind"}),
		completion: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_seconds",
			Help:      "Latency of completion endpoint calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
	}
	r.registry.MustRegister(r.retrievals, r.answers, r.stageFailures, r.completion)
	return r
}

// Retrieval counts one retrieval verdict
func (r *Recorder) Retrieval(strategy string) {
	if r == nil {
		return
	}
	r.retrievals.WithLabelValues(strategy).Inc()
}

// Answer counts one answer
func (r *Recorder) Answer(outcome string) {
	if r == nil {
		return
	}
	r.answers.WithLabelValues(outcome).Inc()
}

// StageFailure counts one recovered stage failure
func (r *Recorder) StageFailure(stage, kind string) {
	if r == nil {
		return
	}
	r.stageFailures.WithLabelValues(stage, kind).Inc()
}

// CompletionLatency observes one completion call
func (r *Recorder) CompletionLatency(d time.Duration) {
	if r == nil {
		return
	}
	r.completion.Observe(d.Seconds())
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics disabled", http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
