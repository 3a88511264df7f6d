// Package metrics exposes Prometheus counters for the HTTP server and the
// poem generator.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeModelError   = "model_error"
	OutcomeLookupError  = "lookup_error"
	OutcomeCanceled     = "canceled"
)

// Recorder captures request and generation metrics.
type Recorder interface {
	ObserveRequest(method, route, status string, d time.Duration)
	ObserveGeneration(outcome string, words int, d time.Duration)
}

// Noop implements Recorder without emitting anything.
type Noop struct{}

func (Noop) ObserveRequest(string, string, string, time.Duration) {}
func (Noop) ObserveGeneration(string, int, time.Duration)         {}

// Prom implements Recorder on a private Prometheus registry.
type Prom struct {
	reg *prometheus.Registry

	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	generations *prometheus.CounterVec
	words       prometheus.Counter
	genLatency  prometheus.Histogram
}

// NewProm registers the collectors under namespace, along with the Go
// runtime and process collectors.
func NewProm(namespace string) *Prom {
	p := &Prom{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method/route/status",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method/route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Poem generations by outcome",
		}, []string{"outcome"}),
		words: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generated_words_total",
			Help:      "Words sampled by successful generations",
		}),
		genLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Poem generation latency",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
	p.reg.MustRegister(
		p.requests, p.latency, p.generations, p.words, p.genLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Registry returns the registry backing p.
func (p *Prom) Registry() *prometheus.Registry {
	return p.reg
}

func (p *Prom) ObserveRequest(method, route, status string, d time.Duration) {
	p.requests.WithLabelValues(method, route, status).Inc()
	p.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (p *Prom) ObserveGeneration(outcome string, words int, d time.Duration) {
	p.generations.WithLabelValues(outcome).Inc()
	if outcome != OutcomeOK {
		return
	}
	p.words.Add(float64(words))
	p.genLatency.Observe(d.Seconds())
}

// Handler returns an HTTP handler for /metrics.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg})
}
