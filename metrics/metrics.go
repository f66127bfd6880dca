// Package metrics exposes Prometheus instrumentation for the game server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fizzbuzz-server/models"
)

const namespace = "fizzbuzz"

// Outcome of an attempt to publish a play event.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomeDropped Outcome = "dropped"
)

type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	answersTotal    *prometheus.CounterVec
	publishedTotal  *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests, including the full answer stream.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		answersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Total number of answers streamed by kind.",
		}, []string{"kind"}),
		publishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of play events handed to the publisher by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.answersTotal,
		m.publishedTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveRequest(endpoint string, code int, d time.Duration) {
	m.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) AddAnswers(t models.Tally) {
	m.answersTotal.WithLabelValues("fizz").Add(float64(t.Fizz))
	m.answersTotal.WithLabelValues("buzz").Add(float64(t.Buzz))
	m.answersTotal.WithLabelValues("fizzbuzz").Add(float64(t.FizzBuzz))
	m.answersTotal.WithLabelValues("number").Add(float64(t.Number))
}

func (m *Metrics) RecordPublish(outcome Outcome) {
	m.publishedTotal.WithLabelValues(string(outcome)).Inc()
}

// PublishedTotal returns the publish counter for outcome.
func (m *Metrics) PublishedTotal(outcome Outcome) prometheus.Counter {
	return m.publishedTotal.WithLabelValues(string(outcome))
}

// Registry returns the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
