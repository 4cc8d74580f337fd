// Package metrics exposes question generation and HTTP serving counters
// to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhisek/adaptiq/internal/problemgen"
)

const namespace = "adaptiq"

// Metrics holds every collector. It implements engine.Recorder.
type Metrics struct {
	questions       *prometheus.CounterVec
	resets          *prometheus.CounterVec
	catalogMisses   prometheus.Counter
	formulaFailures *prometheus.CounterVec
	answers         *prometheus.CounterVec

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_generated_total",
			Help:      "Questions served, by source.",
		}, []string{"mode"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_resets_total",
			Help:      "Times a session exhausted its matching questions and was reset.",
		}, []string{"mode"}),
		catalogMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_misses_total",
			Help:      "Requests no template matched.",
		}),
		formulaFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "formula_failures_total",
			Help:      "Answer formulas that failed to evaluate.",
		}, []string{"template_id"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Graded answers.",
		}, []string{"correct"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled.",
		}, []string{"method", "endpoint", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}, []string{"method", "endpoint"}),
	}
	reg.MustRegister(m.questions, m.resets, m.catalogMisses, m.formulaFailures, m.answers, m.requests, m.duration)
	return m
}

func (m *Metrics) QuestionGenerated(mode problemgen.Mode) {
	m.questions.WithLabelValues(string(mode)).Inc()
}

func (m *Metrics) SessionReset(mode problemgen.Mode) {
	m.resets.WithLabelValues(string(mode)).Inc()
}

func (m *Metrics) CatalogMiss() { m.catalogMisses.Inc() }

func (m *Metrics) FormulaFailure(templateID string) {
	m.formulaFailures.WithLabelValues(templateID).Inc()
}

func (m *Metrics) AnswerRecorded(correct bool) {
	m.answers.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

// Middleware records count and latency per route. Unmatched routes are
// labeled by an empty endpoint.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		m.requests.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) gin.HandlerFunc {
	h := promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
