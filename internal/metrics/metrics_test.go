package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptiq/internal/engine"
	"github.com/abhisek/adaptiq/internal/problemgen"
)

var _ engine.Recorder = (*Metrics)(nil)

func TestRecorderCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.QuestionGenerated(problemgen.ModeTemplate)
	m.QuestionGenerated(problemgen.ModeTemplate)
	m.QuestionGenerated(problemgen.ModeStable)
	m.SessionReset(problemgen.ModeStable)
	m.CatalogMiss()
	m.FormulaFailure("math_bad")
	m.AnswerRecorded(true)
	m.AnswerRecorded(false)
	m.AnswerRecorded(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.questions.WithLabelValues("template")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.questions.WithLabelValues("stable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resets.WithLabelValues("stable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.formulaFailures.WithLabelValues("math_bad")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.answers.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answers.WithLabelValues("false")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := New(reg)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping/:id", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", Handler(reg))

	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/7", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/ping/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "", "404")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `adaptiq_http_requests_total{endpoint="/ping/:id",method="GET",status="200"} 3`), body)
	assert.Contains(t, body, "adaptiq_http_request_duration_seconds_bucket")
}
