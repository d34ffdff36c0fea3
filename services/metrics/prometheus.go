// Package metricsvc exposes the recruitment metrics to Prometheus.
package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/likelion-sch/recruit/core/application"
)

const namespace = "recruit"

// PrometheusRecorder counts decisions and scores, and times HTTP requests.
type PrometheusRecorder struct {
	reg       *prometheus.Registry
	decisions *prometheus.CounterVec
	scores    *prometheus.CounterVec
	requests  *prometheus.HistogramVec
}

var _ application.Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder registers the collectors in reg, plus the go and process collectors.
func NewPrometheusRecorder(reg *prometheus.Registry) *PrometheusRecorder {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		reg: reg,
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_finalized_total",
				Help:      "Number of finalized applicant decisions.",
			},
			[]string{"stage", "decision"},
		),
		scores: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scores_saved_total",
				Help:      "Number of reviewer score upserts.",
			},
			[]string{"kind", "op"},
		),
		requests: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "code"},
		),
	}
}

func (r *PrometheusRecorder) DecisionFinalized(stage application.Stage, d application.Decision) {
	r.decisions.WithLabelValues(string(stage), string(d)).Inc()
}

func (r *PrometheusRecorder) ScoreSaved(kind application.Kind, created bool) {
	op := "updated"
	if created {
		op = "created"
	}
	r.scores.WithLabelValues(string(kind), op).Inc()
}

// Handler serves the registry in the exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Middleware observes every request under its route pattern, not its raw path.
// Errors are handed to the echo error handler first so the recorded code is the one sent.
func (r *PrometheusRecorder) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}

			code := ctx.Response().Status
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			r.requests.WithLabelValues(ctx.Request().Method, route, strconv.Itoa(code)).
				Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
