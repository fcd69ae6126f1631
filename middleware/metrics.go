package middleware

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics trace 中间件的 Prometheus 指标
type Metrics struct {
	SpansStarted     *prometheus.CounterVec
	EventIDFallbacks *prometheus.CounterVec
	HandlerErrors    *prometheus.CounterVec
	HandlerDuration  *prometheus.HistogramVec
}

// NewMetrics 注册到 reg；reg 为 nil 时用 prometheus.DefaultRegisterer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		SpansStarted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fntrace_spans_started_total",
				Help: "Spans started by the trace middleware, by kind (root/child)",
			},
			[]string{"kind"},
		),
		EventIDFallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fntrace_event_id_fallbacks_total",
				Help: "Root spans that fell back to a random trace id, by reason",
			},
			[]string{"reason"},
		),
		HandlerErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fntrace_handler_errors_total",
				Help: "Wrapped handler invocations that failed or panicked",
			},
			[]string{"function"},
		),
		HandlerDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fntrace_handler_duration_seconds",
				Help:    "Wrapped handler latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"function", "status"},
		),
	}
}

func (m *Metrics) spanStarted(root bool) {
	if m == nil {
		return
	}
	kind := "child"
	if root {
		kind = "root"
	}
	m.SpansStarted.WithLabelValues(kind).Inc()
}

func (m *Metrics) eventIDFallback(reason string) {
	if m == nil {
		return
	}
	m.EventIDFallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) handlerDone(function string, status int, cost time.Duration, failed bool) {
	if m == nil {
		return
	}
	if failed {
		m.HandlerErrors.WithLabelValues(function).Inc()
	}
	m.HandlerDuration.WithLabelValues(function, strconv.Itoa(status)).Observe(cost.Seconds())
}
