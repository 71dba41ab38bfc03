// Prometheus 지표 정의
//
// 전역 레지스트리 대신 호출자가 넘긴 Registerer에 등록
// (테스트마다 새 레지스트리를 쓸 수 있도록)
// 모든 기록 메서드는 nil 수신자에서 no-op

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "incident"

type Metrics struct {
	events          *prometheus.CounterVec
	classifications *prometheus.CounterVec
	aiRequests      *prometheus.CounterVec
	aiDuration      prometheus.Histogram
	sinkCalls       *prometheus.CounterVec
	activeWindows   prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New - 지표 생성 후 reg에 등록
// reg가 Gatherer이기도 하면 Handler()가 같은 레지스트리를 노출
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Incoming chat events by pipeline outcome.",
		}, []string{"outcome"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classified events by category and deciding stage.",
		}, []string{"category", "source"}),
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "Calls to the external classification service by result.",
		}, []string{"result"}),
		aiDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "Latency of the external classification service.",
			Buckets:   prometheus.DefBuckets,
		}),
		sinkCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_calls_total",
			Help:      "Alert sink calls by operation and result.",
		}, []string{"op", "result"}),
		activeWindows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_windows",
			Help:      "Incident windows currently open.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.events,
		m.classifications,
		m.aiRequests,
		m.aiDuration,
		m.sinkCalls,
		m.activeWindows,
		m.httpRequests,
		m.httpDuration,
	)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// Handler - /metrics 용 http.Handler
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) Event(outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Classified(category, source string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(category, source).Inc()
}

// AIRequest - result: ok, error, timeout, malformed
func (m *Metrics) AIRequest(result string, seconds float64) {
	if m == nil {
		return
	}
	m.aiRequests.WithLabelValues(result).Inc()
	m.aiDuration.Observe(seconds)
}

// SinkCall - op: create, update, emit / result: ok, error, panic
func (m *Metrics) SinkCall(op, result string) {
	if m == nil {
		return
	}
	m.sinkCalls.WithLabelValues(op, result).Inc()
}

func (m *Metrics) SetActiveWindows(n int) {
	if m == nil {
		return
	}
	m.activeWindows.Set(float64(n))
}

func (m *Metrics) HTTPRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, status).Inc()
	m.httpDuration.WithLabelValues(route).Observe(seconds)
}
