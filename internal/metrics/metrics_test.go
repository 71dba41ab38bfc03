package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Event("created")
	m.Event("created")
	m.Classified("login", "rule")
	m.SinkCall("update", "error")
	m.SetActiveWindows(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`incident_events_total{outcome="created"} 2`,
		`incident_classifications_total{category="login",source="rule"} 1`,
		`incident_sink_calls_total{op="update",result="error"} 1`,
		`incident_active_windows 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Event("rejected")
	m.AIRequest("timeout", 8)
	m.SinkCall("create", "ok")
	m.SetActiveWindows(1)
	m.HTTPRequest("/ping", "200", 0.01)
}
