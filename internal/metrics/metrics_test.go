package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNoopMetrics(t *testing.T) {
	var m Noop
	m.ObserveRequest("GET", "/", "200", time.Millisecond)
	m.ObserveGeneration(OutcomeOK, 10, time.Millisecond)
}

func TestPromMetrics(t *testing.T) {
	t.Parallel()

	m := NewProm("bazm")
	m.ObserveRequest("POST", "/v1/poems", "200", 10*time.Millisecond)
	m.ObserveGeneration(OutcomeOK, 15, 20*time.Millisecond)
	m.ObserveGeneration(OutcomeOK, 5, 20*time.Millisecond)
	m.ObserveGeneration(OutcomeInvalidInput, 0, 0)

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if !hasMetric(families, "bazm_http_requests_total", map[string]string{"method": "POST", "route": "/v1/poems", "status": "200"}) {
		t.Fatalf("expected http_requests metric")
	}
	if !hasMetric(families, "bazm_http_request_duration_seconds", map[string]string{"method": "POST", "route": "/v1/poems"}) {
		t.Fatalf("expected http_request_duration metric")
	}
	if !hasMetric(families, "bazm_generations_total", map[string]string{"outcome": "invalid_input"}) {
		t.Fatalf("expected generations metric for invalid_input")
	}
	if got := counterValue(families, "bazm_generations_total", map[string]string{"outcome": "ok"}); got != 2 {
		t.Fatalf("expected 2 successful generations, got %v", got)
	}
	if got := counterValue(families, "bazm_generated_words_total", nil); got != 20 {
		t.Fatalf("expected 20 generated words, got %v", got)
	}
}

func TestPromRegistriesAreIndependent(t *testing.T) {
	t.Parallel()

	// A second instance must not panic on duplicate registration.
	a, b := NewProm("bazm"), NewProm("bazm")
	a.ObserveGeneration(OutcomeOK, 3, time.Millisecond)

	families, err := b.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if got := counterValue(families, "bazm_generated_words_total", nil); got != 0 {
		t.Fatalf("expected isolated registry, got %v words", got)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	t.Parallel()

	m := NewProm("bazm")
	m.ObserveGeneration(OutcomeModelError, 0, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `bazm_generations_total{outcome="model_error"} 1`) {
		t.Fatalf("exposition missing generation counter:\n%s", rec.Body.String())
	}
}

func findMetric(families []*dto.MetricFamily, name string, labels map[string]string) *dto.Metric {
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if labelsMatch(metric.GetLabel(), labels) {
				return metric
			}
		}
	}
	return nil
}

func hasMetric(families []*dto.MetricFamily, name string, labels map[string]string) bool {
	return findMetric(families, name, labels) != nil
}

func counterValue(families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	m := findMetric(families, name, labels)
	if m == nil || m.GetCounter() == nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(want) == 0 {
		return true
	}
	matched := 0
	for _, pair := range pairs {
		if val, ok := want[pair.GetName()]; ok && val == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
