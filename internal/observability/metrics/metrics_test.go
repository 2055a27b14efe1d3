package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestHTTPServerMetricsRecordsEngineCounters(t *testing.T) {
	m := NewHTTPServerMetrics("api")

	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/normalize", nil))

	m.RecordNormalization("api", &domain.NormalizedEquipment{
		Brand: domain.ExtractedField{Source: domain.SourceExactMatch, Confidence: 100},
		Model: domain.ExtractedField{Source: domain.SourceFuzzyMatch, Confidence: 60},
	})
	m.RecordFilingCategory("api", domain.FilingVerification)
	m.RecordIntakeResult("api", domain.IntakeRejected)
	m.RecordCatalogCache("list_brands", true)
	m.ObserveBreaker("catalog.get", gobreaker.StateClosed, gobreaker.StateOpen)

	body := scrape(t, m.Handler())
	for _, want := range []string{
		`intake_http_requests_total{method="POST",path="/v1/normalize",service="api",status="400"} 1`,
		`intake_engine_normalizations_total{field="model",service="api",source="fuzzy_match",tier="confirm"} 1`,
		`intake_engine_intake_results_total{service="api",status="rejected"} 1`,
		`intake_catalog_cache_lookups_total{operation="list_brands",result="hit",service="api"} 1`,
		`intake_resilience_breaker_state{operation="catalog.get",service="api"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q\n%s", want, body)
		}
	}
}

func TestWorkerMetricsLabelsByResultStatus(t *testing.T) {
	m := NewWorkerMetrics("worker")

	m.StartIntake()
	m.FinishIntake("worker", time.Millisecond, &domain.IntakeResult{Status: domain.IntakeResolved}, nil)
	m.StartIntake()
	m.FinishIntake("worker", time.Millisecond, nil, errors.New("boom"))
	m.ObserveQueueLag("worker", -time.Second)

	body := scrape(t, m.Handler())
	for _, want := range []string{
		`intake_worker_intake_process_total{service="worker",status="resolved"} 1`,
		`intake_worker_intake_process_total{service="worker",status="error"} 1`,
		`intake_worker_intake_process_in_flight{service="worker"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q\n%s", want, body)
		}
	}
}
