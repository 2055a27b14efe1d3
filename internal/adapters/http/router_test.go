package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/equipment-intake/internal/config"
	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/observability/metrics"
)

type normalizerFake struct {
	err error
}

func (f normalizerFake) Normalize(_ context.Context, t domain.EquipmentType, brand, model string) (*domain.NormalizedEquipment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.NormalizedEquipment{
		Type: t,
		Brand: domain.ExtractedField{
			OriginalValue:   brand,
			NormalizedValue: "Atlas Copco",
			WasNormalized:   true,
			Confidence:      90,
			Source:          domain.SourceFuzzyMatch,
		},
		Model: domain.ExtractedField{
			OriginalValue:   model,
			NormalizedValue: model,
			Confidence:      100,
			Source:          domain.SourceExactMatch,
		},
		OverallConfidence: 90,
	}, nil
}

type catalogFake struct {
	err      error
	reviewed int
	applied  *domain.CatalogUpdate
}

func (f *catalogFake) Compare(_ context.Context, instance domain.EquipmentInstance) (*domain.CatalogUpdate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.CatalogUpdate{
		Code: instance.Code,
		Key:  domain.CatalogKey{Type: instance.Type, Brand: instance.Brand, Model: instance.Model},
		Comparison: domain.SpecComparison{
			HasChanges: true,
			NewFields:  map[string]any{"volume": 500.0},
		},
	}, nil
}

func (f *catalogFake) Apply(_ context.Context, update domain.CatalogUpdate) error {
	if f.err != nil {
		return f.err
	}
	f.applied = &update
	return nil
}

func (f *catalogFake) RegisterVariant(_ context.Context, instance domain.EquipmentInstance) (*domain.CatalogEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.CatalogEntry{ID: "entry-1", Type: instance.Type, Brand: instance.Brand, Model: instance.Model, Variant: instance.MaxPressure}, nil
}

func (f *catalogFake) Review(_ context.Context, instances []domain.EquipmentInstance) (*domain.CatalogReview, error) {
	f.reviewed = len(instances)
	return &domain.CatalogReview{Updates: []domain.CatalogUpdate{}, Variants: []domain.VariantSuggestion{}, Unmatched: []string{"S1"}}, nil
}

type filingFake struct{}

func (filingFake) Summary(_ context.Context, instances []domain.EquipmentInstance) (*domain.FilingSummary, error) {
	item := domain.FilingItem{Code: "S1", Type: domain.EquipmentTank, Category: domain.FilingDeclaration}
	return &domain.FilingSummary{
		Items:         []domain.FilingItem{item},
		Declarations:  []domain.FilingItem{item},
		Verifications: []domain.FilingItem{},
	}, nil
}

func (filingFake) Check(_ context.Context, customerID, installerID string, _ []domain.EquipmentInstance) (*domain.FilingReadiness, error) {
	if customerID == "missing" {
		return nil, domain.WrapError(domain.ErrNotFound, "load customer", errors.New("id=missing"))
	}
	return &domain.FilingReadiness{
		Ready: false,
		Customer: domain.CompletenessResult{
			IsComplete:    false,
			MissingFields: []domain.MissingField{{Field: "city", Label: "City"}},
		},
		Installer:     domain.CompletenessResult{IsComplete: true, MissingFields: []domain.MissingField{}},
		Manufacturers: []domain.ManufacturerGap{},
	}, nil
}

type intakeFake struct {
	err error
}

func (f intakeFake) Process(ctx context.Context, req domain.IntakeRequest) (*domain.IntakeResult, error) {
	res, err := f.ProcessBatch(ctx, []domain.IntakeRequest{req})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

func (f intakeFake) ProcessBatch(_ context.Context, reqs []domain.IntakeRequest) ([]*domain.IntakeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.IntakeResult, 0, len(reqs))
	for _, req := range reqs {
		status := domain.IntakeResolved
		if strings.HasPrefix(req.Label, "?") {
			status = domain.IntakeRejected
		}
		out = append(out, &domain.IntakeResult{RequestID: req.ID, Label: req.Label, Status: status, ProcessedAt: time.Unix(0, 0).UTC()})
	}
	return out, nil
}

func newTestRouter(catalog *catalogFake) *Router {
	if catalog == nil {
		catalog = &catalogFake{}
	}
	return NewRouter(config.Config{APIMaxBodyBytes: 1 << 20}, Services{
		Normalizer: normalizerFake{},
		Catalog:    catalog,
		Summarizer: filingFake{},
		Readiness:  filingFake{},
		Intake:     intakeFake{},
	})
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func decodeBody(t *testing.T, res *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := postJSON(t, handler, "/v1/normalize", map[string]string{
		"equipment_type": "compressor",
		"brand":          "atlas",
		"model":          "GA 30",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var got domain.NormalizedEquipment
	decodeBody(t, res, &got)
	if got.Type != domain.EquipmentCompressor {
		t.Fatalf("unexpected type %q", got.Type)
	}
	if got.Brand.NormalizedValue != "Atlas Copco" || got.Brand.Source != domain.SourceFuzzyMatch {
		t.Fatalf("unexpected brand %+v", got.Brand)
	}
}

func TestNormalizeRejectsUnknownType(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := postJSON(t, handler, "/v1/normalize", map[string]string{"equipment_type": "Boiler", "brand": "x"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestNormalizeRequiresPost(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/normalize", nil))
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestInvalidJSONReturns400(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	req := httptest.NewRequest(http.MethodPost, "/v1/slots/parse", strings.NewReader("{"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestBodyLimitReturns413(t *testing.T) {
	handler := NewRouter(config.Config{APIMaxBodyBytes: 16}, Services{}).Handler()
	res := postJSON(t, handler, "/v1/slots/parse", map[string]any{
		"labels": []string{"S1", "S2", "S3", "S4", "S5", "S6"},
	})
	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}

func TestUnconfiguredServiceRoutesAreNotRegistered(t *testing.T) {
	handler := NewRouter(config.Config{}, Services{}).Handler()
	res := postJSON(t, handler, "/v1/normalize", map[string]string{"equipment_type": "Tank"})
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestParseSlotsEndpoint(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := postJSON(t, handler, "/v1/slots/parse", map[string]any{"labels": []string{"S1", "c2.1", "Q1"}})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var got domain.SlotBatch
	decodeBody(t, res, &got)
	if got.Valid != 2 || got.Invalid != 1 {
		t.Fatalf("expected 2 valid and 1 invalid, got %+v", got)
	}
	if got.Results[2].Error == "" {
		t.Fatalf("expected error for unknown prefix")
	}
	if got.Results[1].Slot == nil || got.Results[1].Slot.Type != domain.EquipmentOilSeparator {
		t.Fatalf("expected oil separator slot, got %+v", got.Results[1])
	}
}

func TestParseSlotsRequiresLabels(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := postJSON(t, handler, "/v1/slots/parse", map[string]any{"labels": []string{}})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestConflictsEndpoint(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := postJSON(t, handler, "/v1/conflicts", map[string]any{
		"items": []map[string]any{
			{
				"label":    "S1",
				"existing": map[string]any{"type": "Tank", "code": "S1", "brand": "Atlas"},
				"incoming": map[string]any{"brand": "Kaeser"},
			},
			{
				"label": "S2",
			},
		},
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var got struct {
		Results map[string]domain.ConflictResult `json:"results"`
		Summary domain.ConflictSummary           `json:"summary"`
	}
	decodeBody(t, res, &got)
	if !got.Results["S1"].HasConflict {
		t.Fatalf("expected conflict for S1, got %+v", got.Results["S1"])
	}
	if got.Results["S2"].HasConflict {
		t.Fatalf("expected no conflict for S2")
	}
	if got.Summary.Total != 2 || got.Summary.WithConflicts != 1 {
		t.Fatalf("unexpected summary %+v", got.Summary)
	}
}

func TestConflictsReportsMalformedLabelsPerItem(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := postJSON(t, handler, "/v1/conflicts", map[string]any{
		"items": []map[string]any{
			{"label": "ZZ9"},
			{
				"label":    "S1",
				"existing": map[string]any{"type": "Tank", "code": "S1", "brand": "Atlas"},
				"incoming": map[string]any{"brand": "Kaeser"},
			},
		},
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var got struct {
		Results map[string]domain.ConflictResult `json:"results"`
		Summary domain.ConflictSummary           `json:"summary"`
		Invalid []domain.SlotResult              `json:"invalid"`
	}
	decodeBody(t, res, &got)
	if len(got.Invalid) != 1 || got.Invalid[0].Label != "ZZ9" || got.Invalid[0].Error == "" {
		t.Fatalf("expected ZZ9 reported as invalid, got %+v", got.Invalid)
	}
	if !got.Results["S1"].HasConflict || got.Summary.Total != 1 {
		t.Fatalf("expected the valid item to be checked, got %+v %+v", got.Results, got.Summary)
	}
}

func TestClassifyFilingEndpoint(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := postJSON(t, handler, "/v1/filing/classify", map[string]any{
		"volume":       100,
		"max_pressure": 10,
		"ped_category": "IV",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var got map[string]any
	decodeBody(t, res, &got)
	if got["category"] != string(domain.FilingDeclaration) {
		t.Fatalf("expected Declaration, got %v", got["category"])
	}
	if _, ok := got["ped_consistent"]; !ok {
		t.Fatalf("expected ped_consistent when a manual category is given")
	}
}

func TestClassifyFilingWithoutInputsIsNone(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := postJSON(t, handler, "/v1/filing/classify", map[string]any{})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var got map[string]any
	decodeBody(t, res, &got)
	if got["category"] != string(domain.FilingNone) {
		t.Fatalf("expected None, got %v", got["category"])
	}
}

func TestCompareSpecsSingleAndReview(t *testing.T) {
	catalog := &catalogFake{}
	handler := newTestRouter(catalog).Handler()

	res := postJSON(t, handler, "/v1/specs/compare", map[string]any{
		"instance": map[string]any{"type": "Tank", "code": "S1", "brand": "Atlas", "model": "LV500"},
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var update domain.CatalogUpdate
	decodeBody(t, res, &update)
	if update.Code != "S1" || !update.Comparison.HasChanges {
		t.Fatalf("unexpected update %+v", update)
	}

	res = postJSON(t, handler, "/v1/specs/compare", map[string]any{
		"instances": []map[string]any{{"type": "Tank", "code": "S1"}, {"type": "Tank", "code": "S2"}},
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if catalog.reviewed != 2 {
		t.Fatalf("expected review of 2 instances, got %d", catalog.reviewed)
	}

	res = postJSON(t, handler, "/v1/specs/compare", map[string]any{})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", res.Code)
	}
}

func TestApplySpecsEndpoint(t *testing.T) {
	catalog := &catalogFake{}
	handler := newTestRouter(catalog).WithMetrics(metrics.NewHTTPServerMetrics("api")).Handler()

	res := postJSON(t, handler, "/v1/specs/apply", domain.CatalogUpdate{
		Key:        domain.CatalogKey{Type: domain.EquipmentTank, Brand: "Atlas", Model: "LV500"},
		Comparison: domain.SpecComparison{HasChanges: true, NewFields: map[string]any{"volume": 500.0}},
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if catalog.applied == nil || catalog.applied.Key.Model != "LV500" {
		t.Fatalf("expected update to be applied, got %+v", catalog.applied)
	}
}

func TestRegisterVariantEndpoint(t *testing.T) {
	handler := newTestRouter(nil).Handler()

	res := postJSON(t, handler, "/v1/specs/variants", map[string]any{
		"instance": map[string]any{"type": "Compressor", "code": "C1", "brand": "Atlas", "model": "GA 30", "max_pressure": 13},
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.Code)
	}
	var entry domain.CatalogEntry
	decodeBody(t, res, &entry)
	if entry.Variant == nil || *entry.Variant != 13 {
		t.Fatalf("expected variant 13, got %+v", entry.Variant)
	}

	res = postJSON(t, handler, "/v1/specs/variants", map[string]any{})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without instance, got %d", res.Code)
	}
}

func TestFilingSummaryEndpoint(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := postJSON(t, handler, "/v1/filing/summary", map[string]any{"instances": []map[string]any{{"type": "Tank", "code": "S1"}}})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var got domain.FilingSummary
	decodeBody(t, res, &got)
	if len(got.Declarations) != 1 || got.Declarations[0].Code != "S1" {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestFilingReadinessEndpoint(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := postJSON(t, handler, "/v1/filing/readiness", map[string]any{
		"customer_id":  "c-1",
		"installer_id": "i-1",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var got struct {
		Ready   bool   `json:"ready"`
		Message string `json:"message"`
	}
	decodeBody(t, res, &got)
	if got.Ready {
		t.Fatalf("expected not ready")
	}
	if got.Message != "Customer: City" {
		t.Fatalf("unexpected message %q", got.Message)
	}
}

func TestFilingReadinessMissingCustomerReturns404(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := postJSON(t, handler, "/v1/filing/readiness", map[string]any{"customer_id": "missing"})
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestValidateEntitiesEndpoint(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := postJSON(t, handler, "/v1/entities/validate", map[string]any{
		"customer": map[string]any{
			"company_name": "Acme Srl",
			"street":       "Via Roma",
			"house_number": "1",
			"postal_code":  "123",
			"city":         "Milano",
			"province":     "MI",
		},
		"manufacturer": map[string]any{"kind": "foreign", "name": "Kaeser"},
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var got map[string]entityReport
	decodeBody(t, res, &got)
	customer := got["customer"]
	if !customer.Completeness.IsComplete {
		t.Fatalf("expected complete customer, got %+v", customer.Completeness)
	}
	if len(customer.FormatIssues) != 1 || customer.FormatIssues[0].Field != "postal_code" {
		t.Fatalf("expected postal code issue, got %+v", customer.FormatIssues)
	}
	manufacturer := got["manufacturer"]
	if manufacturer.Completeness.IsComplete {
		t.Fatalf("expected foreign manufacturer without country to be incomplete")
	}
	if _, ok := got["installer"]; ok {
		t.Fatalf("installer was not submitted")
	}
}

func TestValidateEntitiesRejectsUnknownManufacturerKind(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := postJSON(t, handler, "/v1/entities/validate", map[string]any{
		"manufacturer": map[string]any{"kind": "offshore", "name": "X"},
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestIntakeEndpoint(t *testing.T) {
	handler := newTestRouter(nil).Handler()
	res := postJSON(t, handler, "/v1/intake", map[string]any{
		"requests": []map[string]any{
			{"id": "r1", "label": "S1", "reading": map[string]any{"brand": "Atlas"}},
			{"id": "r2", "label": "?"},
		},
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var got struct {
		Results []domain.IntakeResult `json:"results"`
	}
	decodeBody(t, res, &got)
	if len(got.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got.Results))
	}
	if got.Results[0].Status != domain.IntakeResolved || got.Results[1].Status != domain.IntakeRejected {
		t.Fatalf("unexpected statuses %q %q", got.Results[0].Status, got.Results[1].Status)
	}

	res = postJSON(t, handler, "/v1/intake", map[string]any{"requests": []any{}})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", res.Code)
	}
}

func TestMetricsEndpointExposesEngineCounters(t *testing.T) {
	handler := newTestRouter(nil).WithMetrics(metrics.NewHTTPServerMetrics("api")).Handler()

	res := postJSON(t, handler, "/v1/normalize", map[string]string{"equipment_type": "Tank", "brand": "atlas", "model": "LV500"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	scrape := httptest.NewRecorder()
	handler.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if scrape.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", scrape.Code)
	}
	body := scrape.Body.String()
	if !strings.Contains(body, "intake_engine_normalizations_total") {
		t.Fatalf("expected normalization counter in scrape output")
	}
	if !strings.Contains(body, "intake_http_requests_total") {
		t.Fatalf("expected request counter in scrape output")
	}
}
