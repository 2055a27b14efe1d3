package httpadapter

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/kirillkom/equipment-intake/internal/config"
	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", domain.WrapError(domain.ErrInvalidInput, "op", errors.New("bad")), http.StatusBadRequest},
		{"unsupported type", domain.WrapError(domain.ErrUnsupportedEquipmentType, "op", errors.New("Boiler")), http.StatusBadRequest},
		{"malformed label", &domain.LabelError{Label: "X", Reason: "unknown prefix"}, http.StatusBadRequest},
		{"not found", domain.WrapError(domain.ErrNotFound, "op", errors.New("id")), http.StatusNotFound},
		{"temporary", domain.WrapError(domain.ErrTemporary, "op", errors.New("timeout")), http.StatusServiceUnavailable},
		{
			"temporary catalog lookup",
			domain.WrapError(domain.ErrCatalogLookup, "normalize", domain.WrapError(domain.ErrTemporary, "catalog.get", errors.New("conn reset"))),
			http.StatusServiceUnavailable,
		},
		{"catalog lookup", domain.WrapError(domain.ErrCatalogLookup, "normalize", errors.New("boom")), http.StatusBadGateway},
		{"unknown", fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapErrorToHTTPStatus(tc.err); got != tc.want {
				t.Fatalf("mapErrorToHTTPStatus() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNormalizeMapsCatalogErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.WrapError(domain.ErrCatalogLookup, "normalize", errors.New("db down")), http.StatusBadGateway},
		{domain.WrapError(domain.ErrTemporary, "catalog.get", errors.New("breaker open")), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		handler := NewRouter(config.Config{}, Services{Normalizer: normalizerFake{err: tc.err}}).Handler()
		res := postJSON(t, handler, "/v1/normalize", map[string]string{"equipment_type": "Tank", "brand": "x"})
		if res.Code != tc.want {
			t.Fatalf("expected %d, got %d", tc.want, res.Code)
		}
	}
}

func TestApplySpecsMapsNotFoundTo404(t *testing.T) {
	catalog := &catalogFake{err: domain.WrapError(domain.ErrNotFound, "apply", errors.New("key"))}
	handler := newTestRouter(catalog).Handler()
	res := postJSON(t, handler, "/v1/specs/apply", domain.CatalogUpdate{})
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestIntakeMapsTemporaryTo503(t *testing.T) {
	handler := NewRouter(config.Config{}, Services{
		Intake: intakeFake{err: domain.WrapError(domain.ErrTemporary, "read nameplate", errors.New("ollama 503"))},
	}).Handler()
	res := postJSON(t, handler, "/v1/intake", map[string]any{
		"requests": []map[string]any{{"id": "r1", "label": "S1"}},
	})
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}
