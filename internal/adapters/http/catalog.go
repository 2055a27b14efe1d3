package httpadapter

import (
	"net/http"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

// compareSpecs diffs one instance against the catalog, or reviews a whole sheet
// when instances is set.
func (rt *Router) compareSpecs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instance  *domain.EquipmentInstance  `json:"instance"`
		Instances []domain.EquipmentInstance `json:"instances"`
	}
	if !rt.decodeJSON(w, r, &req) {
		return
	}

	switch {
	case len(req.Instances) > 0:
		annotateRequest(r, "instances", len(req.Instances))
		review, err := rt.services.Catalog.Review(r.Context(), req.Instances)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, review)
	case req.Instance != nil:
		annotateRequest(r, "equipment_type", req.Instance.Type, "code", req.Instance.Code)
		update, err := rt.services.Catalog.Compare(r.Context(), *req.Instance)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, update)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "instance or instances is required"})
	}
}

func (rt *Router) applySpecs(w http.ResponseWriter, r *http.Request) {
	var update domain.CatalogUpdate
	if !rt.decodeJSON(w, r, &update) {
		return
	}
	if err := rt.services.Catalog.Apply(r.Context(), update); err != nil {
		writeError(w, r, err)
		return
	}
	if rt.httpMetrics != nil {
		rt.httpMetrics.RecordCatalogUpdate(metricsService, "apply")
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

func (rt *Router) registerVariant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instance *domain.EquipmentInstance `json:"instance"`
	}
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	if req.Instance == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "instance is required"})
		return
	}

	entry, err := rt.services.Catalog.RegisterVariant(r.Context(), *req.Instance)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.httpMetrics != nil {
		rt.httpMetrics.RecordCatalogUpdate(metricsService, "variant")
	}
	writeJSON(w, http.StatusCreated, entry)
}
