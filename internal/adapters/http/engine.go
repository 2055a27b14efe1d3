package httpadapter

import (
	"net/http"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/usecase"
)

func (rt *Router) normalize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EquipmentType string `json:"equipment_type"`
		Brand         string `json:"brand"`
		Model         string `json:"model"`
	}
	if !rt.decodeJSON(w, r, &req) {
		return
	}

	annotateRequest(r, "equipment_type", req.EquipmentType)
	equipmentType, err := domain.ParseEquipmentType(req.EquipmentType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	normalized, err := rt.services.Normalizer.Normalize(r.Context(), equipmentType, req.Brand, req.Model)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.httpMetrics != nil {
		rt.httpMetrics.RecordNormalization(metricsService, normalized)
	}
	writeJSON(w, http.StatusOK, normalized)
}

func (rt *Router) parseSlots(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Labels []string `json:"labels"`
	}
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Labels) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "labels are required"})
		return
	}
	batch := usecase.ParseSlots(req.Labels)
	annotateRequest(r, "valid_labels", batch.Valid, "invalid_labels", batch.Invalid)
	writeJSON(w, http.StatusOK, batch)
}

type conflictItemRequest struct {
	Label    string                    `json:"label"`
	Existing *domain.EquipmentInstance `json:"existing"`
	Incoming *domain.NameplateReading  `json:"incoming"`
}

func (rt *Router) detectConflicts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []conflictItemRequest `json:"items"`
	}
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	items := make([]usecase.ConflictItem, 0, len(req.Items))
	invalid := []domain.SlotResult{}
	for _, item := range req.Items {
		slot, err := usecase.ParseSlot(item.Label)
		if err != nil {
			invalid = append(invalid, domain.SlotResult{Label: item.Label, Err: err, Error: err.Error()})
			continue
		}
		items = append(items, usecase.ConflictItem{
			Slot:     slot,
			Existing: item.Existing,
			Incoming: item.Incoming,
		})
	}

	results, summary, err := usecase.BatchDetectConflicts(items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	annotateRequest(r, "checked", summary.Total, "with_conflicts", summary.WithConflicts, "invalid_labels", len(invalid))
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"summary": summary,
		"invalid": invalid,
	})
}

func (rt *Router) classifyFiling(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Volume      *float64 `json:"volume"`
		MaxPressure *float64 `json:"max_pressure"`
		PEDCategory string   `json:"ped_category"`
	}
	if !rt.decodeJSON(w, r, &req) {
		return
	}

	category := usecase.ClassifyFiling(req.Volume, req.MaxPressure)
	if rt.httpMetrics != nil {
		rt.httpMetrics.RecordFilingCategory(metricsService, category)
	}
	resp := map[string]any{
		"category":     category,
		"ped_category": usecase.ClassifyPED(req.MaxPressure, req.Volume),
	}
	if req.PEDCategory != "" {
		resp["ped_consistent"] = usecase.PEDConsistent(req.PEDCategory, req.MaxPressure, req.Volume)
	}
	writeJSON(w, http.StatusOK, resp)
}
