package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

func (rt *Router) intake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Requests []domain.IntakeRequest `json:"requests"`
	}
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Requests) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "requests are required"})
		return
	}

	annotateRequest(r, "requests", len(req.Requests))
	results, err := rt.services.Intake.ProcessBatch(r.Context(), req.Requests)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, res := range results {
		if res.PhotoError != "" {
			slog.Warn("intake_photo_archive_failed",
				"request_id", requestIDFromContext(r.Context()),
				"intake_id", res.RequestID,
				"label", res.Label,
				"error", res.PhotoError,
			)
		}
		if rt.httpMetrics != nil {
			rt.httpMetrics.RecordIntakeResult(metricsService, res.Status)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
