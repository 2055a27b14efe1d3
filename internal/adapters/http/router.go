package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/equipment-intake/internal/config"
	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
	"github.com/kirillkom/equipment-intake/internal/core/usecase"
	"github.com/kirillkom/equipment-intake/internal/observability/metrics"
)

const metricsService = "api"

// Services groups the inbound use cases served over HTTP. A nil service leaves
// its routes unregistered.
type Services struct {
	Normalizer ports.EquipmentNormalizer
	Catalog    ports.CatalogReconciler
	Summarizer ports.FilingSummarizer
	Readiness  ports.FilingReadinessChecker
	Intake     ports.IntakeProcessor
}

type Router struct {
	cfg         config.Config
	services    Services
	formats     *usecase.EntityFormatValidator
	httpMetrics *metrics.HTTPServerMetrics
}

func NewRouter(cfg config.Config, services Services) *Router {
	return &Router{
		cfg:      cfg,
		services: services,
		formats:  usecase.NewEntityFormatValidator(),
	}
}

// WithMetrics enables the /metrics endpoint and request instrumentation.
func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.httpMetrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/slots/parse", rt.parseSlots)
	mux.HandleFunc("/v1/conflicts", rt.detectConflicts)
	mux.HandleFunc("/v1/filing/classify", rt.classifyFiling)
	mux.HandleFunc("/v1/entities/validate", rt.validateEntities)

	if rt.services.Normalizer != nil {
		mux.HandleFunc("/v1/normalize", rt.normalize)
	}
	if rt.services.Catalog != nil {
		mux.HandleFunc("/v1/specs/compare", rt.compareSpecs)
		mux.HandleFunc("/v1/specs/apply", rt.applySpecs)
		mux.HandleFunc("/v1/specs/variants", rt.registerVariant)
	}
	if rt.services.Summarizer != nil {
		mux.HandleFunc("/v1/filing/summary", rt.filingSummary)
	}
	if rt.services.Readiness != nil {
		mux.HandleFunc("/v1/filing/readiness", rt.filingReadiness)
	}
	if rt.services.Intake != nil {
		mux.HandleFunc("/v1/intake", rt.intake)
	}

	var handler http.Handler = mux
	if rt.httpMetrics != nil {
		mux.Handle("/metrics", rt.httpMetrics.Handler())
		handler = rt.httpMetrics.Middleware(metricsService, handler)
	}
	if rt.cfg.APIMaxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads the request body into dst and answers the client itself on failure.
func (rt *Router) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return false
	}
	body := r.Body
	if rt.cfg.APIMaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, rt.cfg.APIMaxBodyBytes)
	}
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("http_handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}

	payload := map[string]string{"error": err.Error()}
	var labelErr *domain.LabelError
	if errors.As(err, &labelErr) {
		payload["label"] = labelErr.Label
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
