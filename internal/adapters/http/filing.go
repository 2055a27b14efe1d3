package httpadapter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/usecase"
)

func (rt *Router) filingSummary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instances []domain.EquipmentInstance `json:"instances"`
	}
	if !rt.decodeJSON(w, r, &req) {
		return
	}

	summary, err := rt.services.Summarizer.Summary(r.Context(), req.Instances)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.httpMetrics != nil {
		for _, item := range summary.Items {
			rt.httpMetrics.RecordFilingCategory(metricsService, item.Category)
		}
	}
	writeJSON(w, http.StatusOK, summary)
}

type readinessResponse struct {
	*domain.FilingReadiness
	Message string `json:"message,omitempty"`
}

func (rt *Router) filingReadiness(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID  string                     `json:"customer_id"`
		InstallerID string                     `json:"installer_id"`
		Instances   []domain.EquipmentInstance `json:"instances"`
	}
	if !rt.decodeJSON(w, r, &req) {
		return
	}

	readiness, err := rt.services.Readiness.Check(r.Context(), req.CustomerID, req.InstallerID, req.Instances)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, readinessResponse{
		FilingReadiness: readiness,
		Message:         usecase.FormatMissingFields(*readiness),
	})
}

type manufacturerRequest struct {
	Kind      string `json:"kind"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	TaxID     string `json:"tax_id"`
	Telephone string `json:"telephone"`
	Country   string `json:"country"`
	domain.Address
}

func (m manufacturerRequest) toDomain() (domain.Manufacturer, error) {
	switch strings.ToLower(strings.TrimSpace(m.Kind)) {
	case "", "domestic":
		return domain.DomesticManufacturer{
			ID:        m.ID,
			Name:      m.Name,
			TaxID:     m.TaxID,
			Telephone: m.Telephone,
			Address:   m.Address,
		}, nil
	case "foreign":
		return domain.ForeignManufacturer{ID: m.ID, Name: m.Name, Country: m.Country}, nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "manufacturer kind", fmt.Errorf("unknown kind %q", m.Kind))
	}
}

type entityReport struct {
	Completeness domain.CompletenessResult `json:"completeness"`
	FormatIssues []domain.FormatIssue      `json:"format_issues"`
}

// validateEntities runs completeness and format checks on the entities present in the body.
func (rt *Router) validateEntities(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Customer     *domain.Customer     `json:"customer"`
		Installer    *domain.Installer    `json:"installer"`
		Manufacturer *manufacturerRequest `json:"manufacturer"`
	}
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	if req.Customer == nil && req.Installer == nil && req.Manufacturer == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer, installer or manufacturer is required"})
		return
	}

	resp := map[string]entityReport{}
	if req.Customer != nil {
		resp["customer"] = entityReport{
			Completeness: usecase.ValidateCustomer(req.Customer),
			FormatIssues: rt.formats.Customer(*req.Customer),
		}
	}
	if req.Installer != nil {
		resp["installer"] = entityReport{
			Completeness: usecase.ValidateInstaller(req.Installer),
			FormatIssues: rt.formats.Installer(*req.Installer),
		}
	}
	if req.Manufacturer != nil {
		manufacturer, err := req.Manufacturer.toDomain()
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp["manufacturer"] = entityReport{
			Completeness: usecase.ValidateManufacturer(manufacturer),
			FormatIssues: rt.formats.Manufacturer(manufacturer),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
