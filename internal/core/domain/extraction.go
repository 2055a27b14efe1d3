package domain

type MatchSource string

const (
	SourceExactMatch MatchSource = "exact_match"
	SourceFuzzyMatch MatchSource = "fuzzy_match"
	SourceNoMatch    MatchSource = "no_match"
)

type ActionTier string

const (
	TierAutoApply ActionTier = "auto_apply"
	TierConfirm   ActionTier = "confirm"
	TierIgnore    ActionTier = "ignore"
)

// TierFor maps a 0-100 confidence to the action the caller must take.
func TierFor(confidence int) ActionTier {
	switch {
	case confidence >= 80:
		return TierAutoApply
	case confidence >= 50:
		return TierConfirm
	default:
		return TierIgnore
	}
}

type ExtractedField struct {
	OriginalValue   string             `json:"original_value"`
	NormalizedValue string             `json:"normalized_value"`
	WasNormalized   bool               `json:"was_normalized"`
	Confidence      int                `json:"confidence"`
	Source          MatchSource        `json:"source"`
	Alternatives    []CatalogCandidate `json:"alternatives,omitempty"`
}

func (f ExtractedField) Tier() ActionTier { return TierFor(f.Confidence) }

type NormalizedEquipment struct {
	Type              EquipmentType  `json:"equipment_type"`
	Brand             ExtractedField `json:"brand"`
	Model             ExtractedField `json:"model"`
	OverallConfidence int            `json:"overall_confidence"`
}

// NameplateReading is what the vision collaborator extracted from one photo.
// Every field may be absent.
type NameplateReading struct {
	DeviceKind      string             `json:"device_kind,omitempty"`
	Brand           string             `json:"brand,omitempty"`
	Model           string             `json:"model,omitempty"`
	SerialNumber    string             `json:"serial_number,omitempty"`
	MaterialNumber  string             `json:"material_number,omitempty"`
	Year            *int               `json:"year,omitempty"`
	Volume          *float64           `json:"volume,omitempty"`
	MaxPressure     *float64           `json:"max_pressure,omitempty"`
	Temperature     *float64           `json:"temperature,omitempty"`
	AirFlow         *float64           `json:"air_flow,omitempty"`
	SetPressure     *float64           `json:"set_pressure,omitempty"`
	Diameter        string             `json:"diameter,omitempty"`
	RawText         string             `json:"raw_text,omitempty"`
	FieldConfidence map[string]float64 `json:"field_confidence,omitempty"`
}

// Instance lays the reading out as an equipment instance of the given type.
func (r *NameplateReading) Instance(t EquipmentType) EquipmentInstance {
	if r == nil {
		return EquipmentInstance{Type: t}
	}
	return EquipmentInstance{
		Type:           t,
		DeviceKind:     r.DeviceKind,
		Brand:          r.Brand,
		Model:          r.Model,
		SerialNumber:   r.SerialNumber,
		MaterialNumber: r.MaterialNumber,
		Year:           r.Year,
		Volume:         r.Volume,
		MaxPressure:    r.MaxPressure,
		Temperature:    r.Temperature,
		AirFlow:        r.AirFlow,
		SetPressure:    r.SetPressure,
		Diameter:       r.Diameter,
	}
}

type ConflictResult struct {
	HasConflict       bool           `json:"has_conflict"`
	FilledFields      []string       `json:"filled_fields"`
	FieldValues       map[string]any `json:"field_values"`
	OverwrittenFields []string       `json:"overwritten_fields"`
}

type ConflictSummary struct {
	Total         int `json:"total"`
	WithConflicts int `json:"with_conflicts"`
	Percentage    int `json:"percentage"`
}
