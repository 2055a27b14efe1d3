package domain

import "time"

type IntakeStatus string

const (
	IntakeResolved IntakeStatus = "resolved"
	IntakeRejected IntakeStatus = "rejected"
)

// IntakeRequest carries one labelled nameplate reading. Image is used when Reading is nil.
// SubmittedAt is set by producers and stays zero when unknown.
type IntakeRequest struct {
	ID          string             `json:"id"`
	Label       string             `json:"label"`
	Reading     *NameplateReading  `json:"reading,omitempty"`
	Image       []byte             `json:"image,omitempty"`
	Existing    *EquipmentInstance `json:"existing,omitempty"`
	SubmittedAt time.Time          `json:"submitted_at,omitempty"`
}

// IntakeResult is what the engine proposes for the slot addressed by a label.
type IntakeResult struct {
	RequestID      string               `json:"request_id"`
	Label          string               `json:"label"`
	Status         IntakeStatus         `json:"status"`
	Error          string               `json:"error,omitempty"`
	Slot           *Slot                `json:"slot,omitempty"`
	Normalized     *NormalizedEquipment `json:"normalized,omitempty"`
	BrandTier      ActionTier           `json:"brand_tier,omitempty"`
	ModelTier      ActionTier           `json:"model_tier,omitempty"`
	Conflict       *ConflictResult      `json:"conflict,omitempty"`
	Proposed       *EquipmentInstance   `json:"proposed,omitempty"`
	FilingCategory FilingCategory       `json:"filing_category,omitempty"`
	PEDCategory    PEDCategory          `json:"ped_category,omitempty"`
	PhotoKey       string               `json:"photo_key,omitempty"`
	PhotoError     string               `json:"photo_error,omitempty"`
	ProcessedAt    time.Time            `json:"processed_at"`
}
