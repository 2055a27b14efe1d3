package domain

type FilingCategory string

const (
	FilingNone         FilingCategory = "None"
	FilingDeclaration  FilingCategory = "Declaration"
	FilingVerification FilingCategory = "Verification"
)

type PEDCategory string

const (
	PEDUnknown PEDCategory = ""
	PEDI       PEDCategory = "I"
	PEDII      PEDCategory = "II"
	PEDIII     PEDCategory = "III"
	PEDIV      PEDCategory = "IV"
)

type FilingItem struct {
	Code           string         `json:"code"`
	Type           EquipmentType  `json:"equipment_type"`
	Brand          string         `json:"brand"`
	Model          string         `json:"model"`
	Volume         float64        `json:"volume"`
	MaxPressure    float64        `json:"max_pressure"`
	Category       FilingCategory `json:"category"`
	PEDCategory    PEDCategory    `json:"ped_category,omitempty"`
	ManufacturerID string         `json:"manufacturer_id"`
}

type FilingSummary struct {
	Items         []FilingItem `json:"items"`
	Declarations  []FilingItem `json:"declarations"`
	Verifications []FilingItem `json:"verifications"`
}
