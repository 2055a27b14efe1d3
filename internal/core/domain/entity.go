package domain

type Address struct {
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	PostalCode  string `json:"postal_code"`
	City        string `json:"city"`
	Province    string `json:"province"`
}

type Customer struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	Address
	Telephone      string `json:"telephone,omitempty"`
	CertifiedEmail string `json:"certified_email,omitempty"`
}

type Installer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
	Address
	Telephone string `json:"telephone,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Manufacturer is either a DomesticManufacturer or a ForeignManufacturer.
type Manufacturer interface {
	ManufacturerID() string
	ManufacturerName() string
	manufacturer()
}

type DomesticManufacturer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TaxID     string `json:"tax_id"`
	Telephone string `json:"telephone"`
	Address
}

func (m DomesticManufacturer) ManufacturerID() string   { return m.ID }
func (m DomesticManufacturer) ManufacturerName() string { return m.Name }
func (DomesticManufacturer) manufacturer()              {}

type ForeignManufacturer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

func (m ForeignManufacturer) ManufacturerID() string   { return m.ID }
func (m ForeignManufacturer) ManufacturerName() string { return m.Name }
func (ForeignManufacturer) manufacturer()              {}

type MissingField struct {
	Field string `json:"field"`
	Label string `json:"label"`
}

type CompletenessResult struct {
	IsComplete    bool           `json:"is_complete"`
	MissingFields []MissingField `json:"missing_fields"`
}

// ManufacturerRef ties a filing-eligible instance to its resolved manufacturer.
// Manufacturer is nil when no record matched the instance brand.
type ManufacturerRef struct {
	Code         string       `json:"code"`
	Brand        string       `json:"brand"`
	Manufacturer Manufacturer `json:"-"`
}

type ManufacturerGap struct {
	ManufacturerID string         `json:"manufacturer_id"`
	Name           string         `json:"name"`
	Codes          []string       `json:"codes"`
	Brand          string         `json:"brand"`
	MissingFields  []MissingField `json:"missing_fields"`
}

type FilingReadiness struct {
	Ready         bool               `json:"ready"`
	Customer      CompletenessResult `json:"customer"`
	Installer     CompletenessResult `json:"installer"`
	Manufacturers []ManufacturerGap  `json:"manufacturers"`
}

type FormatIssue struct {
	Field   string `json:"field"`
	Label   string `json:"label"`
	Message string `json:"message"`
}
