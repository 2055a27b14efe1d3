package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

var fieldLabels = map[string]string{
	"customer":        "Customer not found",
	"installer":       "Installer not found",
	"manufacturer":    "Manufacturer not found",
	"company_name":    "Company name",
	"name":            "Name",
	"tax_id":          "VAT number",
	"telephone":       "Telephone",
	"street":          "Street",
	"house_number":    "House number",
	"postal_code":     "Postal code",
	"city":            "City",
	"province":        "Province",
	"country":         "Country",
	"certified_email": "Certified email (PEC)",
}

func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

type requiredField struct {
	name  string
	value string
}

func checkRequired(fields ...requiredField) domain.CompletenessResult {
	result := domain.CompletenessResult{MissingFields: []domain.MissingField{}}
	for _, f := range fields {
		if !domain.IsFilled(f.value) {
			result.MissingFields = append(result.MissingFields, domain.MissingField{Field: f.name, Label: FieldLabel(f.name)})
		}
	}
	result.IsComplete = len(result.MissingFields) == 0
	return result
}

func notFound(field string) domain.CompletenessResult {
	return domain.CompletenessResult{
		MissingFields: []domain.MissingField{{Field: field, Label: FieldLabel(field)}},
	}
}

func addressFields(a domain.Address) []requiredField {
	return []requiredField{
		{"street", a.Street},
		{"house_number", a.HouseNumber},
		{"postal_code", a.PostalCode},
		{"city", a.City},
		{"province", a.Province},
	}
}

// ValidateCustomer checks the fields a filing needs from the customer.
// Telephone and certified email are optional.
func ValidateCustomer(c *domain.Customer) domain.CompletenessResult {
	if c == nil {
		return notFound("customer")
	}
	return checkRequired(append([]requiredField{{"company_name", c.CompanyName}}, addressFields(c.Address)...)...)
}

func ValidateInstaller(i *domain.Installer) domain.CompletenessResult {
	if i == nil {
		return notFound("installer")
	}
	return checkRequired(append([]requiredField{{"name", i.Name}, {"tax_id", i.TaxID}}, addressFields(i.Address)...)...)
}

func ValidateManufacturer(m domain.Manufacturer) domain.CompletenessResult {
	switch v := m.(type) {
	case domain.DomesticManufacturer:
		return validateDomestic(v)
	case *domain.DomesticManufacturer:
		if v == nil {
			return notFound("manufacturer")
		}
		return validateDomestic(*v)
	case domain.ForeignManufacturer:
		return validateForeign(v)
	case *domain.ForeignManufacturer:
		if v == nil {
			return notFound("manufacturer")
		}
		return validateForeign(*v)
	default:
		return notFound("manufacturer")
	}
}

// knownManufacturer is false for a nil interface and for typed nil pointers inside it.
func knownManufacturer(m domain.Manufacturer) bool {
	switch v := m.(type) {
	case nil:
		return false
	case *domain.DomesticManufacturer:
		return v != nil
	case *domain.ForeignManufacturer:
		return v != nil
	default:
		return true
	}
}

func validateDomestic(m domain.DomesticManufacturer) domain.CompletenessResult {
	return checkRequired(append([]requiredField{
		{"name", m.Name},
		{"tax_id", m.TaxID},
		{"telephone", m.Telephone},
	}, addressFields(m.Address)...)...)
}

func validateForeign(m domain.ForeignManufacturer) domain.CompletenessResult {
	return checkRequired(requiredField{"name", m.Name}, requiredField{"country", m.Country})
}

// CheckFilingReadiness validates customer, installer and every distinct manufacturer
// referenced by filing-eligible instances. Refs without a manufacturer are reported per brand.
func CheckFilingReadiness(customer *domain.Customer, installer *domain.Installer, refs []domain.ManufacturerRef) domain.FilingReadiness {
	readiness := domain.FilingReadiness{
		Customer:      ValidateCustomer(customer),
		Installer:     ValidateInstaller(installer),
		Manufacturers: []domain.ManufacturerGap{},
	}

	var order []string
	gaps := map[string]*domain.ManufacturerGap{}
	for _, ref := range refs {
		groupKey := "brand:" + domain.FoldKey(ref.Brand)
		if knownManufacturer(ref.Manufacturer) {
			groupKey = "id:" + ref.Manufacturer.ManufacturerID()
		}
		if gap, seen := gaps[groupKey]; seen {
			if gap != nil {
				gap.Codes = append(gap.Codes, ref.Code)
			}
			continue
		}

		result := ValidateManufacturer(ref.Manufacturer)
		if result.IsComplete {
			gaps[groupKey] = nil
			continue
		}
		gap := &domain.ManufacturerGap{
			Codes:         []string{ref.Code},
			Brand:         ref.Brand,
			MissingFields: result.MissingFields,
		}
		if knownManufacturer(ref.Manufacturer) {
			gap.ManufacturerID = ref.Manufacturer.ManufacturerID()
			gap.Name = ref.Manufacturer.ManufacturerName()
		}
		gaps[groupKey] = gap
		order = append(order, groupKey)
	}
	for _, key := range order {
		readiness.Manufacturers = append(readiness.Manufacturers, *gaps[key])
	}

	readiness.Ready = readiness.Customer.IsComplete && readiness.Installer.IsComplete && len(readiness.Manufacturers) == 0
	return readiness
}

// FormatMissingFields renders a readiness report as human readable lines.
func FormatMissingFields(readiness domain.FilingReadiness) string {
	if readiness.Ready {
		return ""
	}
	var b strings.Builder
	if !readiness.Customer.IsComplete {
		fmt.Fprintf(&b, "Customer: %s\n", joinLabels(readiness.Customer.MissingFields))
	}
	if !readiness.Installer.IsComplete {
		fmt.Fprintf(&b, "Installer: %s\n", joinLabels(readiness.Installer.MissingFields))
	}
	for _, gap := range readiness.Manufacturers {
		name := gap.Name
		if name == "" {
			name = gap.Brand
		}
		fmt.Fprintf(&b, "Manufacturer %s (%s): %s\n", name, strings.Join(gap.Codes, ", "), joinLabels(gap.MissingFields))
	}
	return strings.TrimRight(b.String(), "\n")
}

func joinLabels(fields []domain.MissingField) string {
	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		labels = append(labels, f.Label)
	}
	return strings.Join(labels, ", ")
}
