package usecase

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

var (
	postalCodePattern = regexp.MustCompile(`^[0-9]{5}$`)
	provincePattern   = regexp.MustCompile(`^[A-Z]{2}$`)
	taxIDPattern      = regexp.MustCompile(`^[0-9]{10,11}$`)
	telephonePattern  = regexp.MustCompile(`^(\+39|0039)?[0-9]{6,11}$`)
	phoneNoise        = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

var certifiedMailDomains = []string{
	".pec.it",
	".legalmail.it",
	".arubapec.it",
	".postacert.it",
	".sicurezzapostale.it",
	".cert.agenziaentrate.it",
}

var formatMessages = map[string]string{
	"postal_code": "must be 5 digits",
	"province":    "must be 2 uppercase letters",
	"tax_id":      "must be 10 or 11 digits",
	"telephone":   "is not a valid telephone number",
	"email":       "is not a valid email address",
	"pec":         "is not a certified email address",
}

// EntityFormatValidator checks the shape of filled entity fields. Blank fields are
// left to the completeness checks.
type EntityFormatValidator struct {
	validate *validator.Validate
}

func NewEntityFormatValidator() *EntityFormatValidator {
	v := validator.New()
	_ = v.RegisterValidation("postal_code", matchPattern(postalCodePattern))
	_ = v.RegisterValidation("province", matchPattern(provincePattern))
	_ = v.RegisterValidation("tax_id", matchPattern(taxIDPattern))
	_ = v.RegisterValidation("telephone", func(fl validator.FieldLevel) bool {
		return telephonePattern.MatchString(phoneNoise.Replace(fl.Field().String()))
	})
	_ = v.RegisterValidation("pec", func(fl validator.FieldLevel) bool {
		value := strings.ToLower(strings.TrimSpace(fl.Field().String()))
		for _, suffix := range certifiedMailDomains {
			if strings.HasSuffix(value, suffix) {
				return true
			}
		}
		return false
	})
	return &EntityFormatValidator{validate: v}
}

func matchPattern(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(strings.TrimSpace(fl.Field().String()))
	}
}

type formatCheck struct {
	field string
	value string
	tag   string
}

func (v *EntityFormatValidator) Customer(c domain.Customer) []domain.FormatIssue {
	return v.run(append(addressChecks(c.Address),
		formatCheck{"telephone", c.Telephone, "telephone"},
		formatCheck{"certified_email", c.CertifiedEmail, "email,pec"},
	)...)
}

func (v *EntityFormatValidator) Installer(i domain.Installer) []domain.FormatIssue {
	return v.run(append(addressChecks(i.Address),
		formatCheck{"tax_id", i.TaxID, "tax_id"},
		formatCheck{"telephone", i.Telephone, "telephone"},
		formatCheck{"email", i.Email, "email"},
	)...)
}

// Manufacturer only checks domestic records; foreign ones carry free-form data.
func (v *EntityFormatValidator) Manufacturer(m domain.Manufacturer) []domain.FormatIssue {
	var d domain.DomesticManufacturer
	switch mm := m.(type) {
	case domain.DomesticManufacturer:
		d = mm
	case *domain.DomesticManufacturer:
		if mm == nil {
			return []domain.FormatIssue{}
		}
		d = *mm
	default:
		return []domain.FormatIssue{}
	}
	return v.run(append(addressChecks(d.Address),
		formatCheck{"tax_id", d.TaxID, "tax_id"},
		formatCheck{"telephone", d.Telephone, "telephone"},
	)...)
}

func addressChecks(a domain.Address) []formatCheck {
	return []formatCheck{
		{"postal_code", a.PostalCode, "postal_code"},
		{"province", a.Province, "province"},
	}
}

func (v *EntityFormatValidator) run(checks ...formatCheck) []domain.FormatIssue {
	issues := []domain.FormatIssue{}
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			continue
		}
		err := v.validate.Var(c.value, c.tag)
		if err == nil {
			continue
		}
		tag := c.tag
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			tag = errs[0].Tag()
		}
		issues = append(issues, domain.FormatIssue{
			Field:   c.field,
			Label:   FieldLabel(c.field),
			Message: FieldLabel(c.field) + " " + formatMessages[tag],
		})
	}
	return issues
}

// NormalizeTelephone strips separators and adds the +39 prefix.
func NormalizeTelephone(tel string) string {
	cleaned := phoneNoise.Replace(strings.TrimSpace(tel))
	switch {
	case cleaned == "":
		return ""
	case strings.HasPrefix(cleaned, "+39"):
		return cleaned
	case strings.HasPrefix(cleaned, "0039"):
		return "+39" + cleaned[4:]
	default:
		return "+39" + cleaned
	}
}

func NormalizeProvince(p string) string {
	return strings.ToUpper(strings.TrimSpace(p))
}
