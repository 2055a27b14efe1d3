package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

func TestEntityFormatValidatorCustomer(t *testing.T) {
	v := NewEntityFormatValidator()

	issues := v.Customer(domain.Customer{
		CompanyName:    "Rossi",
		Address:        domain.Address{PostalCode: "2010", Province: "mi"},
		Telephone:      "+39 (02) 123-4567",
		CertifiedEmail: "rossi@gmail.com",
	})

	fields := []string{}
	for _, issue := range issues {
		fields = append(fields, issue.Field)
	}
	assert.Equal(t, []string{"postal_code", "province", "certified_email"}, fields)
	assert.Equal(t, "Certified email (PEC) is not a certified email address", issues[2].Message)
}

func TestEntityFormatValidatorAcceptsWellFormedValues(t *testing.T) {
	v := NewEntityFormatValidator()

	assert.Empty(t, v.Customer(domain.Customer{
		Address:        domain.Address{PostalCode: "20100", Province: "MI"},
		Telephone:      "0039 02 1234567",
		CertifiedEmail: "rossi@rossi.pec.it",
	}))
	assert.Empty(t, v.Installer(domain.Installer{TaxID: "01234567890", Email: "info@bianchi.it"}))
	assert.Empty(t, v.Manufacturer(domain.ForeignManufacturer{Name: "Kaeser", Country: "Germany"}))
}

func TestEntityFormatValidatorInstallerTaxID(t *testing.T) {
	issues := NewEntityFormatValidator().Installer(domain.Installer{TaxID: "IT0123"})
	if assert.Len(t, issues, 1) {
		assert.Equal(t, "tax_id", issues[0].Field)
		assert.Equal(t, "VAT number must be 10 or 11 digits", issues[0].Message)
	}
}

func TestNormalizeTelephoneAndProvince(t *testing.T) {
	assert.Equal(t, "+39021234567", NormalizeTelephone("02 123 4567"))
	assert.Equal(t, "+39021234567", NormalizeTelephone("0039 (02) 1234567"))
	assert.Equal(t, "+39021234567", NormalizeTelephone("+39 02-1234567"))
	assert.Empty(t, NormalizeTelephone("  "))
	assert.Equal(t, "MI", NormalizeProvince(" mi "))
}
