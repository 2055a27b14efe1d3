package memory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
)

// Seed is the YAML document that preloads the memory backend.
type Seed struct {
	Catalog       []SeedEntry        `yaml:"catalog"`
	Customers     []SeedCustomer     `yaml:"customers"`
	Installers    []SeedInstaller    `yaml:"installers"`
	Manufacturers []SeedManufacturer `yaml:"manufacturers"`
}

type SeedEntry struct {
	Type       string         `yaml:"type"`
	Brand      string         `yaml:"brand"`
	Model      string         `yaml:"model"`
	Variant    *float64       `yaml:"variant"`
	Specs      map[string]any `yaml:"specs"`
	UsageCount int            `yaml:"usage_count"`
}

type SeedAddress struct {
	Street      string `yaml:"street"`
	HouseNumber string `yaml:"house_number"`
	PostalCode  string `yaml:"postal_code"`
	City        string `yaml:"city"`
	Province    string `yaml:"province"`
}

func (a SeedAddress) toAddress() domain.Address {
	return domain.Address{
		Street:      a.Street,
		HouseNumber: a.HouseNumber,
		PostalCode:  a.PostalCode,
		City:        a.City,
		Province:    a.Province,
	}
}

type SeedCustomer struct {
	ID             string `yaml:"id"`
	CompanyName    string `yaml:"company_name"`
	SeedAddress    `yaml:",inline"`
	Telephone      string `yaml:"telephone"`
	CertifiedEmail string `yaml:"certified_email"`
}

type SeedInstaller struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	TaxID       string `yaml:"tax_id"`
	SeedAddress `yaml:",inline"`
	Telephone   string `yaml:"telephone"`
	Email       string `yaml:"email"`
}

type SeedManufacturer struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Brands      []string `yaml:"brands"`
	Foreign     bool     `yaml:"foreign"`
	Country     string   `yaml:"country"`
	TaxID       string   `yaml:"tax_id"`
	Telephone   string   `yaml:"telephone"`
	SeedAddress `yaml:",inline"`
}

// LoadSeedFile reads a YAML seed from disk.
func LoadSeedFile(path string) (*Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse seed", err)
	}
	return &seed, nil
}

// Apply loads the seed into the stores. Either store may be nil.
func (s *Seed) Apply(ctx context.Context, catalog ports.CatalogStore, entities *EntityStore) error {
	if catalog != nil {
		for i, item := range s.Catalog {
			t, err := domain.ParseEquipmentType(item.Type)
			if err != nil {
				return fmt.Errorf("seed catalog entry %d: %w", i, err)
			}
			entry := domain.CatalogEntry{
				Type:       t,
				Brand:      item.Brand,
				Model:      item.Model,
				Variant:    item.Variant,
				Specs:      domain.Specs(item.Specs),
				UsageCount: item.UsageCount,
			}
			if err := catalog.Upsert(ctx, entry); err != nil {
				return fmt.Errorf("seed catalog entry %d: %w", i, err)
			}
		}
	}
	if entities == nil {
		return nil
	}
	for _, c := range s.Customers {
		entities.PutCustomer(domain.Customer{
			ID:             c.ID,
			CompanyName:    c.CompanyName,
			Address:        c.SeedAddress.toAddress(),
			Telephone:      c.Telephone,
			CertifiedEmail: c.CertifiedEmail,
		})
	}
	for _, i := range s.Installers {
		entities.PutInstaller(domain.Installer{
			ID:        i.ID,
			Name:      i.Name,
			TaxID:     i.TaxID,
			Address:   i.SeedAddress.toAddress(),
			Telephone: i.Telephone,
			Email:     i.Email,
		})
	}
	for _, m := range s.Manufacturers {
		var manufacturer domain.Manufacturer
		if m.Foreign {
			manufacturer = domain.ForeignManufacturer{ID: m.ID, Name: m.Name, Country: m.Country}
		} else {
			manufacturer = domain.DomesticManufacturer{
				ID:        m.ID,
				Name:      m.Name,
				TaxID:     m.TaxID,
				Telephone: m.Telephone,
				Address:   m.SeedAddress.toAddress(),
			}
		}
		entities.PutManufacturer(manufacturer, m.Brands...)
	}
	return nil
}
