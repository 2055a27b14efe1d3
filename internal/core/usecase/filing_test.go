package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

type entityReaderFake struct {
	customers     map[string]*domain.Customer
	installers    map[string]*domain.Installer
	manufacturers map[string]domain.Manufacturer
	brandLookups  int
	err           error
}

func (f *entityReaderFake) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.customers[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get customer", errors.New(id))
	}
	return c, nil
}

func (f *entityReaderFake) GetInstaller(_ context.Context, id string) (*domain.Installer, error) {
	if f.err != nil {
		return nil, f.err
	}
	i, ok := f.installers[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get installer", errors.New(id))
	}
	return i, nil
}

func (f *entityReaderFake) FindManufacturerByBrand(_ context.Context, brand string) (domain.Manufacturer, error) {
	f.brandLookups++
	m, ok := f.manufacturers[strings.ToLower(strings.TrimSpace(brand))]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "find manufacturer", errors.New(brand))
	}
	return m, nil
}

func TestFilingCheckLoadsEntitiesAndDeduplicatesBrands(t *testing.T) {
	entities := &entityReaderFake{
		customers: map[string]*domain.Customer{"c-1": {CompanyName: "Rossi", Address: fullAddress()}},
		manufacturers: map[string]domain.Manufacturer{
			"kaeser": domain.ForeignManufacturer{ID: "m-1", Name: "Kaeser"},
		},
	}
	uc := NewFilingUseCase(entities)

	got, err := uc.Check(context.Background(), "c-1", "missing", []domain.EquipmentInstance{
		{Code: "S1", Type: domain.EquipmentTank, Brand: "Kaeser", Volume: f64(500), MaxPressure: f64(11)},
		{Code: "S2", Type: domain.EquipmentTank, Brand: "KAESER", Volume: f64(270), MaxPressure: f64(11)},
		{Code: "S3", Type: domain.EquipmentTank, Brand: "Kaeser", Volume: f64(10), MaxPressure: f64(11)},
		{Code: "C1", Type: domain.EquipmentCompressor, Brand: "Other", Volume: f64(500), MaxPressure: f64(11)},
	})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	if got.Ready {
		t.Fatalf("expected filing not ready")
	}
	if !got.Customer.IsComplete {
		t.Fatalf("customer should be complete, missing %+v", got.Customer.MissingFields)
	}
	if got.Installer.IsComplete || got.Installer.MissingFields[0].Field != "installer" {
		t.Fatalf("unexpected installer result: %+v", got.Installer)
	}
	if len(got.Manufacturers) != 1 || strings.Join(got.Manufacturers[0].Codes, ",") != "S1,S2" {
		t.Fatalf("unexpected manufacturer gaps: %+v", got.Manufacturers)
	}
	if entities.brandLookups != 1 {
		t.Fatalf("expected one brand lookup, got %d", entities.brandLookups)
	}
}

func TestFilingCheckPropagatesStoreErrors(t *testing.T) {
	uc := NewFilingUseCase(&entityReaderFake{err: errors.New("db down")})

	_, err := uc.Check(context.Background(), "c-1", "i-1", nil)
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestFilingSummarySkipsUnknownManufacturers(t *testing.T) {
	entities := &entityReaderFake{
		manufacturers: map[string]domain.Manufacturer{
			"acme": domain.DomesticManufacturer{ID: "m-9", Name: "Acme"},
		},
	}
	uc := NewFilingUseCase(entities)

	got, err := uc.Summary(context.Background(), []domain.EquipmentInstance{
		{Code: "S2", Type: domain.EquipmentTank, Brand: "Acme", Volume: f64(1000), MaxPressure: f64(11)},
		{Code: "S1", Type: domain.EquipmentTank, Brand: "Nobody", Volume: f64(500), MaxPressure: f64(11)},
	})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Code != "S2" || got.Items[0].Category != domain.FilingVerification {
		t.Fatalf("unexpected summary: %+v", got)
	}
}
