package usecase

import (
	"context"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
)

type FilingUseCase struct {
	entities ports.EntityReader
}

func NewFilingUseCase(entities ports.EntityReader) *FilingUseCase {
	return &FilingUseCase{entities: entities}
}

// Summary resolves manufacturers by brand and classifies the eligible instances.
func (uc *FilingUseCase) Summary(ctx context.Context, instances []domain.EquipmentInstance) (*domain.FilingSummary, error) {
	manufacturers, err := uc.resolveManufacturers(ctx, filingCandidates(instances))
	if err != nil {
		return nil, err
	}
	summary := BuildFilingSummary(instances, manufacturers)
	return &summary, nil
}

// Check loads the entities of a filing and reports everything still missing.
func (uc *FilingUseCase) Check(
	ctx context.Context,
	customerID, installerID string,
	instances []domain.EquipmentInstance,
) (*domain.FilingReadiness, error) {
	customer, err := uc.entities.GetCustomer(ctx, customerID)
	if err != nil && !domain.IsKind(err, domain.ErrNotFound) {
		return nil, err
	}
	installer, err := uc.entities.GetInstaller(ctx, installerID)
	if err != nil && !domain.IsKind(err, domain.ErrNotFound) {
		return nil, err
	}

	candidates := filingCandidates(instances)
	manufacturers, err := uc.resolveManufacturers(ctx, candidates)
	if err != nil {
		return nil, err
	}
	refs := make([]domain.ManufacturerRef, 0, len(candidates))
	for _, instance := range candidates {
		refs = append(refs, domain.ManufacturerRef{
			Code:         instance.Code,
			Brand:        instance.Brand,
			Manufacturer: manufacturers[domain.FoldKey(instance.Brand)],
		})
	}

	readiness := CheckFilingReadiness(customer, installer, refs)
	return &readiness, nil
}

func (uc *FilingUseCase) resolveManufacturers(ctx context.Context, instances []domain.EquipmentInstance) (map[string]domain.Manufacturer, error) {
	out := map[string]domain.Manufacturer{}
	for _, instance := range instances {
		key := domain.FoldKey(instance.Brand)
		if key == "" {
			continue
		}
		if _, done := out[key]; done {
			continue
		}
		m, err := uc.entities.FindManufacturerByBrand(ctx, instance.Brand)
		if err != nil && !domain.IsKind(err, domain.ErrNotFound) {
			return nil, err
		}
		out[key] = m
	}
	for key, m := range out {
		if m == nil {
			delete(out, key)
		}
	}
	return out, nil
}

func filingCandidates(instances []domain.EquipmentInstance) []domain.EquipmentInstance {
	out := make([]domain.EquipmentInstance, 0, len(instances))
	for _, instance := range instances {
		if !instance.Type.FilingEligible() {
			continue
		}
		if ClassifyFiling(instance.Volume, instance.MaxPressure) == domain.FilingNone {
			continue
		}
		out = append(out, instance)
	}
	return out
}
