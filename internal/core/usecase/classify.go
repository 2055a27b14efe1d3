package usecase

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

var (
	declarationMaxProduct = decimal.NewFromInt(8000)
	pedThresholds         = []struct {
		below    decimal.Decimal
		category domain.PEDCategory
	}{
		{below: decimal.NewFromInt(200), category: domain.PEDI},
		{below: decimal.NewFromInt(1000), category: domain.PEDII},
		{below: decimal.NewFromInt(3000), category: domain.PEDIII},
	}
)

// ClassifyFiling maps volume (l) and max pressure (bar) to the filing category.
// Missing, non-positive or non-finite inputs yield FilingNone.
func ClassifyFiling(volume, pressure *float64) domain.FilingCategory {
	if !positiveFinite(volume) || !positiveFinite(pressure) {
		return domain.FilingNone
	}
	v, p := *volume, *pressure

	switch {
	case v < 25:
		return domain.FilingNone
	case v >= 25 && v < 50 && p < 12:
		return domain.FilingNone
	case v >= 50 && p <= 12:
		if product(p, v).LessThanOrEqual(declarationMaxProduct) {
			return domain.FilingDeclaration
		}
		return domain.FilingVerification
	case v > 25 && p > 12:
		return domain.FilingVerification
	default:
		// volume == 25 with pressure >= 12 falls through every rule.
		return domain.FilingNone
	}
}

// ClassifyPED derives the PED category from PS x V.
func ClassifyPED(pressure, volume *float64) domain.PEDCategory {
	if !positiveFinite(volume) || !positiveFinite(pressure) {
		return domain.PEDUnknown
	}
	psv := product(*pressure, *volume)
	for _, t := range pedThresholds {
		if psv.LessThan(t.below) {
			return t.category
		}
	}
	return domain.PEDIV
}

// PEDConsistent reports whether a manually entered category agrees with the computed one.
// An incomputable category is never inconsistent; a missing manual value is, once the
// category can be computed.
func PEDConsistent(manual string, pressure, volume *float64) bool {
	computed := ClassifyPED(pressure, volume)
	if computed == domain.PEDUnknown {
		return true
	}
	if manual == "" {
		return false
	}
	return domain.PEDCategory(manual) == computed
}

func product(pressure, volume float64) decimal.Decimal {
	return decimal.NewFromFloat(pressure).Mul(decimal.NewFromFloat(volume))
}

func positiveFinite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) && *v > 0
}

// BuildFilingSummary classifies the filing-eligible instances whose manufacturer is known.
// manufacturers is keyed by domain.FoldKey(brand).
func BuildFilingSummary(instances []domain.EquipmentInstance, manufacturers map[string]domain.Manufacturer) domain.FilingSummary {
	summary := domain.FilingSummary{
		Items:         []domain.FilingItem{},
		Declarations:  []domain.FilingItem{},
		Verifications: []domain.FilingItem{},
	}
	for _, instance := range instances {
		if !instance.Type.FilingEligible() || instance.Volume == nil || instance.MaxPressure == nil {
			continue
		}
		category := ClassifyFiling(instance.Volume, instance.MaxPressure)
		if category == domain.FilingNone {
			continue
		}
		manufacturer, ok := manufacturers[domain.FoldKey(instance.Brand)]
		if !ok || manufacturer == nil {
			continue
		}
		summary.Items = append(summary.Items, domain.FilingItem{
			Code:           instance.Code,
			Type:           instance.Type,
			Brand:          instance.Brand,
			Model:          instance.Model,
			Volume:         *instance.Volume,
			MaxPressure:    *instance.MaxPressure,
			Category:       category,
			PEDCategory:    ClassifyPED(instance.MaxPressure, instance.Volume),
			ManufacturerID: manufacturer.ManufacturerID(),
		})
	}

	sort.SliceStable(summary.Items, func(i, j int) bool {
		a, b := summary.Items[i], summary.Items[j]
		if a.Category != b.Category {
			return a.Category == domain.FilingDeclaration
		}
		return CompareCodes(a.Code, b.Code) < 0
	})
	for _, item := range summary.Items {
		if item.Category == domain.FilingDeclaration {
			summary.Declarations = append(summary.Declarations, item)
		} else {
			summary.Verifications = append(summary.Verifications, item)
		}
	}
	return summary
}
