package usecase

import (
	"fmt"
	"math"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

var identityChecklists = map[domain.EquipmentType][]string{
	domain.EquipmentTank: {
		domain.FieldBrand, domain.FieldModel, domain.FieldSerialNumber, domain.FieldYear, domain.FieldVolume,
	},
	domain.EquipmentCompressor: {
		domain.FieldBrand, domain.FieldModel, domain.FieldSerialNumber, domain.FieldMaterialNumber,
		domain.FieldYear, domain.FieldMaxPressure,
	},
	domain.EquipmentOilSeparator:  baseChecklist(),
	domain.EquipmentDryer:         baseChecklist(),
	domain.EquipmentHeatExchanger: baseChecklist(),
	domain.EquipmentFilter:        baseChecklist(),
	domain.EquipmentSeparator:     baseChecklist(),
	domain.EquipmentSafetyValve:   baseChecklist(),
	domain.EquipmentFilterVessel:  baseChecklist(),
	domain.EquipmentOther: {
		domain.FieldDeviceKind, domain.FieldBrand, domain.FieldModel, domain.FieldSerialNumber, domain.FieldYear,
	},
}

func baseChecklist() []string {
	return []string{domain.FieldBrand, domain.FieldModel, domain.FieldSerialNumber, domain.FieldYear}
}

// IdentityChecklist returns the fields whose overwrite needs confirmation for the type.
func IdentityChecklist(equipmentType domain.EquipmentType) ([]string, error) {
	fields, ok := identityChecklists[equipmentType]
	if !ok {
		return nil, domain.WrapError(domain.ErrUnsupportedEquipmentType, "identity checklist", fmt.Errorf("type %q", equipmentType))
	}
	return append([]string(nil), fields...), nil
}

// DetectConflicts lists which identity fields of existing are already filled.
// It never merges; incoming only narrows OverwrittenFields.
func DetectConflicts(
	existing *domain.EquipmentInstance,
	incoming *domain.NameplateReading,
	equipmentType domain.EquipmentType,
) (domain.ConflictResult, error) {
	checklist, err := IdentityChecklist(equipmentType)
	if err != nil {
		return domain.ConflictResult{}, err
	}

	result := domain.ConflictResult{
		FilledFields:      []string{},
		FieldValues:       map[string]any{},
		OverwrittenFields: []string{},
	}
	if existing == nil {
		return result, nil
	}

	var proposed *domain.EquipmentInstance
	if incoming != nil {
		p := incoming.Instance(equipmentType)
		proposed = &p
	}
	for _, field := range checklist {
		value := existing.FieldValue(field)
		if !domain.IsFilled(value) {
			continue
		}
		result.FilledFields = append(result.FilledFields, field)
		result.FieldValues[field] = value
		if proposed != nil && domain.IsFilled(proposed.FieldValue(field)) {
			result.OverwrittenFields = append(result.OverwrittenFields, field)
		}
	}
	result.HasConflict = len(result.FilledFields) > 0
	return result, nil
}

// ConflictItem is one slot of a batch conflict check.
type ConflictItem struct {
	Slot     domain.Slot
	Existing *domain.EquipmentInstance
	Incoming *domain.NameplateReading
}

// BatchDetectConflicts runs DetectConflicts per slot and keys results by slot code.
func BatchDetectConflicts(items []ConflictItem) (map[string]domain.ConflictResult, domain.ConflictSummary, error) {
	results := make(map[string]domain.ConflictResult, len(items))
	for _, item := range items {
		res, err := DetectConflicts(item.Existing, item.Incoming, item.Slot.Type)
		if err != nil {
			return nil, domain.ConflictSummary{}, fmt.Errorf("slot %s: %w", item.Slot.Code(), err)
		}
		results[item.Slot.Code()] = res
	}
	return results, SummarizeConflicts(results), nil
}

func SummarizeConflicts(results map[string]domain.ConflictResult) domain.ConflictSummary {
	summary := domain.ConflictSummary{Total: len(results)}
	for _, res := range results {
		if res.HasConflict {
			summary.WithConflicts++
		}
	}
	if summary.Total > 0 {
		summary.Percentage = int(math.Round(float64(summary.WithConflicts) / float64(summary.Total) * 100))
	}
	return summary
}
