package usecase

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
)

const specTolerance = 0.01

type specMapping struct {
	instanceField string
	specField     string
	key           bool
}

var vesselSpecs = []specMapping{
	{instanceField: domain.FieldVolume, specField: "volume"},
	{instanceField: domain.FieldMaxPressure, specField: "ps"},
	{instanceField: domain.FieldTemperature, specField: "ts"},
	{instanceField: domain.FieldPEDCategory, specField: "ped_category"},
}

var specMappings = map[domain.EquipmentType][]specMapping{
	domain.EquipmentTank:          vesselSpecs,
	domain.EquipmentOilSeparator:  vesselSpecs,
	domain.EquipmentHeatExchanger: vesselSpecs,
	domain.EquipmentFilterVessel:  vesselSpecs,
	domain.EquipmentCompressor: {
		{instanceField: domain.FieldMaxPressure, specField: "pressure_max", key: true},
		{instanceField: domain.FieldAirFlow, specField: "fad"},
	},
	domain.EquipmentDryer: {
		{instanceField: domain.FieldMaxPressure, specField: "ps"},
		{instanceField: domain.FieldAirFlow, specField: "q"},
	},
	domain.EquipmentSafetyValve: {
		{instanceField: domain.FieldSetPressure, specField: "ptar", key: true},
		{instanceField: domain.FieldTemperature, specField: "ts"},
		{instanceField: domain.FieldAirFlow, specField: "qmax"},
		{instanceField: domain.FieldDiameter, specField: "diameter"},
	},
	domain.EquipmentFilter:    {},
	domain.EquipmentSeparator: {},
}

var specLabels = map[string]string{
	"volume":       "Volume (l)",
	"ps":           "PS (max pressure, bar)",
	"ts":           "TS (max temperature, °C)",
	"ped_category": "PED category",
	"pressure_max": "Max pressure (bar)",
	"fad":          "FAD (delivered air, l/min)",
	"q":            "Q (treated air, l/min)",
	"ptar":         "Set pressure (bar)",
	"qmax":         "Qmax (discharged air, l/min)",
	"diameter":     "Diameter",
}

// SpecFieldLabel is the display label of a catalog spec field.
func SpecFieldLabel(field string) string {
	if label, ok := specLabels[field]; ok {
		return label
	}
	return field
}

// CompareSpecs diffs the mapped spec fields of submitted against the catalog baseline.
func CompareSpecs(
	catalogSpecs domain.Specs,
	submitted domain.EquipmentInstance,
	equipmentType domain.EquipmentType,
) (domain.SpecComparison, error) {
	mapping, ok := specMappings[equipmentType]
	if !ok {
		return domain.SpecComparison{}, domain.WrapError(domain.ErrUnsupportedEquipmentType, "compare specs", fmt.Errorf("type %q", equipmentType))
	}

	result := domain.SpecComparison{
		NewFields:       map[string]any{},
		ModifiedFields:  map[string]domain.FieldChange{},
		UnchangedFields: []string{},
	}

	for _, m := range mapping {
		if !m.key {
			continue
		}
		value := submitted.FieldValue(m.instanceField)
		if !specEmpty(value) && !specValuesEqual(value, catalogSpecs[m.specField]) {
			result.SuggestNewVariant = true
			return result, nil
		}
	}

	for _, m := range mapping {
		value := submitted.FieldValue(m.instanceField)
		current := catalogSpecs[m.specField]
		switch {
		case specEmpty(value):
			if !specEmpty(current) {
				result.UnchangedFields = append(result.UnchangedFields, m.specField)
			}
		case specEmpty(current):
			result.NewFields[m.specField] = value
		case !specValuesEqual(value, current):
			result.ModifiedFields[m.specField] = domain.FieldChange{Old: current, New: value}
		default:
			result.UnchangedFields = append(result.UnchangedFields, m.specField)
		}
	}
	result.HasChanges = len(result.NewFields) > 0 || len(result.ModifiedFields) > 0
	return result, nil
}

// CatalogSpecsOf collects the filled catalog specs an instance carries.
func CatalogSpecsOf(instance domain.EquipmentInstance) (domain.Specs, error) {
	mapping, ok := specMappings[instance.Type]
	if !ok {
		return nil, domain.WrapError(domain.ErrUnsupportedEquipmentType, "catalog specs", fmt.Errorf("type %q", instance.Type))
	}
	specs := domain.Specs{}
	for _, m := range mapping {
		if value := instance.FieldValue(m.instanceField); !specEmpty(value) {
			specs[m.specField] = value
		}
	}
	return specs, nil
}

func specEmpty(v any) bool {
	return !domain.IsFilled(v)
}

func specValuesEqual(a, b any) bool {
	if specEmpty(a) && specEmpty(b) {
		return true
	}
	if specEmpty(a) || specEmpty(b) {
		return false
	}
	na, aNum := toFloat(a)
	nb, bNum := toFloat(b)
	if aNum && bNum {
		return math.Abs(na-nb) < specTolerance
	}
	if aNum != bNum {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

type CatalogUpdateUseCase struct {
	catalog ports.CatalogStore
	now     func() time.Time
}

func NewCatalogUpdateUseCase(catalog ports.CatalogStore) *CatalogUpdateUseCase {
	return &CatalogUpdateUseCase{
		catalog: catalog,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Compare loads the catalog baseline of the instance and diffs against it.
// For variant-keyed types a miss on the exact key falls back to any variant of the model.
func (uc *CatalogUpdateUseCase) Compare(ctx context.Context, instance domain.EquipmentInstance) (*domain.CatalogUpdate, error) {
	key, err := instanceKey(instance)
	if err != nil {
		return nil, err
	}
	entry, err := uc.catalog.Get(ctx, key)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCatalogLookup, "get catalog entry", err)
	}
	if entry == nil && domain.UsesVariant(key.Type) && key.Variant != nil {
		anyVariant := key
		anyVariant.Variant = nil
		entry, err = uc.catalog.Get(ctx, anyVariant)
		if err != nil {
			return nil, domain.WrapError(domain.ErrCatalogLookup, "get catalog entry", err)
		}
	}
	if entry == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "get catalog entry", fmt.Errorf("no entry for %s", key.Identity()))
	}

	comparison, err := CompareSpecs(entry.SpecsWithVariant(), instance, instance.Type)
	if err != nil {
		return nil, err
	}
	return &domain.CatalogUpdate{
		Code:       instance.Code,
		Key:        entry.Key(),
		Comparison: comparison,
	}, nil
}

// Apply writes a confirmed comparison to the catalog in a single upsert.
func (uc *CatalogUpdateUseCase) Apply(ctx context.Context, update domain.CatalogUpdate) error {
	if update.Comparison.SuggestNewVariant {
		return domain.WrapError(domain.ErrInvalidInput, "apply catalog update", fmt.Errorf("%s diverges on its key value, register a variant instead", update.Key.Identity()))
	}
	if !update.Comparison.HasChanges {
		return domain.WrapError(domain.ErrInvalidInput, "apply catalog update", fmt.Errorf("%s has no changes", update.Key.Identity()))
	}
	if domain.CleanText(update.Key.Brand) == "" || domain.CleanText(update.Key.Model) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "apply catalog update", fmt.Errorf("brand and model are required"))
	}

	now := uc.now()
	entry := domain.CatalogEntry{
		Type:      update.Key.Type,
		Brand:     domain.CleanText(update.Key.Brand),
		Model:     domain.CleanText(update.Key.Model),
		Variant:   update.Key.Variant,
		Specs:     update.Comparison.UpdatedSpecs(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.catalog.Upsert(ctx, entry); err != nil {
		return domain.WrapError(domain.ErrCatalogLookup, "upsert catalog entry", err)
	}
	return nil
}

// RegisterVariant creates the catalog entry a key divergence points at.
func (uc *CatalogUpdateUseCase) RegisterVariant(ctx context.Context, instance domain.EquipmentInstance) (*domain.CatalogEntry, error) {
	key, err := instanceKey(instance)
	if err != nil {
		return nil, err
	}
	if domain.UsesVariant(key.Type) && key.Variant == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "register variant", fmt.Errorf("%s requires %s", key.Type, domain.VariantSpecField(key.Type)))
	}
	specs, err := CatalogSpecsOf(instance)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	entry := domain.CatalogEntry{
		ID:         uuid.NewString(),
		Type:       key.Type,
		Brand:      key.Brand,
		Model:      key.Model,
		Variant:    key.Variant,
		Specs:      specs,
		UsageCount: 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.catalog.Upsert(ctx, entry); err != nil {
		return nil, domain.WrapError(domain.ErrCatalogLookup, "register variant", err)
	}
	return &entry, nil
}

// RecordUse bumps the popularity of the catalog entry an instance was saved with.
func (uc *CatalogUpdateUseCase) RecordUse(ctx context.Context, instance domain.EquipmentInstance) error {
	key, err := instanceKey(instance)
	if err != nil {
		return err
	}
	if err := uc.catalog.IncrementUsage(ctx, key); err != nil {
		return domain.WrapError(domain.ErrCatalogLookup, "increment usage", err)
	}
	return nil
}

// Review compares every catalogable instance of a sheet without writing anything.
func (uc *CatalogUpdateUseCase) Review(ctx context.Context, instances []domain.EquipmentInstance) (*domain.CatalogReview, error) {
	review := &domain.CatalogReview{
		Updates:   []domain.CatalogUpdate{},
		Variants:  []domain.VariantSuggestion{},
		Unmatched: []string{},
	}
	for _, instance := range instances {
		if !instance.Type.Cataloged() || domain.CleanText(instance.Brand) == "" || domain.CleanText(instance.Model) == "" {
			continue
		}
		update, err := uc.Compare(ctx, instance)
		if domain.IsKind(err, domain.ErrNotFound) {
			review.Unmatched = append(review.Unmatched, instance.Code)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("review %s: %w", instance.Code, err)
		}
		switch {
		case update.Comparison.SuggestNewVariant:
			suggested, _ := instanceKey(instance)
			review.Variants = append(review.Variants, domain.VariantSuggestion{
				Code:           instance.Code,
				Key:            suggested,
				CatalogVariant: update.Key.Variant,
			})
		case update.Comparison.HasChanges:
			review.Updates = append(review.Updates, *update)
		}
	}
	return review, nil
}

func instanceKey(instance domain.EquipmentInstance) (domain.CatalogKey, error) {
	if !instance.Type.Cataloged() {
		return domain.CatalogKey{}, domain.WrapError(domain.ErrUnsupportedEquipmentType, "catalog key", fmt.Errorf("type %q", instance.Type))
	}
	brand := domain.CleanText(instance.Brand)
	model := domain.CleanText(instance.Model)
	if brand == "" || model == "" {
		return domain.CatalogKey{}, domain.WrapError(domain.ErrInvalidInput, "catalog key", fmt.Errorf("brand and model are required"))
	}
	key := domain.CatalogKey{Type: instance.Type, Brand: brand, Model: model}
	if domain.UsesVariant(instance.Type) {
		key.Variant = instance.VariantValue()
	}
	return key, nil
}
