package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
)

const (
	fuzzyMinSimilarity = 0.5
	fuzzySearchLimit   = 5
	alternativesLimit  = 3
)

type NormalizeUseCase struct {
	catalog ports.CatalogStore
}

func NewNormalizeUseCase(catalog ports.CatalogStore) *NormalizeUseCase {
	return &NormalizeUseCase{catalog: catalog}
}

// Normalize resolves a raw brand/model pair against the catalog for the type.
func (uc *NormalizeUseCase) Normalize(
	ctx context.Context,
	equipmentType domain.EquipmentType,
	rawBrand, rawModel string,
) (*domain.NormalizedEquipment, error) {
	if !equipmentType.Cataloged() {
		return nil, domain.WrapError(domain.ErrUnsupportedEquipmentType, "normalize", fmt.Errorf("type %q has no catalog mapping", equipmentType))
	}

	brand, err := uc.resolveBrand(ctx, equipmentType, rawBrand)
	if err != nil {
		return nil, err
	}
	model, err := uc.resolveModel(ctx, equipmentType, brand.NormalizedValue, rawModel)
	if err != nil {
		return nil, err
	}

	return &domain.NormalizedEquipment{
		Type:              equipmentType,
		Brand:             brand,
		Model:             model,
		OverallConfidence: min(brand.Confidence, model.Confidence),
	}, nil
}

func (uc *NormalizeUseCase) resolveBrand(ctx context.Context, equipmentType domain.EquipmentType, raw string) (domain.ExtractedField, error) {
	cleaned := domain.CleanText(raw)
	if cleaned == "" {
		return blankField(raw), nil
	}

	brands, err := uc.catalog.ListBrands(ctx, equipmentType)
	if err != nil {
		return domain.ExtractedField{}, domain.WrapError(domain.ErrCatalogLookup, "list brands", err)
	}
	if match, ok := findFold(brands, cleaned); ok {
		return exactField(raw, match), nil
	}

	candidates, err := uc.catalog.FuzzySearch(ctx, cleaned, equipmentType, fuzzySearchLimit)
	if err != nil {
		return domain.ExtractedField{}, domain.WrapError(domain.ErrCatalogLookup, "fuzzy search brand", err)
	}
	return pickCandidate(raw, cleaned, candidates, func(c domain.CatalogCandidate) string { return c.Entry.Brand }), nil
}

func (uc *NormalizeUseCase) resolveModel(ctx context.Context, equipmentType domain.EquipmentType, brand, raw string) (domain.ExtractedField, error) {
	cleaned := domain.CleanText(raw)
	if cleaned == "" {
		return blankField(raw), nil
	}

	models, err := uc.catalog.ListModels(ctx, equipmentType, brand)
	if err != nil {
		return domain.ExtractedField{}, domain.WrapError(domain.ErrCatalogLookup, "list models", err)
	}
	if match, ok := findFold(models, cleaned); ok {
		return exactField(raw, match), nil
	}

	query := strings.TrimSpace(brand + " " + cleaned)
	candidates, err := uc.catalog.FuzzySearch(ctx, query, equipmentType, fuzzySearchLimit)
	if err != nil {
		return domain.ExtractedField{}, domain.WrapError(domain.ErrCatalogLookup, "fuzzy search model", err)
	}
	sameBrand := candidates[:0:0]
	for _, c := range candidates {
		if strings.EqualFold(c.Entry.Brand, brand) {
			sameBrand = append(sameBrand, c)
		}
	}
	return pickCandidate(raw, cleaned, sameBrand, func(c domain.CatalogCandidate) string { return c.Entry.Model }), nil
}

func blankField(raw string) domain.ExtractedField {
	return domain.ExtractedField{
		OriginalValue:   raw,
		NormalizedValue: raw,
		Source:          domain.SourceNoMatch,
	}
}

func exactField(raw, match string) domain.ExtractedField {
	return domain.ExtractedField{
		OriginalValue:   raw,
		NormalizedValue: match,
		WasNormalized:   raw != match,
		Confidence:      100,
		Source:          domain.SourceExactMatch,
	}
}

func pickCandidate(
	raw, cleaned string,
	candidates []domain.CatalogCandidate,
	value func(domain.CatalogCandidate) string,
) domain.ExtractedField {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if len(candidates) > 0 && candidates[0].Similarity >= fuzzyMinSimilarity {
		best := value(candidates[0])
		alternatives := candidates
		if len(alternatives) > alternativesLimit {
			alternatives = alternatives[:alternativesLimit]
		}
		return domain.ExtractedField{
			OriginalValue:   raw,
			NormalizedValue: best,
			WasNormalized:   raw != best,
			Confidence:      int(math.Round(candidates[0].Similarity * 100)),
			Source:          domain.SourceFuzzyMatch,
			Alternatives:    append([]domain.CatalogCandidate(nil), alternatives...),
		}
	}
	return domain.ExtractedField{
		OriginalValue:   raw,
		NormalizedValue: cleaned,
		WasNormalized:   raw != cleaned,
		Source:          domain.SourceNoMatch,
	}
}

func findFold(values []string, target string) (string, bool) {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return v, true
		}
	}
	return "", false
}
