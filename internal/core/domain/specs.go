package domain

type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// SpecComparison is the diff between a submitted instance and its catalog baseline.
// When SuggestNewVariant is set both diff maps are empty.
type SpecComparison struct {
	HasChanges        bool                   `json:"has_changes"`
	NewFields         map[string]any         `json:"new_fields"`
	ModifiedFields    map[string]FieldChange `json:"modified_fields"`
	UnchangedFields   []string               `json:"unchanged_fields"`
	SuggestNewVariant bool                   `json:"suggest_new_variant"`
}

// UpdatedSpecs is the union of new fields and the new side of modified fields.
func (c SpecComparison) UpdatedSpecs() Specs {
	out := make(Specs, len(c.NewFields)+len(c.ModifiedFields))
	for field, value := range c.NewFields {
		out[field] = value
	}
	for field, change := range c.ModifiedFields {
		out[field] = change.New
	}
	return out
}

// CatalogUpdate is a comparison the caller confirmed for writing.
type CatalogUpdate struct {
	Code       string         `json:"code,omitempty"`
	Key        CatalogKey     `json:"key"`
	Comparison SpecComparison `json:"comparison"`
}

type VariantSuggestion struct {
	Code           string     `json:"code"`
	Key            CatalogKey `json:"key"`
	CatalogVariant *float64   `json:"catalog_variant,omitempty"`
}

// CatalogReview lists what a technical sheet would change in the catalog.
type CatalogReview struct {
	Updates   []CatalogUpdate     `json:"updates"`
	Variants  []VariantSuggestion `json:"variants"`
	Unmatched []string            `json:"unmatched"`
}
