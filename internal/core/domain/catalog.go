package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Specs holds catalog technical values keyed by spec field name.
type Specs map[string]any

// CatalogEntry is one model row of the reference catalog.
type CatalogEntry struct {
	ID         string        `json:"id"`
	Type       EquipmentType `json:"equipment_type"`
	Brand      string        `json:"brand"`
	Model      string        `json:"model"`
	Variant    *float64      `json:"variant,omitempty"`
	Specs      Specs         `json:"specs"`
	UsageCount int           `json:"usage_count"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (e CatalogEntry) Key() CatalogKey {
	return CatalogKey{Type: e.Type, Brand: e.Brand, Model: e.Model, Variant: e.Variant}
}

type CatalogKey struct {
	Type    EquipmentType `json:"equipment_type"`
	Brand   string        `json:"brand"`
	Model   string        `json:"model"`
	Variant *float64      `json:"variant,omitempty"`
}

// UsesVariant reports whether a numeric spec is part of the identity for the type.
func UsesVariant(t EquipmentType) bool {
	return t == EquipmentCompressor || t == EquipmentSafetyValve
}

// VariantSpecField names the catalog spec that carries the identity value.
func VariantSpecField(t EquipmentType) string {
	switch t {
	case EquipmentCompressor:
		return "pressure_max"
	case EquipmentSafetyValve:
		return "ptar"
	default:
		return ""
	}
}

func (k CatalogKey) BrandKey() string { return FoldKey(k.Brand) }

func (k CatalogKey) ModelKey() string { return FoldKey(k.Model) }

// VariantKey renders the identity value, empty when the type has none.
func (k CatalogKey) VariantKey() string {
	if !UsesVariant(k.Type) || k.Variant == nil {
		return ""
	}
	return strconv.FormatFloat(*k.Variant, 'f', -1, 64)
}

// Identity is the stable string form of the key used by stores and caches.
func (k CatalogKey) Identity() string {
	return strings.Join([]string{string(k.Type), k.BrandKey(), k.ModelKey(), k.VariantKey()}, "|")
}

// FoldKey lowercases and collapses whitespace so identity lookups ignore spacing and case.
func FoldKey(s string) string {
	return strings.ToLower(CleanText(s))
}

// CleanText trims, drops zero-width characters and collapses inner whitespace runs.
func CleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u200B', '\u200C', '\u200D', '\uFEFF':
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

type CatalogCandidate struct {
	Entry      CatalogEntry `json:"entry"`
	Similarity float64      `json:"similarity"`
}

// SpecsWithVariant returns a copy of the specs with the identity value filled in.
func (e CatalogEntry) SpecsWithVariant() Specs {
	out := make(Specs, len(e.Specs)+1)
	for k, v := range e.Specs {
		out[k] = v
	}
	if field := VariantSpecField(e.Type); field != "" && e.Variant != nil {
		if _, ok := out[field]; !ok {
			out[field] = *e.Variant
		}
	}
	return out
}
