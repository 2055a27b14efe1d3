package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

type catalogFake struct {
	mu       sync.Mutex
	brands   map[domain.EquipmentType][]string
	models   map[string][]string
	fuzzy    map[string][]domain.CatalogCandidate
	entries  map[string]domain.CatalogEntry
	err      error
	calls    int
	upserts  []domain.CatalogEntry
	used     []domain.CatalogKey
	upsertFn func(domain.CatalogEntry) error
}

func newCatalogFake() *catalogFake {
	return &catalogFake{
		brands:  map[domain.EquipmentType][]string{},
		models:  map[string][]string{},
		fuzzy:   map[string][]domain.CatalogCandidate{},
		entries: map[string]domain.CatalogEntry{},
	}
}

func modelsKey(t domain.EquipmentType, brand string) string {
	return string(t) + "|" + strings.ToLower(brand)
}

func (f *catalogFake) addEntry(e domain.CatalogEntry) {
	f.entries[e.Key().Identity()] = e
}

func (f *catalogFake) ListBrands(_ context.Context, t domain.EquipmentType) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.brands[t], nil
}

func (f *catalogFake) ListModels(_ context.Context, t domain.EquipmentType, brand string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.models[modelsKey(t, brand)], nil
}

func (f *catalogFake) Get(_ context.Context, key domain.CatalogKey) (*domain.CatalogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if e, ok := f.entries[key.Identity()]; ok {
		return &e, nil
	}
	if key.Variant == nil {
		for _, e := range f.entries {
			if e.Type == key.Type && e.Key().BrandKey() == key.BrandKey() && e.Key().ModelKey() == key.ModelKey() {
				return &e, nil
			}
		}
	}
	return nil, nil
}

func (f *catalogFake) FuzzySearch(_ context.Context, query string, _ domain.EquipmentType, _ int) ([]domain.CatalogCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.CatalogCandidate(nil), f.fuzzy[query]...), nil
}

func (f *catalogFake) Upsert(_ context.Context, e domain.CatalogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertFn != nil {
		if err := f.upsertFn(e); err != nil {
			return err
		}
	}
	f.upserts = append(f.upserts, e)
	return nil
}

func (f *catalogFake) IncrementUsage(_ context.Context, key domain.CatalogKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.used = append(f.used, key)
	return nil
}

func candidate(t domain.EquipmentType, brand, model string, sim float64) domain.CatalogCandidate {
	return domain.CatalogCandidate{
		Entry:      domain.CatalogEntry{Type: t, Brand: brand, Model: model},
		Similarity: sim,
	}
}

func f64(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
