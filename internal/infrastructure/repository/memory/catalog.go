package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
)

// fuzzyThreshold mirrors the default pg_trgm similarity cut-off.
const fuzzyThreshold = 0.3

// CatalogStore keeps the reference catalog in process, keyed by identity.
type CatalogStore struct {
	mu         sync.RWMutex
	entries    map[string]domain.CatalogEntry
	similarity ports.Similarity
	now        func() time.Time
}

func NewCatalogStore(similarity ports.Similarity) *CatalogStore {
	return &CatalogStore{
		entries:    make(map[string]domain.CatalogEntry),
		similarity: similarity,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *CatalogStore) ListBrands(_ context.Context, equipmentType domain.EquipmentType) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type brandGroup struct {
		display string
		count   int
	}
	groups := make(map[string]*brandGroup)
	for _, entry := range s.entries {
		if entry.Type != equipmentType {
			continue
		}
		key := domain.FoldKey(entry.Brand)
		g, ok := groups[key]
		if !ok {
			groups[key] = &brandGroup{display: entry.Brand, count: 1}
			continue
		}
		g.count++
		if entry.Brand < g.display {
			g.display = entry.Brand
		}
	}

	list := make([]*brandGroup, 0, len(groups))
	for _, g := range groups {
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].display < list[j].display
	})
	out := make([]string, 0, len(list))
	for _, g := range list {
		out = append(out, g.display)
	}
	return out, nil
}

func (s *CatalogStore) ListModels(_ context.Context, equipmentType domain.EquipmentType, brand string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type modelGroup struct {
		display string
		usage   int
	}
	brandKey := domain.FoldKey(brand)
	groups := make(map[string]*modelGroup)
	for _, entry := range s.entries {
		if entry.Type != equipmentType || domain.FoldKey(entry.Brand) != brandKey {
			continue
		}
		key := domain.FoldKey(entry.Model)
		g, ok := groups[key]
		if !ok {
			groups[key] = &modelGroup{display: entry.Model, usage: entry.UsageCount}
			continue
		}
		g.usage = max(g.usage, entry.UsageCount)
		if entry.Model < g.display {
			g.display = entry.Model
		}
	}

	list := make([]*modelGroup, 0, len(groups))
	for _, g := range groups {
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].usage != list[j].usage {
			return list[i].usage > list[j].usage
		}
		return list[i].display < list[j].display
	})
	out := make([]string, 0, len(list))
	for _, g := range list {
		out = append(out, g.display)
	}
	return out, nil
}

// Get matches the exact identity. A variant-keyed type queried without a variant
// returns its most used variant.
func (s *CatalogStore) Get(_ context.Context, key domain.CatalogKey) (*domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !domain.UsesVariant(key.Type) || key.Variant != nil {
		entry, ok := s.entries[key.Identity()]
		if !ok {
			return nil, nil
		}
		return cloneEntry(entry), nil
	}

	var best *domain.CatalogEntry
	for _, entry := range s.entries {
		k := entry.Key()
		if k.Type != key.Type || k.BrandKey() != key.BrandKey() || k.ModelKey() != key.ModelKey() {
			continue
		}
		if best == nil || entry.UsageCount > best.UsageCount ||
			(entry.UsageCount == best.UsageCount && k.VariantKey() < best.Key().VariantKey()) {
			best = cloneEntry(entry)
		}
	}
	return best, nil
}

func (s *CatalogStore) FuzzySearch(
	_ context.Context,
	query string,
	equipmentType domain.EquipmentType,
	limit int,
) ([]domain.CatalogCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CatalogCandidate, 0, limit)
	for _, entry := range s.entries {
		if entry.Type != equipmentType {
			continue
		}
		score := max(
			s.similarity.Similarity(entry.Brand, query),
			s.similarity.Similarity(entry.Brand+" "+entry.Model, query),
		)
		if score < fuzzyThreshold {
			continue
		}
		out = append(out, domain.CatalogCandidate{Entry: *cloneEntry(entry), Similarity: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		if out[i].Entry.UsageCount != out[j].Entry.UsageCount {
			return out[i].Entry.UsageCount > out[j].Entry.UsageCount
		}
		return out[i].Entry.Key().Identity() < out[j].Entry.Key().Identity()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Upsert inserts the entry or merges its specs into the entry with the same identity.
func (s *CatalogStore) Upsert(_ context.Context, entry domain.CatalogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !domain.UsesVariant(entry.Type) {
		entry.Variant = nil
	}
	identity := entry.Key().Identity()

	if current, ok := s.entries[identity]; ok {
		merged := make(domain.Specs, len(current.Specs)+len(entry.Specs))
		for k, v := range current.Specs {
			merged[k] = v
		}
		for k, v := range entry.Specs {
			merged[k] = v
		}
		current.Specs = merged
		current.UpdatedAt = now
		s.entries[identity] = current
		return nil
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	entry.Brand = domain.CleanText(entry.Brand)
	entry.Model = domain.CleanText(entry.Model)
	entry.Variant = copyFloat(entry.Variant)
	specs := make(domain.Specs, len(entry.Specs))
	for k, v := range entry.Specs {
		specs[k] = v
	}
	entry.Specs = specs
	s.entries[identity] = entry
	return nil
}

func (s *CatalogStore) IncrementUsage(_ context.Context, key domain.CatalogKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity := key.Identity()
	entry, ok := s.entries[identity]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "increment catalog usage", fmt.Errorf("key %q", identity))
	}
	entry.UsageCount++
	entry.UpdatedAt = s.now()
	s.entries[identity] = entry
	return nil
}

// Len reports the number of stored entries.
func (s *CatalogStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cloneEntry(entry domain.CatalogEntry) *domain.CatalogEntry {
	out := entry
	out.Variant = copyFloat(entry.Variant)
	out.Specs = make(domain.Specs, len(entry.Specs))
	for k, v := range entry.Specs {
		out.Specs[k] = v
	}
	return &out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
