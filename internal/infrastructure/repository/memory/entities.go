package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

// EntityStore serves customers, installers and manufacturers from memory.
type EntityStore struct {
	mu            sync.RWMutex
	customers     map[string]domain.Customer
	installers    map[string]domain.Installer
	manufacturers []domain.Manufacturer
	brands        map[string]int
}

func NewEntityStore() *EntityStore {
	return &EntityStore{
		customers:  make(map[string]domain.Customer),
		installers: make(map[string]domain.Installer),
		brands:     make(map[string]int),
	}
}

func (s *EntityStore) PutCustomer(c domain.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

func (s *EntityStore) PutInstaller(i domain.Installer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.installers[i.ID] = i
}

// PutManufacturer registers a manufacturer and the brands it sells under.
func (s *EntityStore) PutManufacturer(m domain.Manufacturer, brands ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := len(s.manufacturers)
	for i, existing := range s.manufacturers {
		if existing.ManufacturerID() == m.ManufacturerID() {
			idx = i
			break
		}
	}
	if idx == len(s.manufacturers) {
		s.manufacturers = append(s.manufacturers, m)
	} else {
		s.manufacturers[idx] = m
	}
	for _, brand := range brands {
		if key := domain.FoldKey(brand); key != "" {
			s.brands[key] = idx
		}
	}
}

func (s *EntityStore) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get customer", fmt.Errorf("id %q", id))
	}
	return &c, nil
}

func (s *EntityStore) GetInstaller(_ context.Context, id string) (*domain.Installer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.installers[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get installer", fmt.Errorf("id %q", id))
	}
	return &i, nil
}

// FindManufacturerByBrand prefers an explicit brand mapping over a name match.
func (s *EntityStore) FindManufacturerByBrand(_ context.Context, brand string) (domain.Manufacturer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := domain.FoldKey(brand)
	if idx, ok := s.brands[key]; ok && key != "" {
		return s.manufacturers[idx], nil
	}
	for _, m := range s.manufacturers {
		if key != "" && domain.FoldKey(m.ManufacturerName()) == key {
			return m, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "find manufacturer", fmt.Errorf("brand %q", brand))
}
