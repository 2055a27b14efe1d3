package ports

import (
	"context"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

// CatalogStore reads and merges reference catalog entries.
type CatalogStore interface {
	ListBrands(ctx context.Context, equipmentType domain.EquipmentType) ([]string, error)
	ListModels(ctx context.Context, equipmentType domain.EquipmentType, brand string) ([]string, error)
	// Get returns nil, nil when no entry carries the key.
	Get(ctx context.Context, key domain.CatalogKey) (*domain.CatalogEntry, error)
	FuzzySearch(ctx context.Context, query string, equipmentType domain.EquipmentType, limit int) ([]domain.CatalogCandidate, error)
	// Upsert merges entry specs into the row with the same identity in one atomic write.
	Upsert(ctx context.Context, entry domain.CatalogEntry) error
	IncrementUsage(ctx context.Context, key domain.CatalogKey) error
}

// Similarity scores two strings between 0 (unrelated) and 1 (identical).
type Similarity interface {
	Similarity(a, b string) float64
}

// EntityReader loads business entities for completeness checks.
type EntityReader interface {
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	GetInstaller(ctx context.Context, id string) (*domain.Installer, error)
	FindManufacturerByBrand(ctx context.Context, brand string) (domain.Manufacturer, error)
}

// NameplateReader turns a nameplate photo into a reading for the given type.
type NameplateReader interface {
	ReadNameplate(ctx context.Context, equipmentType domain.EquipmentType, image []byte) (*domain.NameplateReading, error)
}

// IntakeQueue consumes intake requests and publishes their results.
type IntakeQueue interface {
	PublishIntakeResult(ctx context.Context, result *domain.IntakeResult) error
	SubscribeIntakeRequests(ctx context.Context, handler func(context.Context, domain.IntakeRequest) error) error
}

// PhotoArchive keeps the nameplate photos an intake was read from.
type PhotoArchive interface {
	SavePhoto(ctx context.Context, key string, image []byte) error
}
