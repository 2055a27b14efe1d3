package ports

import (
	"context"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

// EquipmentNormalizer is the inbound contract for brand/model resolution.
type EquipmentNormalizer interface {
	Normalize(ctx context.Context, equipmentType domain.EquipmentType, rawBrand, rawModel string) (*domain.NormalizedEquipment, error)
}

// CatalogReconciler compares submitted specs and applies confirmed updates.
type CatalogReconciler interface {
	Compare(ctx context.Context, instance domain.EquipmentInstance) (*domain.CatalogUpdate, error)
	Apply(ctx context.Context, update domain.CatalogUpdate) error
	RegisterVariant(ctx context.Context, instance domain.EquipmentInstance) (*domain.CatalogEntry, error)
	Review(ctx context.Context, instances []domain.EquipmentInstance) (*domain.CatalogReview, error)
}

// FilingReadinessChecker loads entities and validates them before a filing.
type FilingReadinessChecker interface {
	Check(ctx context.Context, customerID, installerID string, instances []domain.EquipmentInstance) (*domain.FilingReadiness, error)
}

// FilingSummarizer classifies the vessels of a sheet into a filing summary.
type FilingSummarizer interface {
	Summary(ctx context.Context, instances []domain.EquipmentInstance) (*domain.FilingSummary, error)
}

// IntakeProcessor runs one nameplate reading through the engine.
type IntakeProcessor interface {
	Process(ctx context.Context, req domain.IntakeRequest) (*domain.IntakeResult, error)
	ProcessBatch(ctx context.Context, reqs []domain.IntakeRequest) ([]*domain.IntakeResult, error)
}
