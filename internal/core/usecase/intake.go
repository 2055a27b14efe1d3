package usecase

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
)

const defaultIntakeConcurrency = 4

type IntakeUseCase struct {
	normalizer  ports.EquipmentNormalizer
	reader      ports.NameplateReader
	photos      ports.PhotoArchive
	concurrency int
	now         func() time.Time
}

// NewIntakeUseCase builds the intake pipeline. reader may be nil when requests always carry readings.
func NewIntakeUseCase(normalizer ports.EquipmentNormalizer, reader ports.NameplateReader, concurrency int) *IntakeUseCase {
	if concurrency <= 0 {
		concurrency = defaultIntakeConcurrency
	}
	return &IntakeUseCase{
		normalizer:  normalizer,
		reader:      reader,
		concurrency: concurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithPhotoArchive stores every submitted photo before it is read.
func (uc *IntakeUseCase) WithPhotoArchive(archive ports.PhotoArchive) *IntakeUseCase {
	uc.photos = archive
	return uc
}

// Process resolves the slot, normalizes brand/model, checks conflicts and proposes
// the instance. A malformed label yields a rejected result rather than an error.
func (uc *IntakeUseCase) Process(ctx context.Context, req domain.IntakeRequest) (*domain.IntakeResult, error) {
	result := &domain.IntakeResult{
		RequestID: req.ID,
		Label:     req.Label,
	}

	slot, err := ParseSlot(req.Label)
	if err != nil {
		result.Status = domain.IntakeRejected
		result.Error = err.Error()
		result.ProcessedAt = uc.now()
		return result, nil
	}
	result.Slot = &slot
	result.PhotoKey, result.PhotoError = uc.archivePhoto(ctx, slot, req)

	reading, err := uc.reading(ctx, slot.Type, req)
	if err != nil {
		return nil, err
	}

	normalized, err := uc.normalizer.Normalize(ctx, slot.Type, reading.Brand, reading.Model)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", slot.Code(), err)
	}
	result.Normalized = normalized
	result.BrandTier = normalized.Brand.Tier()
	result.ModelTier = normalized.Model.Tier()

	conflict, err := DetectConflicts(req.Existing, reading, slot.Type)
	if err != nil {
		return nil, fmt.Errorf("detect conflicts %s: %w", slot.Code(), err)
	}
	result.Conflict = &conflict

	proposed := proposeInstance(slot, req.Existing, reading, normalized)
	result.Proposed = &proposed
	if proposed.Type.FilingEligible() {
		result.FilingCategory = ClassifyFiling(proposed.Volume, proposed.MaxPressure)
		result.PEDCategory = ClassifyPED(proposed.MaxPressure, proposed.Volume)
	}

	result.Status = domain.IntakeResolved
	result.ProcessedAt = uc.now()
	return result, nil
}

// ProcessBatch runs independent requests concurrently and keeps input order.
func (uc *IntakeUseCase) ProcessBatch(ctx context.Context, reqs []domain.IntakeRequest) ([]*domain.IntakeResult, error) {
	results := make([]*domain.IntakeResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for i := range reqs {
		g.Go(func() error {
			res, err := uc.Process(gctx, reqs[i])
			if err != nil {
				return fmt.Errorf("request %q: %w", reqs[i].Label, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// archivePhoto returns the key of the stored photo, or the reason it was not stored.
// Archive failures never block an intake.
func (uc *IntakeUseCase) archivePhoto(ctx context.Context, slot domain.Slot, req domain.IntakeRequest) (string, string) {
	if uc.photos == nil || len(req.Image) == 0 {
		return "", ""
	}
	owner := req.ID
	if owner == "" {
		owner = "unassigned"
	}
	key := fmt.Sprintf("requests/%s/%d_%s%s", owner, uc.now().UnixMilli(), slot.Code(), photoExtension(req.Image))
	if err := uc.photos.SavePhoto(ctx, key, req.Image); err != nil {
		return "", err.Error()
	}
	return key, ""
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func photoExtension(image []byte) string {
	if bytes.HasPrefix(image, pngSignature) {
		return ".png"
	}
	return ".jpg"
}

func (uc *IntakeUseCase) reading(ctx context.Context, equipmentType domain.EquipmentType, req domain.IntakeRequest) (*domain.NameplateReading, error) {
	if req.Reading != nil {
		return req.Reading, nil
	}
	if len(req.Image) == 0 {
		return &domain.NameplateReading{}, nil
	}
	if uc.reader == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read nameplate", fmt.Errorf("no nameplate reader configured"))
	}
	reading, err := uc.reader.ReadNameplate(ctx, equipmentType, req.Image)
	if err != nil {
		return nil, fmt.Errorf("read nameplate: %w", err)
	}
	if reading == nil {
		return &domain.NameplateReading{}, nil
	}
	return reading, nil
}

// proposeInstance overlays the reading on the existing record. Brand and model only
// take the catalog value when it can be applied without confirmation.
func proposeInstance(
	slot domain.Slot,
	existing *domain.EquipmentInstance,
	reading *domain.NameplateReading,
	normalized *domain.NormalizedEquipment,
) domain.EquipmentInstance {
	var proposed domain.EquipmentInstance
	if existing != nil {
		proposed = *existing
	}
	proposed.Type = slot.Type
	proposed.Code = slot.Code()
	proposed.ParentCode = slot.ParentCode()

	if v := proposedValue(normalized.Brand); v != "" {
		proposed.Brand = v
	}
	if v := proposedValue(normalized.Model); v != "" {
		proposed.Model = v
	}
	overlayString(&proposed.DeviceKind, reading.DeviceKind)
	overlayString(&proposed.SerialNumber, reading.SerialNumber)
	overlayString(&proposed.MaterialNumber, reading.MaterialNumber)
	overlayString(&proposed.Diameter, reading.Diameter)
	if reading.Year != nil {
		proposed.Year = reading.Year
	}
	overlayFloat(&proposed.Volume, reading.Volume)
	overlayFloat(&proposed.MaxPressure, reading.MaxPressure)
	overlayFloat(&proposed.Temperature, reading.Temperature)
	overlayFloat(&proposed.AirFlow, reading.AirFlow)
	overlayFloat(&proposed.SetPressure, reading.SetPressure)
	return proposed
}

func proposedValue(f domain.ExtractedField) string {
	if f.Tier() == domain.TierAutoApply {
		return f.NormalizedValue
	}
	return domain.CleanText(f.OriginalValue)
}

func overlayString(dst *string, v string) {
	if cleaned := domain.CleanText(v); cleaned != "" {
		*dst = cleaned
	}
}

func overlayFloat(dst **float64, v *float64) {
	if domain.IsFilled(v) {
		*dst = v
	}
}
