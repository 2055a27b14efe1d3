package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

const catalogSchema = `
CREATE EXTENSION IF NOT EXISTS pg_trgm;

CREATE TABLE IF NOT EXISTS equipment_catalog (
	id TEXT PRIMARY KEY,
	equipment_type TEXT NOT NULL,
	brand TEXT NOT NULL,
	model TEXT NOT NULL,
	brand_key TEXT NOT NULL,
	model_key TEXT NOT NULL,
	variant DOUBLE PRECISION,
	variant_key TEXT NOT NULL DEFAULT '',
	specs JSONB NOT NULL DEFAULT '{}'::jsonb,
	usage_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_equipment_catalog_identity
	ON equipment_catalog(equipment_type, brand_key, model_key, variant_key);
CREATE INDEX IF NOT EXISTS idx_equipment_catalog_brand_trgm
	ON equipment_catalog USING gin (brand gin_trgm_ops);
CREATE INDEX IF NOT EXISTS idx_equipment_catalog_brand_model_trgm
	ON equipment_catalog USING gin ((brand || ' ' || model) gin_trgm_ops);
`

const catalogColumns = `id, equipment_type, brand, model, variant, specs, usage_count, created_at, updated_at`

type CatalogRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *CatalogRepository) ListBrands(ctx context.Context, equipmentType domain.EquipmentType) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT MIN(brand)
FROM equipment_catalog
WHERE equipment_type = $1
GROUP BY brand_key
ORDER BY COUNT(*) DESC, MIN(brand) ASC
`, string(equipmentType))
	if err != nil {
		return nil, fmt.Errorf("query brands: %w", err)
	}
	return scanStrings(rows)
}

func (r *CatalogRepository) ListModels(ctx context.Context, equipmentType domain.EquipmentType, brand string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT MIN(model)
FROM equipment_catalog
WHERE equipment_type = $1 AND brand_key = $2
GROUP BY model_key
ORDER BY MAX(usage_count) DESC, MIN(model) ASC
`, string(equipmentType), domain.FoldKey(brand))
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	return scanStrings(rows)
}

// Get matches the exact identity. A variant-keyed type queried without a variant
// returns its most used variant.
func (r *CatalogRepository) Get(ctx context.Context, key domain.CatalogKey) (*domain.CatalogEntry, error) {
	var row *sql.Row
	if domain.UsesVariant(key.Type) && key.Variant == nil {
		row = r.db.QueryRowContext(ctx, `
SELECT `+catalogColumns+`
FROM equipment_catalog
WHERE equipment_type = $1 AND brand_key = $2 AND model_key = $3
ORDER BY usage_count DESC, variant_key ASC
LIMIT 1
`, string(key.Type), key.BrandKey(), key.ModelKey())
	} else {
		row = r.db.QueryRowContext(ctx, `
SELECT `+catalogColumns+`
FROM equipment_catalog
WHERE equipment_type = $1 AND brand_key = $2 AND model_key = $3 AND variant_key = $4
`, string(key.Type), key.BrandKey(), key.ModelKey(), key.VariantKey())
	}

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan catalog entry: %w", err)
	}
	return entry, nil
}

func (r *CatalogRepository) FuzzySearch(
	ctx context.Context,
	query string,
	equipmentType domain.EquipmentType,
	limit int,
) ([]domain.CatalogCandidate, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+catalogColumns+`,
	GREATEST(similarity(brand, $1), similarity(brand || ' ' || model, $1)) AS score
FROM equipment_catalog
WHERE equipment_type = $2 AND (brand % $1 OR (brand || ' ' || model) % $1)
ORDER BY score DESC, usage_count DESC
LIMIT $3
`, query, string(equipmentType), limit)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search catalog: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CatalogCandidate, 0, limit)
	for rows.Next() {
		var c domain.CatalogCandidate
		entry, err := scanEntry(rows, &c.Similarity)
		if err != nil {
			return nil, fmt.Errorf("scan fuzzy candidate: %w", err)
		}
		c.Entry = *entry
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fuzzy candidates: %w", err)
	}
	return out, nil
}

// Upsert inserts the entry or merges its specs into the row with the same identity.
func (r *CatalogRepository) Upsert(ctx context.Context, entry domain.CatalogEntry) error {
	specs := entry.Specs
	if specs == nil {
		specs = domain.Specs{}
	}
	specsJSON, err := json.Marshal(specs)
	if err != nil {
		return fmt.Errorf("marshal specs: %w", err)
	}
	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := r.now()
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	var variant sql.NullFloat64
	if domain.UsesVariant(entry.Type) && entry.Variant != nil {
		variant = sql.NullFloat64{Float64: *entry.Variant, Valid: true}
	}
	key := entry.Key()

	_, err = r.db.ExecContext(ctx, `
INSERT INTO equipment_catalog (
	id, equipment_type, brand, model, brand_key, model_key, variant, variant_key, specs, usage_count, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (equipment_type, brand_key, model_key, variant_key) DO UPDATE
SET specs = equipment_catalog.specs || EXCLUDED.specs,
	updated_at = EXCLUDED.updated_at
`,
		id, string(entry.Type), domain.CleanText(entry.Brand), domain.CleanText(entry.Model),
		key.BrandKey(), key.ModelKey(), variant, key.VariantKey(), specsJSON, entry.UsageCount, createdAt, now,
	)
	if err != nil {
		return fmt.Errorf("upsert catalog entry: %w", err)
	}
	return nil
}

func (r *CatalogRepository) IncrementUsage(ctx context.Context, key domain.CatalogKey) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE equipment_catalog
SET usage_count = usage_count + 1, updated_at = $5
WHERE equipment_type = $1 AND brand_key = $2 AND model_key = $3 AND variant_key = $4
`, string(key.Type), key.BrandKey(), key.ModelKey(), key.VariantKey(), r.now())
	if err != nil {
		return fmt.Errorf("increment catalog usage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment catalog usage rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "increment catalog usage", fmt.Errorf("no entry for %s", key.Identity()))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner, extra ...any) (*domain.CatalogEntry, error) {
	var (
		entry     domain.CatalogEntry
		entryType string
		variant   sql.NullFloat64
		specsRaw  []byte
	)
	dest := append([]any{
		&entry.ID, &entryType, &entry.Brand, &entry.Model, &variant, &specsRaw,
		&entry.UsageCount, &entry.CreatedAt, &entry.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	entry.Type = domain.EquipmentType(entryType)
	if variant.Valid {
		v := variant.Float64
		entry.Variant = &v
	}
	entry.Specs = domain.Specs{}
	if len(specsRaw) > 0 {
		if err := json.Unmarshal(specsRaw, &entry.Specs); err != nil {
			return nil, fmt.Errorf("unmarshal specs: %w", err)
		}
	}
	return &entry, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
