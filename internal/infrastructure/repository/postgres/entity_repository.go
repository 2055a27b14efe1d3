package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

const entitySchema = `
CREATE TABLE IF NOT EXISTS customers (
	id TEXT PRIMARY KEY,
	company_name TEXT NOT NULL DEFAULT '',
	street TEXT NOT NULL DEFAULT '',
	house_number TEXT NOT NULL DEFAULT '',
	postal_code TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	province TEXT NOT NULL DEFAULT '',
	telephone TEXT NOT NULL DEFAULT '',
	certified_email TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS installers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	tax_id TEXT NOT NULL DEFAULT '',
	street TEXT NOT NULL DEFAULT '',
	house_number TEXT NOT NULL DEFAULT '',
	postal_code TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	province TEXT NOT NULL DEFAULT '',
	telephone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS manufacturers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	brand_key TEXT NOT NULL DEFAULT '',
	is_foreign BOOLEAN NOT NULL DEFAULT FALSE,
	country TEXT NOT NULL DEFAULT '',
	tax_id TEXT NOT NULL DEFAULT '',
	telephone TEXT NOT NULL DEFAULT '',
	street TEXT NOT NULL DEFAULT '',
	house_number TEXT NOT NULL DEFAULT '',
	postal_code TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	province TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_manufacturers_brand_key ON manufacturers(brand_key);
`

// EntityRepository reads customers, installers and manufacturers. It never writes them.
type EntityRepository struct {
	db *sql.DB
}

func NewEntityRepository(db *sql.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

func (r *EntityRepository) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, company_name, street, house_number, postal_code, city, province, telephone, certified_email
FROM customers
WHERE id = $1
`, id)

	var c domain.Customer
	err := row.Scan(
		&c.ID, &c.CompanyName, &c.Street, &c.HouseNumber, &c.PostalCode, &c.City, &c.Province,
		&c.Telephone, &c.CertifiedEmail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get customer", fmt.Errorf("customer %s", id))
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return &c, nil
}

func (r *EntityRepository) GetInstaller(ctx context.Context, id string) (*domain.Installer, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, tax_id, street, house_number, postal_code, city, province, telephone, email
FROM installers
WHERE id = $1
`, id)

	var i domain.Installer
	err := row.Scan(
		&i.ID, &i.Name, &i.TaxID, &i.Street, &i.HouseNumber, &i.PostalCode, &i.City, &i.Province,
		&i.Telephone, &i.Email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get installer", fmt.Errorf("installer %s", id))
		}
		return nil, fmt.Errorf("scan installer: %w", err)
	}
	return &i, nil
}

// FindManufacturerByBrand prefers an explicit brand mapping over a name match.
func (r *EntityRepository) FindManufacturerByBrand(ctx context.Context, brand string) (domain.Manufacturer, error) {
	key := domain.FoldKey(brand)
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, is_foreign, country, tax_id, telephone, street, house_number, postal_code, city, province
FROM manufacturers
WHERE brand_key = $1 OR lower(name) = $1
ORDER BY (brand_key = $1) DESC, id ASC
LIMIT 1
`, key)

	var (
		id, name, country, taxID, telephone string
		foreign                             bool
		addr                                domain.Address
	)
	err := row.Scan(
		&id, &name, &foreign, &country, &taxID, &telephone,
		&addr.Street, &addr.HouseNumber, &addr.PostalCode, &addr.City, &addr.Province,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "find manufacturer", fmt.Errorf("brand %q", brand))
		}
		return nil, fmt.Errorf("scan manufacturer: %w", err)
	}
	if foreign {
		return domain.ForeignManufacturer{ID: id, Name: name, Country: country}, nil
	}
	return domain.DomesticManufacturer{ID: id, Name: name, TaxID: taxID, Telephone: telephone, Address: addr}, nil
}
