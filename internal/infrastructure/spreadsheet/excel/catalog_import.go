package excel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
)

var catalogSheets = []string{"Models", "Modelli"}

// sheetTypes maps the type labels used in supplier model lists.
var sheetTypes = map[string]domain.EquipmentType{
	"serbatoio aria verticale":              domain.EquipmentTank,
	"serbatoio aria orizzontale":            domain.EquipmentTank,
	"serbatoio disoleatore":                 domain.EquipmentOilSeparator,
	"compressore":                           domain.EquipmentCompressor,
	"compressore con essiccatore integrato": domain.EquipmentCompressor,
	"compressore alta pressione - booster":  domain.EquipmentCompressor,
	"essiccatore frigorifero":               domain.EquipmentDryer,
	"scambiatore di calore":                 domain.EquipmentHeatExchanger,
	"filtro":                                domain.EquipmentFilter,
	"separatore di condense":                domain.EquipmentSeparator,
	"valvola di sicurezza":                  domain.EquipmentSafetyValve,
}

type column int

const (
	colType column = iota
	colBrand
	colModel
	colFlow
	colPressure
	colTemperature
	colPED
)

var headerAliases = map[string]column{
	"type":            colType,
	"tipo":            colType,
	"brand":           colBrand,
	"marca":           colBrand,
	"model":           colModel,
	"modello":         colModel,
	"v/fad":           colFlow,
	"v(l)/fad(l/min)": colFlow,
	"ps/ptar":         colPressure,
	"ps/ptar(bar)":    colPressure,
	"ts":              colTemperature,
	"ts(°c)":          colTemperature,
	"ped_cat":         colPED,
	"cat_ped":         colPED,
}

// SkippedRow explains why a sheet row was not imported. Row is 1-based as in the sheet.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportReport struct {
	Rows     int                          `json:"rows"`
	Imported int                          `json:"imported"`
	Failed   int                          `json:"failed"`
	Skipped  []SkippedRow                 `json:"skipped"`
	ByType   map[domain.EquipmentType]int `json:"by_type"`
}

type CatalogImporter struct {
	catalog ports.CatalogStore
}

func NewCatalogImporter(catalog ports.CatalogStore) *CatalogImporter {
	return &CatalogImporter{catalog: catalog}
}

// Import upserts every valid row of the model list. A failed upsert is counted
// and logged; cancellation stops the import.
func (i *CatalogImporter) Import(ctx context.Context, r io.Reader) (*ImportReport, error) {
	entries, report, err := ParseCatalog(r)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := i.catalog.Upsert(ctx, entry); err != nil {
			report.Failed++
			slog.Warn("catalog_import_row_failed",
				"type", entry.Type, "brand", entry.Brand, "model", entry.Model, "error", err)
			continue
		}
		report.Imported++
		report.ByType[entry.Type]++
	}
	return report, nil
}

// ParseCatalog reads the model list sheet into catalog entries.
func ParseCatalog(r io.Reader) ([]domain.CatalogEntry, *ImportReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "open catalog workbook", err)
	}
	defer f.Close()

	sheet := ""
	for _, name := range f.GetSheetList() {
		for _, wanted := range catalogSheets {
			if strings.EqualFold(name, wanted) {
				sheet = name
			}
		}
	}
	if sheet == "" {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "open catalog workbook",
			fmt.Errorf("sheet %q not found", catalogSheets[0]))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "read catalog sheet", errors.New("sheet is empty"))
	}

	columns := make(map[column]int)
	for idx, header := range rows[0] {
		if c, ok := headerAliases[strings.ToLower(strings.ReplaceAll(strings.TrimSpace(header), " ", ""))]; ok {
			columns[c] = idx
		}
	}
	for _, required := range []column{colType, colBrand, colModel} {
		if _, ok := columns[required]; !ok {
			return nil, nil, domain.WrapError(domain.ErrInvalidInput, "read catalog sheet",
				errors.New("header must name type, brand and model columns"))
		}
	}

	report := &ImportReport{ByType: make(map[domain.EquipmentType]int)}
	entries := make([]domain.CatalogEntry, 0, len(rows)-1)
	for n, row := range rows[1:] {
		rowNum := n + 2
		cell := func(c column) string {
			idx, ok := columns[c]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if strings.Join(row, "") == "" {
			continue
		}
		report.Rows++

		typeLabel, brand, model := cell(colType), cell(colBrand), cell(colModel)
		if typeLabel == "" || brand == "" || model == "" {
			report.Skipped = append(report.Skipped, SkippedRow{Row: rowNum, Reason: "type, brand and model are required"})
			continue
		}
		equipmentType, ok := resolveType(typeLabel)
		if !ok {
			report.Skipped = append(report.Skipped, SkippedRow{Row: rowNum, Reason: fmt.Sprintf("unknown type %q", typeLabel)})
			continue
		}

		entry := domain.CatalogEntry{Type: equipmentType, Brand: brand, Model: model, Specs: domain.Specs{}}
		fillSpecs(&entry, cell(colFlow), cell(colPressure), cell(colTemperature), cell(colPED))
		entries = append(entries, entry)
	}
	return entries, report, nil
}

func resolveType(label string) (domain.EquipmentType, bool) {
	if t, ok := sheetTypes[strings.ToLower(domain.CleanText(label))]; ok {
		return t, true
	}
	t, err := domain.ParseEquipmentType(label)
	if err != nil || !t.Cataloged() {
		return "", false
	}
	return t, true
}

// fillSpecs places the shared sheet columns into the spec fields of the type.
func fillSpecs(entry *domain.CatalogEntry, flow, pressure, temperature, ped string) {
	var flowField, pressureField, temperatureField string
	switch entry.Type {
	case domain.EquipmentTank, domain.EquipmentOilSeparator, domain.EquipmentHeatExchanger, domain.EquipmentFilterVessel:
		flowField, pressureField, temperatureField = "volume", "ps", "ts"
		if ped != "" {
			entry.Specs["ped_category"] = strings.ToUpper(ped)
		}
	case domain.EquipmentCompressor:
		flowField, pressureField = "fad", "pressure_max"
	case domain.EquipmentDryer:
		flowField, pressureField = "q", "ps"
	case domain.EquipmentSafetyValve:
		flowField, pressureField, temperatureField = "qmax", "ptar", "ts"
	default:
		return
	}

	if v, ok := parseNumber(flow); ok && flowField != "" {
		entry.Specs[flowField] = v
	}
	if v, ok := parseNumber(pressure); ok {
		entry.Specs[pressureField] = v
		if domain.UsesVariant(entry.Type) {
			entry.Variant = &v
		}
	}
	if v, ok := parseNumber(temperature); ok && temperatureField != "" {
		entry.Specs[temperatureField] = v
	}
}

func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
