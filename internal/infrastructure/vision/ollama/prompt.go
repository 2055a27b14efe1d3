package ollama

import (
	"strings"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

var typeFields = map[domain.EquipmentType][]string{
	domain.EquipmentTank: {
		`"volume": tank volume in liters (integer or null)`,
		`"max_pressure": maximum allowed pressure PS in bar (number or null)`,
		`"temperature": maximum temperature TS in celsius (number or null)`,
	},
	domain.EquipmentCompressor: {
		`"material_number": material or part number (string or null)`,
		`"max_pressure": maximum working pressure in bar (number or null)`,
		`"air_flow": free air delivery in l/min (number or null)`,
	},
	domain.EquipmentOilSeparator: {
		`"volume": volume in liters (integer or null)`,
		`"max_pressure": maximum allowed pressure PS in bar (number or null)`,
	},
	domain.EquipmentDryer: {
		`"max_pressure": maximum pressure in bar (number or null)`,
		`"air_flow": rated flow in l/min (number or null)`,
	},
	domain.EquipmentHeatExchanger: {
		`"max_pressure": maximum allowed pressure PS in bar (number or null)`,
		`"volume": volume in liters (integer or null)`,
	},
	domain.EquipmentSafetyValve: {
		`"set_pressure": set pressure in bar (number or null)`,
		`"diameter": connection diameter as printed, e.g. 1/2" (string or null)`,
		`"temperature": maximum temperature in celsius (number or null)`,
		`"air_flow": discharge capacity in l/min (number or null)`,
	},
	domain.EquipmentFilterVessel: {
		`"volume": volume in liters (integer or null)`,
		`"max_pressure": maximum allowed pressure PS in bar (number or null)`,
	},
	domain.EquipmentOther: {
		`"device_kind": what kind of device this is (string or null)`,
	},
}

func buildNameplatePrompt(equipmentType domain.EquipmentType) string {
	fields := []string{
		`"brand": manufacturer brand (string or null)`,
		`"model": model designation (string or null)`,
		`"serial_number": serial or factory number (string or null)`,
		`"year": year of manufacture (integer or null)`,
	}
	fields = append(fields, typeFields[equipmentType]...)
	fields = append(fields,
		`"raw_text": all visible text on the nameplate (string)`,
		`"field_confidence": object mapping each extracted key to a confidence from 0 to 1`,
	)

	var b strings.Builder
	b.WriteString("Read the nameplate of this ")
	b.WriteString(string(equipmentType))
	b.WriteString(" and extract every visible value.\n")
	b.WriteString("Return one JSON object with these keys:\n")
	for _, field := range fields {
		b.WriteString("- ")
		b.WriteString(field)
		b.WriteString("\n")
	}
	b.WriteString(`Rules:
- Return only JSON, no markdown.
- Use null for anything that cannot be read clearly.
- Write numbers without units ("13" not "13 bar").
- Copy brand and model exactly as printed.
`)
	return b.String()
}
