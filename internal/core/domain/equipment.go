package domain

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

type EquipmentType string

const (
	EquipmentTank          EquipmentType = "Tank"
	EquipmentCompressor    EquipmentType = "Compressor"
	EquipmentOilSeparator  EquipmentType = "OilSeparator"
	EquipmentDryer         EquipmentType = "Dryer"
	EquipmentHeatExchanger EquipmentType = "HeatExchanger"
	EquipmentFilter        EquipmentType = "Filter"
	EquipmentSeparator     EquipmentType = "Separator"
	EquipmentSafetyValve   EquipmentType = "SafetyValve"
	EquipmentFilterVessel  EquipmentType = "FilterVessel"
	EquipmentOther         EquipmentType = "Other"
)

var equipmentTypes = []EquipmentType{
	EquipmentTank,
	EquipmentCompressor,
	EquipmentOilSeparator,
	EquipmentDryer,
	EquipmentHeatExchanger,
	EquipmentFilter,
	EquipmentSeparator,
	EquipmentSafetyValve,
	EquipmentFilterVessel,
	EquipmentOther,
}

// EquipmentTypes returns every known type in declaration order.
func EquipmentTypes() []EquipmentType {
	out := make([]EquipmentType, len(equipmentTypes))
	copy(out, equipmentTypes)
	return out
}

// ParseEquipmentType accepts the canonical name in any letter case.
func ParseEquipmentType(raw string) (EquipmentType, error) {
	trimmed := strings.TrimSpace(raw)
	for _, t := range equipmentTypes {
		if strings.EqualFold(string(t), trimmed) {
			return t, nil
		}
	}
	return "", WrapError(ErrUnsupportedEquipmentType, "parse equipment type", fmt.Errorf("unknown type %q", raw))
}

func (t EquipmentType) Valid() bool {
	for _, known := range equipmentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParentType reports the owning type of a child equipment type.
func (t EquipmentType) ParentType() (EquipmentType, bool) {
	switch t {
	case EquipmentOilSeparator:
		return EquipmentCompressor, true
	case EquipmentHeatExchanger:
		return EquipmentDryer, true
	default:
		return "", false
	}
}

// FilingEligible marks the pressure vessels that can enter a filing summary.
func (t EquipmentType) FilingEligible() bool {
	switch t {
	case EquipmentTank, EquipmentHeatExchanger, EquipmentOilSeparator, EquipmentFilterVessel:
		return true
	default:
		return false
	}
}

// Field names shared by instances, nameplate readings and checklists.
const (
	FieldDeviceKind     = "device_kind"
	FieldBrand          = "brand"
	FieldModel          = "model"
	FieldSerialNumber   = "serial_number"
	FieldMaterialNumber = "material_number"
	FieldYear           = "year"
	FieldVolume         = "volume"
	FieldMaxPressure    = "max_pressure"
	FieldTemperature    = "temperature"
	FieldAirFlow        = "air_flow"
	FieldSetPressure    = "set_pressure"
	FieldDiameter       = "diameter"
	FieldPEDCategory    = "ped_category"
)

// EquipmentInstance is one physical unit on a technical sheet.
type EquipmentInstance struct {
	Type           EquipmentType `json:"type"`
	Code           string        `json:"code"`
	ParentCode     string        `json:"parent_code,omitempty"`
	DeviceKind     string        `json:"device_kind,omitempty"`
	Brand          string        `json:"brand,omitempty"`
	Model          string        `json:"model,omitempty"`
	SerialNumber   string        `json:"serial_number,omitempty"`
	MaterialNumber string        `json:"material_number,omitempty"`
	Year           *int          `json:"year,omitempty"`
	Volume         *float64      `json:"volume,omitempty"`
	MaxPressure    *float64      `json:"max_pressure,omitempty"`
	Temperature    *float64      `json:"temperature,omitempty"`
	AirFlow        *float64      `json:"air_flow,omitempty"`
	SetPressure    *float64      `json:"set_pressure,omitempty"`
	Diameter       string        `json:"diameter,omitempty"`
	PEDCategory    string        `json:"ped_category,omitempty"`
	Notes          string        `json:"notes,omitempty"`
}

// FieldValue returns the current value of a named field or nil when unset.
func (e *EquipmentInstance) FieldValue(name string) any {
	if e == nil {
		return nil
	}
	switch name {
	case FieldDeviceKind:
		return e.DeviceKind
	case FieldBrand:
		return e.Brand
	case FieldModel:
		return e.Model
	case FieldSerialNumber:
		return e.SerialNumber
	case FieldMaterialNumber:
		return e.MaterialNumber
	case FieldYear:
		if e.Year == nil {
			return nil
		}
		return *e.Year
	case FieldVolume:
		return floatOrNil(e.Volume)
	case FieldMaxPressure:
		return floatOrNil(e.MaxPressure)
	case FieldTemperature:
		return floatOrNil(e.Temperature)
	case FieldAirFlow:
		return floatOrNil(e.AirFlow)
	case FieldSetPressure:
		return floatOrNil(e.SetPressure)
	case FieldDiameter:
		return e.Diameter
	case FieldPEDCategory:
		return e.PEDCategory
	default:
		return nil
	}
}

// VariantValue is the numeric spec that belongs to the catalog identity of this type.
func (e *EquipmentInstance) VariantValue() *float64 {
	if e == nil {
		return nil
	}
	switch e.Type {
	case EquipmentCompressor:
		return e.MaxPressure
	case EquipmentSafetyValve:
		return e.SetPressure
	default:
		return nil
	}
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// IsFilled applies the "has a usable value" rule used across the engine.
func IsFilled(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case *string:
		return val != nil && strings.TrimSpace(*val) != ""
	case float64:
		return !math.IsNaN(val)
	case *float64:
		return val != nil && !math.IsNaN(*val)
	case float32:
		return !math.IsNaN(float64(val))
	case int, int32, int64:
		return true
	case *int:
		return val != nil
	case bool:
		return val
	case []string:
		return len(val) > 0
	case []any:
		return len(val) > 0
	default:
		return reflectFilled(reflect.ValueOf(v))
	}
}

// reflectFilled covers named kinds and collections decoded from JSONB or YAML.
// Structs, channels and funcs carry no field value and count as empty.
func reflectFilled(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Invalid:
		return false
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return reflectFilled(rv.Elem())
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.String:
		return strings.TrimSpace(rv.String()) != ""
	case reflect.Float32, reflect.Float64:
		return !math.IsNaN(rv.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	case reflect.Bool:
		return rv.Bool()
	default:
		return false
	}
}

// Cataloged reports whether the reference catalog has entries for the type.
func (t EquipmentType) Cataloged() bool {
	return t.Valid() && t != EquipmentOther
}
