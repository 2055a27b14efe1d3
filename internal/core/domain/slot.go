package domain

import "strconv"

// Slot is the resolved target of an equipment label. Indices are 0-based.
type Slot struct {
	Label       string        `json:"label"`
	Type        EquipmentType `json:"equipment_type"`
	Index       int           `json:"index"`
	ParentIndex *int          `json:"parent_index,omitempty"`
}

// Code renders the instance code the slot addresses, e.g. "S1" or "C2.1".
func (s Slot) Code() string {
	if parent, ok := s.Type.ParentType(); ok && s.ParentIndex != nil {
		return SlotPrefix(parent) + strconv.Itoa(*s.ParentIndex+1) + "." + strconv.Itoa(s.Index+1)
	}
	return SlotPrefix(s.Type) + strconv.Itoa(s.Index+1)
}

// ParentCode is the code of the owning instance, empty for top-level slots.
func (s Slot) ParentCode() string {
	parent, ok := s.Type.ParentType()
	if !ok || s.ParentIndex == nil {
		return ""
	}
	return SlotPrefix(parent) + strconv.Itoa(*s.ParentIndex+1)
}

// SlotPrefix is the label prefix of a top-level type.
func SlotPrefix(t EquipmentType) string {
	switch t {
	case EquipmentTank:
		return "S"
	case EquipmentCompressor:
		return "C"
	case EquipmentDryer:
		return "E"
	case EquipmentFilter:
		return "F"
	case EquipmentSeparator:
		return "SEP"
	default:
		return ""
	}
}

type SlotResult struct {
	Label string `json:"label"`
	Slot  *Slot  `json:"slot,omitempty"`
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

type SlotBatch struct {
	Results []SlotResult `json:"results"`
	Valid   int          `json:"valid"`
	Invalid int          `json:"invalid"`
}
