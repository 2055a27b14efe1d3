package usecase

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

var (
	labelPattern     = regexp.MustCompile(`^([A-Z]+)(\d+)(?:\.(\d+))?$`)
	codePattern      = regexp.MustCompile(`^([A-Z]+)(\d+)(?:\.(\d+))?`)
	extensionPattern = regexp.MustCompile(`\.[A-Za-z][A-Za-z0-9]*$`)
)

var prefixTypes = map[string]domain.EquipmentType{
	"S":   domain.EquipmentTank,
	"C":   domain.EquipmentCompressor,
	"E":   domain.EquipmentDryer,
	"F":   domain.EquipmentFilter,
	"SEP": domain.EquipmentSeparator,
}

var childTypes = map[string]domain.EquipmentType{
	"C": domain.EquipmentOilSeparator,
	"E": domain.EquipmentHeatExchanger,
}

// ParseSlot resolves a label such as "S1", "SEP3" or "C2.1.jpg" to its slot.
// Failures are *domain.LabelError values wrapping domain.ErrMalformedLabel.
func ParseSlot(label string) (domain.Slot, error) {
	name := strings.TrimSpace(label)
	if name == "" {
		return domain.Slot{}, &domain.LabelError{Label: label, Reason: "empty label"}
	}
	name = extensionPattern.ReplaceAllString(filepath.Base(name), "")
	name = strings.ToUpper(strings.TrimSpace(name))

	m := labelPattern.FindStringSubmatch(name)
	if m == nil {
		return domain.Slot{}, &domain.LabelError{Label: label, Reason: "expected <PREFIX><n> or <PREFIX><n>.<m>"}
	}
	prefix, primary, secondary := m[1], m[2], m[3]

	parentType, ok := prefixTypes[prefix]
	if !ok {
		return domain.Slot{}, &domain.LabelError{Label: label, Reason: "unknown prefix " + strconv.Quote(prefix)}
	}
	n, err := oneBased(primary)
	if err != nil {
		return domain.Slot{}, &domain.LabelError{Label: label, Reason: err.Error()}
	}
	if secondary == "" {
		return domain.Slot{Label: label, Type: parentType, Index: n - 1}, nil
	}

	childType, ok := childTypes[prefix]
	if !ok {
		return domain.Slot{}, &domain.LabelError{Label: label, Reason: "prefix " + strconv.Quote(prefix) + " has no child equipment"}
	}
	child, err := oneBased(secondary)
	if err != nil {
		return domain.Slot{}, &domain.LabelError{Label: label, Reason: err.Error()}
	}
	parentIndex := n - 1
	return domain.Slot{Label: label, Type: childType, Index: child - 1, ParentIndex: &parentIndex}, nil
}

func oneBased(digits string) (int, error) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("index %s out of range", digits)
	}
	if n < 1 {
		return 0, fmt.Errorf("index %s must start at 1", digits)
	}
	return n, nil
}

// ParseSlots parses every label and keeps going past malformed ones.
func ParseSlots(labels []string) domain.SlotBatch {
	batch := domain.SlotBatch{Results: make([]domain.SlotResult, 0, len(labels))}
	for _, label := range labels {
		slot, err := ParseSlot(label)
		if err != nil {
			batch.Invalid++
			batch.Results = append(batch.Results, domain.SlotResult{Label: label, Err: err, Error: err.Error()})
			continue
		}
		batch.Valid++
		batch.Results = append(batch.Results, domain.SlotResult{Label: label, Slot: &slot})
	}
	return batch
}

// CompareCodes orders instance codes by prefix, then primary and secondary number.
// A missing secondary number sorts first. Codes that do not parse fall back to string order after valid ones.
func CompareCodes(a, b string) int {
	ma := codePattern.FindStringSubmatch(a)
	mb := codePattern.FindStringSubmatch(b)
	switch {
	case ma == nil && mb == nil:
		return strings.Compare(a, b)
	case ma == nil:
		return 1
	case mb == nil:
		return -1
	}
	if c := strings.Compare(ma[1], mb[1]); c != 0 {
		return c
	}
	if c := compareInts(atoiOrZero(ma[2]), atoiOrZero(mb[2])); c != 0 {
		return c
	}
	return compareInts(atoiOrZero(ma[3]), atoiOrZero(mb[3]))
}

func SortCodes(codes []string) {
	sort.SliceStable(codes, func(i, j int) bool { return CompareCodes(codes[i], codes[j]) < 0 })
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
