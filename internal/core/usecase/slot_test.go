package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

func TestParseSlot(t *testing.T) {
	cases := []struct {
		label  string
		typ    domain.EquipmentType
		index  int
		parent *int
		code   string
	}{
		{"S1", domain.EquipmentTank, 0, nil, "S1"},
		{"sep3", domain.EquipmentSeparator, 2, nil, "SEP3"},
		{"C2.1", domain.EquipmentOilSeparator, 0, intPtr(1), "C2.1"},
		{"E1.3", domain.EquipmentHeatExchanger, 2, intPtr(0), "E1.3"},
		{" F12.jpeg ", domain.EquipmentFilter, 11, nil, "F12"},
		{"uploads/C3.2.png", domain.EquipmentOilSeparator, 1, intPtr(2), "C3.2"},
		{"E4", domain.EquipmentDryer, 3, nil, "E4"},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			got, err := ParseSlot(tc.label)
			require.NoError(t, err)
			assert.Equal(t, tc.typ, got.Type)
			assert.Equal(t, tc.index, got.Index)
			assert.Equal(t, tc.parent, got.ParentIndex)
			assert.Equal(t, tc.code, got.Code())
		})
	}
}

func TestParseSlotParentCode(t *testing.T) {
	child, err := ParseSlot("C2.1")
	require.NoError(t, err)
	assert.Equal(t, "C2", child.ParentCode())

	top, err := ParseSlot("C2")
	require.NoError(t, err)
	assert.Empty(t, top.ParentCode())
}

func TestParseSlotMalformed(t *testing.T) {
	for _, label := range []string{"X1", "F1.1", "S1.1", "SEP1.2", "S0", "C1.0", "S", "1", "", "S-1", "C1..2"} {
		t.Run(label, func(t *testing.T) {
			_, err := ParseSlot(label)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedLabel))

			var labelErr *domain.LabelError
			require.ErrorAs(t, err, &labelErr)
			assert.Equal(t, label, labelErr.Label)
			assert.NotEmpty(t, labelErr.Reason)
		})
	}
}

func TestParseSlotsContinuesPastBadLabels(t *testing.T) {
	batch := ParseSlots([]string{"S1", "X1", "C1.1", "F1.1"})

	assert.Equal(t, 2, batch.Valid)
	assert.Equal(t, 2, batch.Invalid)
	require.Len(t, batch.Results, 4)
	assert.NotNil(t, batch.Results[0].Slot)
	assert.ErrorIs(t, batch.Results[1].Err, domain.ErrMalformedLabel)
	assert.Equal(t, domain.EquipmentOilSeparator, batch.Results[2].Slot.Type)
	assert.NotEmpty(t, batch.Results[3].Error)
}

func TestSortCodesNaturalOrder(t *testing.T) {
	codes := []string{"S10", "S2", "S1"}
	SortCodes(codes)
	assert.Equal(t, []string{"S1", "S2", "S10"}, codes)

	codes = []string{"C1.2", "C1.1"}
	SortCodes(codes)
	assert.Equal(t, []string{"C1.1", "C1.2"}, codes)

	codes = []string{"S2", "C1.1", "C1", "SEP1", "C10", "E1.1", "C2"}
	SortCodes(codes)
	assert.Equal(t, []string{"C1", "C1.1", "C2", "C10", "E1.1", "S2", "SEP1"}, codes)
}
