package usecase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

func TestClassifyFilingDecisionTable(t *testing.T) {
	cases := []struct {
		name     string
		volume   *float64
		pressure *float64
		want     domain.FilingCategory
	}{
		{"small vessel", f64(24.9), f64(30), domain.FilingNone},
		{"just under 50 l at 12 bar", f64(49.999), f64(12), domain.FilingNone},
		{"mid volume low pressure", f64(30), f64(11.9), domain.FilingNone},
		{"declaration at pressure limit", f64(50), f64(12), domain.FilingDeclaration},
		{"declaration product exactly 8000", f64(800), f64(10), domain.FilingDeclaration},
		{"large vessel low pressure", f64(1000), f64(8.5), domain.FilingVerification},
		{"verification product 8000.01", f64(800.001), f64(10), domain.FilingVerification},
		{"just over 25 l and 12 bar", f64(25.0001), f64(12.0001), domain.FilingVerification},
		{"boundary volume 25 pressure 12", f64(25), f64(12), domain.FilingNone},
		{"boundary volume 25 high pressure", f64(25), f64(40), domain.FilingNone},
		{"mid volume high pressure", f64(40), f64(12.5), domain.FilingVerification},
		{"missing volume", nil, f64(10), domain.FilingNone},
		{"missing pressure", f64(100), nil, domain.FilingNone},
		{"zero volume", f64(0), f64(10), domain.FilingNone},
		{"negative pressure", f64(100), f64(-1), domain.FilingNone},
		{"nan", f64(math.NaN()), f64(10), domain.FilingNone},
		{"infinite", f64(math.Inf(1)), f64(10), domain.FilingNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyFiling(tc.volume, tc.pressure))
		})
	}
}

func TestClassifyFilingIsTotal(t *testing.T) {
	values := []float64{-10, 0, 0.5, 12, 24.99, 25, 25.01, 49.99, 50, 100, 666.67, 1e6, math.NaN(), math.Inf(-1)}
	allowed := map[domain.FilingCategory]bool{
		domain.FilingNone:         true,
		domain.FilingDeclaration:  true,
		domain.FilingVerification: true,
	}
	for _, v := range values {
		for _, p := range values {
			got := ClassifyFiling(f64(v), f64(p))
			assert.True(t, allowed[got], "volume=%v pressure=%v gave %q", v, p, got)
		}
	}
}

func TestClassifyPED(t *testing.T) {
	cases := []struct {
		pressure, volume float64
		want             domain.PEDCategory
	}{
		{10, 19.99, domain.PEDI},
		{10, 20, domain.PEDII},
		{10, 99.9, domain.PEDII},
		{10, 100, domain.PEDIII},
		{10, 299, domain.PEDIII},
		{10, 300, domain.PEDIV},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyPED(f64(tc.pressure), f64(tc.volume)), "ps=%v v=%v", tc.pressure, tc.volume)
	}
	assert.Equal(t, domain.PEDUnknown, ClassifyPED(nil, f64(10)))
	assert.Equal(t, domain.PEDUnknown, ClassifyPED(f64(10), f64(0)))
}

func TestPEDConsistent(t *testing.T) {
	assert.False(t, PEDConsistent("", f64(10), f64(300)), "missing manual category with a computable one")
	assert.True(t, PEDConsistent("IV", f64(10), f64(300)))
	assert.False(t, PEDConsistent("II", f64(10), f64(300)))
	assert.True(t, PEDConsistent("II", nil, f64(300)))
	assert.True(t, PEDConsistent("", nil, f64(300)))
}

func TestBuildFilingSummaryOrdersAndSplits(t *testing.T) {
	acme := domain.ForeignManufacturer{ID: "m-1", Name: "Acme", Country: "DE"}
	manufacturers := map[string]domain.Manufacturer{domain.FoldKey("Acme"): acme}

	instances := []domain.EquipmentInstance{
		{Code: "S10", Type: domain.EquipmentTank, Brand: "Acme", Volume: f64(500), MaxPressure: f64(11)},
		{Code: "S2", Type: domain.EquipmentTank, Brand: "ACME", Volume: f64(900), MaxPressure: f64(11)},
		{Code: "S1", Type: domain.EquipmentTank, Brand: "Acme", Volume: f64(270), MaxPressure: f64(11)},
		{Code: "C1.1", Type: domain.EquipmentOilSeparator, Brand: "Acme", Volume: f64(30), MaxPressure: f64(14)},
		{Code: "S3", Type: domain.EquipmentTank, Brand: "Acme", Volume: f64(20), MaxPressure: f64(11)},
		{Code: "S4", Type: domain.EquipmentTank, Brand: "Unknown", Volume: f64(500), MaxPressure: f64(11)},
		{Code: "C1", Type: domain.EquipmentCompressor, Brand: "Acme", Volume: f64(500), MaxPressure: f64(11)},
		{Code: "S5", Type: domain.EquipmentTank, Brand: "Acme", MaxPressure: f64(11)},
	}

	got := BuildFilingSummary(instances, manufacturers)

	codes := func(items []domain.FilingItem) []string {
		out := []string{}
		for _, it := range items {
			out = append(out, it.Code)
		}
		return out
	}
	assert.Equal(t, []string{"S1", "S10", "C1.1", "S2"}, codes(got.Items))
	assert.Equal(t, []string{"S1", "S10"}, codes(got.Declarations))
	assert.Equal(t, []string{"C1.1", "S2"}, codes(got.Verifications))
	assert.Equal(t, "m-1", got.Items[0].ManufacturerID)
	assert.Equal(t, domain.PEDIII, got.Items[0].PEDCategory)
}
