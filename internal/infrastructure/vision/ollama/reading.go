package ollama

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

var numberPattern = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

// flexFloat accepts a JSON number or a string such as "13 bar" or "10,5".
type flexFloat struct {
	value *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.value = &n
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	match := numberPattern.FindString(strings.ReplaceAll(s, ",", "."))
	if match == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	f.value = &parsed
	return nil
}

// flexString accepts a string or a bare number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(strings.TrimSpace(str))
		return nil
	}
	*s = flexString(string(data))
	return nil
}

type rawReading struct {
	DeviceKind      flexString         `json:"device_kind"`
	Brand           flexString         `json:"brand"`
	Model           flexString         `json:"model"`
	SerialNumber    flexString         `json:"serial_number"`
	MaterialNumber  flexString         `json:"material_number"`
	Year            flexFloat          `json:"year"`
	Volume          flexFloat          `json:"volume"`
	MaxPressure     flexFloat          `json:"max_pressure"`
	Temperature     flexFloat          `json:"temperature"`
	AirFlow         flexFloat          `json:"air_flow"`
	SetPressure     flexFloat          `json:"set_pressure"`
	Diameter        flexString         `json:"diameter"`
	RawText         string             `json:"raw_text"`
	FieldConfidence map[string]float64 `json:"field_confidence"`
}

func parseReading(respText string) (*domain.NameplateReading, error) {
	var raw rawReading
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &raw); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse nameplate reading", err)
	}

	reading := &domain.NameplateReading{
		DeviceKind:     string(raw.DeviceKind),
		Brand:          string(raw.Brand),
		Model:          string(raw.Model),
		SerialNumber:   string(raw.SerialNumber),
		MaterialNumber: string(raw.MaterialNumber),
		Volume:         raw.Volume.value,
		MaxPressure:    raw.MaxPressure.value,
		Temperature:    raw.Temperature.value,
		AirFlow:        raw.AirFlow.value,
		SetPressure:    raw.SetPressure.value,
		Diameter:       string(raw.Diameter),
		RawText:        strings.TrimSpace(raw.RawText),
	}
	if raw.Year.value != nil {
		year := int(*raw.Year.value)
		if year >= 1900 && year <= 2100 {
			reading.Year = &year
		}
	}
	if len(raw.FieldConfidence) > 0 {
		reading.FieldConfidence = make(map[string]float64, len(raw.FieldConfidence))
		for field, c := range raw.FieldConfidence {
			reading.FieldConfidence[field] = min(max(c, 0), 1)
		}
	}
	return reading, nil
}
