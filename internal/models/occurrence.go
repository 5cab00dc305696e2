package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/mapstructure"
)

// Occurrence is a typed view over the commonly used fields of a Record.
type Occurrence struct {
	Key              int64    `mapstructure:"key" json:"key,omitempty"`
	Species          string   `mapstructure:"species" json:"species,omitempty"`
	ScientificName   string   `mapstructure:"scientificName" json:"scientificName,omitempty"`
	Year             int      `mapstructure:"year" json:"year,omitempty"`
	Country          string   `mapstructure:"country" json:"country,omitempty"`
	CountryCode      string   `mapstructure:"countryCode" json:"countryCode,omitempty"`
	StateProvince    string   `mapstructure:"stateProvince" json:"stateProvince,omitempty"`
	BasisOfRecord    string   `mapstructure:"basisOfRecord" json:"basisOfRecord,omitempty"`
	EventDate        string   `mapstructure:"eventDate" json:"eventDate,omitempty"`
	DecimalLatitude  *float64 `mapstructure:"decimalLatitude" json:"decimalLatitude,omitempty"`
	DecimalLongitude *float64 `mapstructure:"decimalLongitude" json:"decimalLongitude,omitempty"`
	Epoch            *int     `mapstructure:"epoch" json:"epoch,omitempty"`

	// EventTime is EventDate parsed; zero when absent or unparseable.
	EventTime time.Time `mapstructure:"-" json:"-"`
}

// Occurrence decodes the typed view of the record. Unknown fields are
// ignored and numeric strings are accepted where numbers are expected.
func (r Record) Occurrence() (Occurrence, error) {
	var occ Occurrence
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &occ,
	})
	if err != nil {
		return occ, err
	}
	if err := decoder.Decode(map[string]any(r)); err != nil {
		return occ, fmt.Errorf("decode occurrence: %w", err)
	}
	if ts, err := ParseEventDate(occ.EventDate); err == nil {
		occ.EventTime = ts
	}
	return occ, nil
}

// ParseEventDate parses a GBIF eventDate. Intervals such as
// "2001-05-01/2001-05-31" resolve to their start.
func ParseEventDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if start, _, found := strings.Cut(value, "/"); found {
		value = strings.TrimSpace(start)
	}
	if value == "" {
		return time.Time{}, fmt.Errorf("empty event date")
	}
	return dateparse.ParseIn(value, time.UTC)
}
