package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field names used by GBIF occurrence records.
const (
	FieldKey            = "key"
	FieldSpecies        = "species"
	FieldScientificName = "scientificName"
	FieldYear           = "year"
	FieldCountry        = "country"
	FieldCountryCode    = "countryCode"
	FieldStateProvince  = "stateProvince"
	FieldBasisOfRecord  = "basisOfRecord"
	FieldEventDate      = "eventDate"
	FieldLatitude       = "decimalLatitude"
	FieldLongitude      = "decimalLongitude"
	FieldEpoch          = "epoch"
)

// Record is a single occurrence as returned by the API. Values are kept
// exactly as decoded; numbers are json.Number.
type Record map[string]any

// Key returns the GBIF occurrence key as a string.
func (r Record) Key() (string, bool) {
	return r.String(FieldKey)
}

// String returns the field formatted as text. Missing, null and blank
// values report false.
func (r Record) String(field string) (string, bool) {
	value, ok := r[field]
	if !ok || value == nil {
		return "", false
	}
	text := FormatValue(value)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// Int returns the field as an integer when it holds a whole number.
func (r Record) Int(field string) (int, bool) {
	value, ok := r[field]
	if !ok || value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		if f, err := v.Float64(); err == nil && f == float64(int(f)) {
			return int(f), true
		}
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// FormatValue renders a decoded JSON value for tabular output.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []any, map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
