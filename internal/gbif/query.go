package gbif

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// MaxPageSize is the largest page the occurrence search endpoint serves.
	MaxPageSize = 300

	ParamQuery              = "q"
	ParamYear               = "year"
	ParamBasisOfRecord      = "basisOfRecord"
	ParamHasCoordinate      = "hasCoordinate"
	ParamHasGeospatialIssue = "hasGeospatialIssue"
	ParamCountry            = "country"
	ParamOffset             = "offset"
	ParamLimit              = "limit"

	BasisPreservedSpecimen = "PRESERVED_SPECIMEN"
)

var ErrInvalidQuery = errors.New("invalid query")

// Query holds occurrence search parameters. Keys may repeat, as GBIF
// treats repeated filters as OR.
type Query struct {
	values url.Values
}

// NewQuery returns a query with no filters positioned at the first page.
func NewQuery() Query {
	q := Query{values: url.Values{}}
	q.Set(ParamOffset, "0")
	q.Set(ParamLimit, strconv.Itoa(MaxPageSize))
	return q
}

// SpecimenQuery returns the preserved-specimen search for taxon q within
// the inclusive year interval.
func SpecimenQuery(q string, minYear, maxYear int) Query {
	query := NewQuery()
	if strings.TrimSpace(q) != "" {
		query.Set(ParamQuery, q)
	}
	query.Set(ParamYear, YearRange(minYear, maxYear))
	query.Set(ParamBasisOfRecord, BasisPreservedSpecimen)
	query.Set(ParamHasCoordinate, "true")
	query.Set(ParamHasGeospatialIssue, "false")
	query.Set(ParamCountry, "US")
	return query
}

// YearRange formats an inclusive year interval.
func YearRange(minYear, maxYear int) string {
	return fmt.Sprintf("%d,%d", minYear, maxYear)
}

func (q *Query) init() {
	if q.values == nil {
		q.values = url.Values{}
	}
}

func (q *Query) Set(key, value string) {
	q.init()
	q.values.Set(key, value)
}

func (q *Query) Add(key, value string) {
	q.init()
	q.values.Add(key, value)
}

func (q *Query) Del(key string) {
	if q.values == nil {
		return
	}
	q.values.Del(key)
}

func (q Query) Get(key string) string {
	return q.values.Get(key)
}

func (q Query) Values(key string) []string {
	return append([]string(nil), q.values[key]...)
}

func (q Query) Has(key string) bool {
	return q.values.Has(key)
}

// Clone returns a deep copy.
func (q Query) Clone() Query {
	out := Query{values: make(url.Values, len(q.values))}
	for key, vals := range q.values {
		out.values[key] = append([]string(nil), vals...)
	}
	return out
}

// Encode returns the URL-encoded form, sorted by key. An empty query
// encodes as the first page with the maximum page size.
func (q Query) Encode() string {
	values := q.withDefaults()
	return values.Encode()
}

func (q Query) withDefaults() url.Values {
	values := q.Clone().values
	if !values.Has(ParamOffset) {
		values.Set(ParamOffset, "0")
	}
	if !values.Has(ParamLimit) {
		values.Set(ParamLimit, strconv.Itoa(MaxPageSize))
	}
	return values
}

// Offset returns the offset parameter, 0 when unset.
func (q Query) Offset() int {
	n, _ := strconv.Atoi(strings.TrimSpace(q.values.Get(ParamOffset)))
	return n
}

// Limit returns the limit parameter, MaxPageSize when unset.
func (q Query) Limit() int {
	raw := strings.TrimSpace(q.values.Get(ParamLimit))
	if raw == "" {
		return MaxPageSize
	}
	n, _ := strconv.Atoi(raw)
	return n
}

// Validate checks paging parameters. Filter values are passed through
// unchecked; the API reports unknown or malformed filters itself.
func (q Query) Validate() error {
	values := q.withDefaults()
	offset, err := strconv.Atoi(strings.TrimSpace(values.Get(ParamOffset)))
	if err != nil {
		return fmt.Errorf("%w: offset %q is not a number", ErrInvalidQuery, values.Get(ParamOffset))
	}
	limit, err := strconv.Atoi(strings.TrimSpace(values.Get(ParamLimit)))
	if err != nil {
		return fmt.Errorf("%w: limit %q is not a number", ErrInvalidQuery, values.Get(ParamLimit))
	}
	if err := validation.Validate(offset, validation.Min(0)); err != nil {
		return fmt.Errorf("%w: offset: %v", ErrInvalidQuery, err)
	}
	if err := validation.Validate(limit, validation.Min(0), validation.Max(MaxPageSize)); err != nil {
		return fmt.Errorf("%w: limit: %v", ErrInvalidQuery, err)
	}
	return nil
}
