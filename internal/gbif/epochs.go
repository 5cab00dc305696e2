package gbif

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"

	"github.com/jimezsa/gbifcli/internal/models"
)

// EpochSpec splits the years [Start, End) into consecutive intervals of
// Size years.
type EpochSpec struct {
	Query string
	Start int
	End   int
	Size  int
}

func (s EpochSpec) Validate() error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.Size, validation.Required, validation.Min(1)),
		validation.Field(&s.End, validation.By(func(any) error {
			if s.End < s.Start {
				return errors.New("must not be before start")
			}
			return nil
		})),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return nil
}

// Starts returns the first year of every epoch.
func (s EpochSpec) Starts() []int {
	if s.Size <= 0 {
		return nil
	}
	var starts []int
	for year := s.Start; year < s.End; year += s.Size {
		starts = append(starts, year)
	}
	return starts
}

// Epochs fetches every record of each epoch using base for the remaining
// filters, labels each record with its epoch start year and returns them
// ordered by year. maxRecords caps each epoch, not the total. Epochs are
// fetched in order; failures are collected and returned together with no
// records.
func (c *Client) Epochs(ctx context.Context, spec EpochSpec, base Query, maxRecords int) ([]models.Record, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	all := []models.Record{}
	var result *multierror.Error
	for _, start := range spec.Starts() {
		query := base.Clone()
		if strings.TrimSpace(spec.Query) != "" {
			query.Set(ParamQuery, spec.Query)
		}
		query.Set(ParamYear, YearRange(start, start+spec.Size-1))

		records, err := c.AllRecords(ctx, query, maxRecords)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("epoch %d: %w", start, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		c.logger.Debug().Int("epoch", start).Int("records", len(records)).Msg("gbif epoch")
		all = append(all, LabelEpoch(records, start)...)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	SortByYear(all)
	return all, nil
}

// LabelEpoch returns copies of records carrying the epoch field.
func LabelEpoch(records []models.Record, epoch int) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, record := range records {
		labelled := record.Clone()
		labelled[models.FieldEpoch] = epoch
		out = append(out, labelled)
	}
	return out
}

// SortByYear stable-sorts records by year ascending. Records without a
// year sort last.
func SortByYear(records []models.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		yi, oki := records[i].Int(models.FieldYear)
		yj, okj := records[j].Int(models.FieldYear)
		if oki != okj {
			return oki
		}
		return yi < yj
	})
}
