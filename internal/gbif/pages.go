package gbif

import (
	"context"
	"strconv"

	"github.com/jimezsa/gbifcli/internal/models"
)

// AllRecords pages through the search starting at query's offset until the
// API reports the end of records, a page comes back empty, or maxRecords
// results were collected. maxRecords <= 0 means no cap. The first failing
// page aborts the walk.
func (c *Client) AllRecords(ctx context.Context, query Query, maxRecords int) ([]models.Record, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	query = query.Clone()
	offset := query.Offset()
	limit := query.Limit()
	if limit <= 0 {
		limit = MaxPageSize
		query.Set(ParamLimit, strconv.Itoa(limit))
	}

	all := []models.Record{}
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		query.Set(ParamOffset, strconv.Itoa(offset))
		records, err := c.Records(ctx, query)
		if err != nil {
			return nil, err
		}
		all = append(all, records.Results...)

		c.logger.Debug().
			Int("page", page).
			Int("offset", offset).
			Int("received", len(records.Results)).
			Int("total", records.Count).
			Msg("gbif page")

		if maxRecords > 0 && len(all) >= maxRecords {
			return all[:maxRecords], nil
		}
		if records.EndOfRecords || len(records.Results) == 0 {
			return all, nil
		}
		offset += limit
	}
}
