package cmd

import (
	"fmt"

	"github.com/jimezsa/gbifcli/internal/gbif"
	"github.com/jimezsa/gbifcli/internal/models"
)

type EpochsCmd struct {
	EpochOptions
	FilterOptions
	OutputOptions
	SnapshotOptions
}

type EpochOptions struct {
	Query string `arg:"" optional:"" help:"Taxon name or free-text query."`
	Start int    `help:"First year of the first epoch."`
	End   int    `help:"Year the epochs end before (exclusive)."`
	Size  int    `default:"10" help:"Epoch width in years."`
	Max   int    `help:"Stop each epoch after N records (0 = config max_records)." env:"GBIFCLI_MAX_RECORDS"`
}

func (e *EpochsCmd) Run(ctx *Context) error {
	if err := e.SnapshotOptions.validate(e.Output); err != nil {
		return err
	}

	records, err := fetchEpochs(ctx, e.EpochOptions, e.FilterOptions)
	if err != nil {
		return err
	}
	return emitRecords(ctx, records, len(records), e.OutputOptions, e.SnapshotOptions)
}

func fetchEpochs(ctx *Context, opts EpochOptions, filters FilterOptions) ([]models.Record, error) {
	if opts.Start == 0 || opts.End == 0 {
		return nil, fmt.Errorf("--start and --end are required")
	}
	spec := gbif.EpochSpec{Query: opts.Query, Start: opts.Start, End: opts.End, Size: opts.Size}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	base, err := buildQuery(ctx.fs(), ctx.Config, opts.Query, filters)
	if err != nil {
		return nil, err
	}
	client, err := newGBIFClient(ctx, filters.Proxies)
	if err != nil {
		return nil, err
	}

	ctx.Logger.Debug().
		Int("start", spec.Start).
		Int("end", spec.End).
		Int("size", spec.Size).
		Int("epochs", len(spec.Starts())).
		Msg("epochs")

	stop := ctx.UI.StartIndicator("Fetching epochs")
	defer stop()
	return client.Epochs(ctx.context(), spec, base, defaultInt(opts.Max, ctx.Config.MaxRecords))
}
