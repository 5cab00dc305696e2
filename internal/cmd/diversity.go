package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jimezsa/gbifcli/internal/diversity"
	"github.com/jimezsa/gbifcli/internal/export"
	"github.com/jimezsa/gbifcli/internal/models"
	"github.com/jimezsa/gbifcli/internal/snapshot"
)

type DiversityCmd struct {
	By     string `default:"epoch" help:"Record field to group by, e.g. epoch, year, stateProvince."`
	Input  string `help:"Read records from a CSV export or JSON snapshot instead of querying the API."`
	Format string `help:"Output format: table, csv, tsv, json, md." enum:",table,csv,tsv,json,md" default:""`
	Output string `name:"output" short:"o" help:"Write output to a file."`

	EpochOptions
	FilterOptions
}

func (d *DiversityCmd) Run(ctx *Context) error {
	by := apiKey(d.By)
	if by == "" {
		return fmt.Errorf("--by must not be empty")
	}

	records, err := d.records(ctx)
	if err != nil {
		return err
	}
	groups := diversity.ByGroup(records, by)
	ctx.Logger.Debug().Int("records", len(records)).Int("groups", len(groups)).Str("by", by).Msg("diversity")

	format, err := resolveFormat(ctx, d.Format, d.Output)
	if err != nil {
		return err
	}
	writer, closeOutput, err := openOutput(ctx, OutputOptions{Output: d.Output})
	if err != nil {
		return err
	}
	if err := export.WriteDiversity(writer, by, groups, format); err != nil {
		_ = closeOutput()
		return err
	}
	return closeOutput()
}

func (d *DiversityCmd) records(ctx *Context) ([]models.Record, error) {
	if strings.TrimSpace(d.Input) == "" {
		return fetchEpochs(ctx, d.EpochOptions, d.FilterOptions)
	}

	switch strings.ToLower(filepath.Ext(d.Input)) {
	case ".json":
		records, err := snapshot.NewStore(ctx.fs()).Read(d.Input)
		if err != nil {
			return nil, fmt.Errorf("read --input: %w", err)
		}
		return records, nil
	default:
		file, err := ctx.fs().Open(d.Input)
		if err != nil {
			return nil, fmt.Errorf("read --input: %w", err)
		}
		defer file.Close()
		records, err := export.ReadCSV(file)
		if err != nil {
			return nil, fmt.Errorf("read --input %q: %w", d.Input, err)
		}
		return records, nil
	}
}
