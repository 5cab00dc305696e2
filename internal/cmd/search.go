package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jimezsa/gbifcli/internal/gbif"
	"github.com/jimezsa/gbifcli/internal/models"
	"github.com/jimezsa/gbifcli/internal/snapshot"
)

type SearchCmd struct {
	Query  string `arg:"" optional:"" help:"Taxon name or free-text query."`
	Years  string `help:"Year or inclusive year interval, e.g. 1990,2000."`
	Offset int    `help:"Offset of the first record."`
	All    bool   `help:"Follow pages until the end of records."`
	Max    int    `help:"Stop after N records when following pages (0 = config max_records)." env:"GBIFCLI_MAX_RECORDS"`
	FilterOptions
	OutputOptions
	SnapshotOptions
}

type SnapshotOptions struct {
	Seen       string `help:"Path to a records snapshot JSON file."`
	NewOnly    bool   `help:"Output only records not in --seen."`
	NewOut     string `help:"Write unseen records JSON to a file (requires --seen)."`
	SeenUpdate bool   `help:"Merge unseen records into the --seen snapshot after the search completes."`
}

func (s *SearchCmd) Run(ctx *Context) error {
	if err := s.SnapshotOptions.validate(s.Output); err != nil {
		return err
	}

	query, err := buildQuery(ctx.fs(), ctx.Config, s.Query, s.FilterOptions)
	if err != nil {
		return err
	}
	years, err := parseYears(s.Years)
	if err != nil {
		return err
	}
	if years != "" {
		query.Set(gbif.ParamYear, years)
	}
	if s.Offset < 0 {
		return fmt.Errorf("--offset must not be negative")
	}
	if s.Offset > 0 {
		query.Set(gbif.ParamOffset, fmt.Sprintf("%d", s.Offset))
	}

	client, err := newGBIFClient(ctx, s.Proxies)
	if err != nil {
		return err
	}

	ctx.Logger.Debug().Str("url", client.URL(query)).Bool("all", s.All).Msg("search")

	stop := ctx.UI.StartIndicator("Searching")
	records, total, err := s.fetch(ctx, client, query)
	stop()
	if err != nil {
		return err
	}

	return emitRecords(ctx, records, total, s.OutputOptions, s.SnapshotOptions)
}

func (s *SearchCmd) fetch(ctx *Context, client *gbif.Client, query gbif.Query) ([]models.Record, int, error) {
	if !s.All {
		page, err := client.Records(ctx.context(), query)
		if err != nil {
			return nil, 0, err
		}
		return page.Results, page.Count, nil
	}

	records, err := client.AllRecords(ctx.context(), query, defaultInt(s.Max, ctx.Config.MaxRecords))
	if err != nil {
		return nil, 0, err
	}
	return records, len(records), nil
}

func (o SnapshotOptions) validate(outputPath string) error {
	seen := strings.TrimSpace(o.Seen)
	if o.NewOnly && seen == "" {
		return fmt.Errorf("--new-only requires --seen")
	}
	if strings.TrimSpace(o.NewOut) != "" && seen == "" {
		return fmt.Errorf("--new-out requires --seen")
	}
	if o.SeenUpdate && seen == "" {
		return fmt.Errorf("--seen-update requires --seen")
	}
	if strings.TrimSpace(o.NewOut) != "" && pathsEqual(outputPath, o.NewOut) {
		return fmt.Errorf("--new-out path must differ from --output")
	}
	if seen != "" && pathsEqual(outputPath, o.Seen) {
		return fmt.Errorf("--output path must differ from --seen")
	}
	if strings.TrimSpace(o.NewOut) != "" && pathsEqual(o.NewOut, o.Seen) {
		return fmt.Errorf("--new-out path must differ from --seen")
	}
	return nil
}

// emitRecords applies the snapshot options, writes the output and prints
// a summary line to stderr.
func emitRecords(ctx *Context, records []models.Record, total int, out OutputOptions, snap SnapshotOptions) error {
	store := snapshot.NewStore(ctx.fs())

	var unseen []models.Record
	if strings.TrimSpace(snap.Seen) != "" {
		seenRecords, err := store.ReadAllowMissing(snap.Seen)
		if err != nil {
			return fmt.Errorf("read --seen: %w", err)
		}
		var stats snapshot.DiffStats
		unseen, stats = snapshot.Diff(records, seenRecords)
		if stats.InvalidSkipped() > 0 {
			ctx.Logger.Debug().Int("invalid", stats.InvalidSkipped()).Msg("records without key skipped")
		}
	}

	output := records
	if snap.NewOnly {
		output = unseen
	}

	if strings.TrimSpace(snap.NewOut) != "" {
		if err := store.Write(snap.NewOut, unseen); err != nil {
			return fmt.Errorf("write --new-out: %w", err)
		}
	}

	if err := writeRecords(ctx, output, out); err != nil {
		return err
	}

	if snap.SeenUpdate {
		if err := updateSnapshot(store, snap.Seen, unseen); err != nil {
			return err
		}
	}

	summary := records
	if strings.TrimSpace(snap.Seen) != "" {
		summary = unseen
	}
	printSummary(ctx, summary, total)
	return nil
}

func updateSnapshot(store *snapshot.Store, path string, input []models.Record) error {
	existing, err := store.ReadAllowMissing(path)
	if err != nil {
		return fmt.Errorf("read --seen: %w", err)
	}

	merged, _ := snapshot.Merge(existing, input)
	if err := store.Write(path, merged); err != nil {
		return fmt.Errorf("write --seen: %w", err)
	}
	return nil
}

func printSummary(ctx *Context, records []models.Record, total int) {
	if ctx == nil || ctx.Err == nil {
		return
	}
	_, _ = fmt.Fprintf(ctx.Err, "%s\n", formatSummary(records, total))
}

func formatSummary(records []models.Record, total int) string {
	counts := countBySpecies(records)
	if len(counts) == 0 {
		return fmt.Sprintf("summary: records=0 total=%d species=0", total)
	}

	const maxListed = 5
	parts := make([]string, 0, maxListed)
	for i, count := range counts {
		if i == maxListed {
			parts = append(parts, fmt.Sprintf("+%d more", len(counts)-maxListed))
			break
		}
		parts = append(parts, fmt.Sprintf("%s:%d", count.species, count.total))
	}

	return fmt.Sprintf("summary: records=%d total=%d species=%d top=%s",
		len(records), total, len(counts), strings.Join(parts, ", "))
}

type speciesCount struct {
	species string
	total   int
}

// countBySpecies orders by count descending, then name.
func countBySpecies(records []models.Record) []speciesCount {
	totals := make(map[string]int, len(records))
	for _, record := range records {
		name, ok := record.String(models.FieldSpecies)
		if !ok {
			name = "unknown"
		}
		totals[name]++
	}

	counts := make([]speciesCount, 0, len(totals))
	for species, total := range totals {
		counts = append(counts, speciesCount{species: species, total: total})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].total != counts[j].total {
			return counts[i].total > counts[j].total
		}
		return counts[i].species < counts[j].species
	})
	return counts
}
