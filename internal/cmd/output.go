package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jimezsa/gbifcli/internal/export"
	"github.com/jimezsa/gbifcli/internal/models"
	"github.com/jimezsa/gbifcli/internal/ui"
)

type OutputOptions struct {
	Format  string `help:"Output format: table, csv, tsv, json, md." enum:",table,csv,tsv,json,md" default:""`
	Columns string `help:"Columns for tabular formats: short or full." enum:"short,full" default:"short"`
	Links   string `help:"Table link display: short or full." enum:"short,full" default:"full"`
	Output  string `name:"output" short:"o" help:"Write output to a file."`
}

// openOutput returns the writer for opts and a close function.
func openOutput(ctx *Context, opts OutputOptions) (io.Writer, func() error, error) {
	if strings.TrimSpace(opts.Output) == "" {
		return ctx.Out, func() error { return nil }, nil
	}
	file, err := ctx.fs().Create(opts.Output)
	if err != nil {
		return nil, nil, err
	}
	return file, file.Close, nil
}

func writeRecords(ctx *Context, records []models.Record, opts OutputOptions) (err error) {
	format, err := resolveFormat(ctx, opts.Format, opts.Output)
	if err != nil {
		return err
	}

	writer, closeOutput, err := openOutput(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeOutput(); err == nil {
			err = closeErr
		}
	}()

	colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled
	hyperlinks := colorEnabled && ui.IsTTY(writer)
	linkStyle := export.LinkStyleShort
	if strings.EqualFold(opts.Links, string(export.LinkStyleFull)) {
		linkStyle = export.LinkStyleFull
	}
	columns := export.ColumnsShort
	if strings.EqualFold(opts.Columns, string(export.ColumnsFull)) {
		columns = export.ColumnsFull
	}

	return export.WriteRecords(writer, records, format, export.WriteOptions{
		ColorEnabled: colorEnabled,
		Hyperlinks:   hyperlinks,
		LinkStyle:    linkStyle,
		Columns:      columns,
	})
}

func resolveFormat(ctx *Context, requested string, outputPath string) (export.Format, error) {
	if ctx.JSONOutput {
		return export.FormatJSON, nil
	}
	if ctx.PlainText {
		return export.FormatTSV, nil
	}
	if requested != "" {
		return parseFormat(requested)
	}

	if outputPath != "" {
		switch strings.ToLower(filepath.Ext(outputPath)) {
		case ".json":
			return export.FormatJSON, nil
		case ".tsv":
			return export.FormatTSV, nil
		case ".md":
			return export.FormatMarkdown, nil
		default:
			return export.FormatCSV, nil
		}
	}

	if ui.IsTTY(ctx.Out) {
		return export.FormatTable, nil
	}
	return export.FormatCSV, nil
}

func parseFormat(value string) (export.Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "csv":
		return export.FormatCSV, nil
	case "json":
		return export.FormatJSON, nil
	case "md", "markdown":
		return export.FormatMarkdown, nil
	case "tsv":
		return export.FormatTSV, nil
	case "table", "":
		return export.FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format: %s", value)
	}
}

func pathsEqual(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil {
		return absA == absB
	}
	return filepath.Clean(a) == filepath.Clean(b)
}
