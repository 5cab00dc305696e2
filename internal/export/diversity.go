package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jimezsa/gbifcli/internal/diversity"
)

type diversityRow struct {
	Group   string   `json:"group"`
	Records int      `json:"records"`
	Species int      `json:"species"`
	Simpson *float64 `json:"simpson"`
}

// WriteDiversity writes per-group Simpson indices. Undefined indices print
// as NaN, or null in JSON.
func WriteDiversity(w io.Writer, by string, groups []diversity.Group, format Format) error {
	switch format {
	case FormatJSON:
		rows := make([]diversityRow, 0, len(groups))
		for _, group := range groups {
			r := diversityRow{Group: group.Key, Records: group.Records, Species: group.Species}
			if group.Defined() {
				value := group.Simpson
				r.Simpson = &value
			}
			rows = append(rows, r)
		}
		return writeJSON(w, rows)
	case FormatCSV, FormatTSV:
		writer := csv.NewWriter(w)
		if format == FormatTSV {
			writer.Comma = '\t'
		}
		if err := writer.Write([]string{by, "records", "species", "simpson"}); err != nil {
			return err
		}
		for _, group := range groups {
			if err := writer.Write(diversityCells(group)); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	case FormatMarkdown:
		if len(groups) == 0 {
			_, err := fmt.Fprintln(w, "No results.")
			return err
		}
		lines := []string{
			fmt.Sprintf("| %s | records | species | simpson |", by),
			"| --- | ---: | ---: | ---: |",
		}
		for _, group := range groups {
			lines = append(lines, "| "+strings.Join(diversityCells(group), " | ")+" |")
		}
		_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
		return err
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\trecords\tspecies\tsimpson\n", by)
		for _, group := range groups {
			fmt.Fprintln(tw, strings.Join(diversityCells(group), "\t"))
		}
		return tw.Flush()
	}
}

func diversityCells(group diversity.Group) []string {
	index := "NaN"
	if group.Defined() {
		index = strconv.FormatFloat(group.Simpson, 'f', 4, 64)
	}
	return []string{
		safe(group.Key),
		strconv.Itoa(group.Records),
		strconv.Itoa(group.Species),
		index,
	}
}
