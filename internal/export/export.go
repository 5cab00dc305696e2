package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/muesli/termenv"

	"github.com/jimezsa/gbifcli/internal/models"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatTSV      Format = "tsv"
)

// OccurrenceURL is the public page of an occurrence on gbif.org.
const OccurrenceURL = "https://www.gbif.org/occurrence/"

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
	LinkStyle    LinkStyle
	Columns      ColumnSet
}

type LinkStyle string

const (
	LinkStyleShort LinkStyle = "short"
	LinkStyleFull  LinkStyle = "full"
)

// ColumnSet selects which record fields tabular formats print.
type ColumnSet string

const (
	ColumnsShort ColumnSet = "short"
	ColumnsFull  ColumnSet = "full"
)

var shortColumns = []string{
	models.FieldSpecies,
	models.FieldYear,
	models.FieldCountry,
	models.FieldStateProvince,
}

var fullColumns = []string{
	models.FieldKey,
	models.FieldSpecies,
	models.FieldScientificName,
	models.FieldYear,
	models.FieldEventDate,
	models.FieldCountry,
	models.FieldCountryCode,
	models.FieldStateProvince,
	models.FieldBasisOfRecord,
	models.FieldLatitude,
	models.FieldLongitude,
}

// Columns returns the fields printed for set. The epoch column is added
// when any record carries one.
func Columns(records []models.Record, set ColumnSet) []string {
	base := shortColumns
	if set == ColumnsFull {
		base = fullColumns
	}
	columns := append([]string{}, base...)
	if hasField(records, models.FieldEpoch) {
		columns = insertAfter(columns, models.FieldYear, models.FieldEpoch)
	}
	return columns
}

func WriteRecords(w io.Writer, records []models.Record, format Format, opts WriteOptions) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, records)
	case FormatCSV:
		return writeCSV(w, records, Columns(records, opts.Columns), ',')
	case FormatTSV:
		return writeCSV(w, records, Columns(records, opts.Columns), '\t')
	case FormatMarkdown:
		return writeMarkdown(w, records)
	default:
		return writeTable(w, records, Columns(records, opts.Columns), opts)
	}
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func writeCSV(w io.Writer, records []models.Record, columns []string, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	if err := writer.Write(columns); err != nil {
		return err
	}
	for _, record := range records {
		if err := writer.Write(row(record, columns)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTable(w io.Writer, records []models.Record, columns []string, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(append(append([]string{}, columns...), "url"), "\t"))
	output := termenv.NewOutput(w)
	for _, record := range records {
		cells := row(record, columns)
		for i, cell := range cells {
			if cell == "" {
				cells[i] = "-"
			}
		}
		cells = append(cells, tableLink(record, output, opts))
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, records []models.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for _, record := range records {
		occ, err := record.Occurrence()
		if err != nil {
			return err
		}
		name := firstNonEmpty(occ.Species, occ.ScientificName, "Unknown species")
		lines := []string{fmt.Sprintf("- **%s**", safe(name))}
		if occ.Year != 0 {
			lines[0] += fmt.Sprintf(" (%d)", occ.Year)
		}
		if place := joinNonEmpty(", ", occ.StateProvince, occ.Country); place != "" {
			lines = append(lines, fmt.Sprintf("  Location: %s", safe(place)))
		}
		if occ.BasisOfRecord != "" {
			lines = append(lines, fmt.Sprintf("  Basis: %s", safe(occ.BasisOfRecord)))
		}
		if !occ.EventTime.IsZero() {
			lines = append(lines, fmt.Sprintf("  Event date: %s", occ.EventTime.Format("2006-01-02")))
		} else if occ.EventDate != "" {
			lines = append(lines, fmt.Sprintf("  Event date (raw): %s", safe(occ.EventDate)))
		}
		if occ.DecimalLatitude != nil && occ.DecimalLongitude != nil {
			lines = append(lines, fmt.Sprintf("  Coordinates: %g, %g", *occ.DecimalLatitude, *occ.DecimalLongitude))
		}
		if occ.Epoch != nil {
			lines = append(lines, fmt.Sprintf("  Epoch: %d", *occ.Epoch))
		}
		if link := recordURL(record); link != "" {
			lines = append(lines, fmt.Sprintf("  URL: [Open occurrence](<%s>)", link))
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func row(record models.Record, columns []string) []string {
	cells := make([]string, 0, len(columns))
	for _, column := range columns {
		value, _ := record.String(column)
		cells = append(cells, safe(value))
	}
	return cells
}

func recordURL(record models.Record) string {
	key, ok := record.Key()
	if !ok {
		return ""
	}
	return OccurrenceURL + url.PathEscape(strings.TrimSpace(key))
}

func tableLink(record models.Record, output *termenv.Output, opts WriteOptions) string {
	const linkColor = "#87CEEB"

	link := recordURL(record)
	if link == "" {
		return "-"
	}
	display := link
	if opts.LinkStyle == LinkStyleShort && opts.Hyperlinks {
		display = shortURLLabel(link)
	}
	if opts.ColorEnabled {
		display = output.String(display).Foreground(output.Color(linkColor)).String()
	}
	if opts.Hyperlinks {
		display = hyperlink(link, display)
	}
	return display
}

func hyperlink(url string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + url + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

func shortURLLabel(raw string) string {
	const maxLen = 60
	label := strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil {
		host := strings.TrimPrefix(parsed.Host, "www.")
		if host != "" {
			label = host + parsed.Path
		}
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}
	return label
}

func hasField(records []models.Record, field string) bool {
	for _, record := range records {
		if _, ok := record[field]; ok {
			return true
		}
	}
	return false
}

func insertAfter(columns []string, after string, column string) []string {
	out := make([]string, 0, len(columns)+1)
	inserted := false
	for _, existing := range columns {
		out = append(out, existing)
		if existing == after {
			out = append(out, column)
			inserted = true
		}
	}
	if !inserted {
		out = append(out, column)
	}
	return out
}

func safe(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			parts = append(parts, strings.TrimSpace(value))
		}
	}
	return strings.Join(parts, sep)
}
