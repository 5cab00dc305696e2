package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jimezsa/gbifcli/internal/models"
)

// ReadCSV loads records from a CSV file written by WriteRecords or by a
// dataframe export. An unnamed first column is treated as a row index and
// dropped. Empty cells are omitted from the record; all values are strings.
func ReadCSV(r io.Reader) ([]models.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []models.Record{}, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	skipIndex := len(header) > 0 && strings.TrimSpace(header[0]) == ""

	var records []models.Record
	for line := 2; ; line++ {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if len(cells) > len(header) {
			return nil, fmt.Errorf("read csv line %d: %d fields, header has %d", line, len(cells), len(header))
		}

		record := models.Record{}
		for i, cell := range cells {
			if i == 0 && skipIndex {
				continue
			}
			column := strings.TrimSpace(header[i])
			if column == "" || strings.TrimSpace(cell) == "" {
				continue
			}
			record[column] = cell
		}
		records = append(records, record)
	}

	if records == nil {
		return []models.Record{}, nil
	}
	return records, nil
}
