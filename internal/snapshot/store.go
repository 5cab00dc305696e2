package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/jimezsa/gbifcli/internal/models"
)

// Store reads and writes record snapshots as JSON arrays.
type Store struct {
	fs afero.Fs
}

// NewStore returns a store over fs; nil uses the OS filesystem.
func NewStore(fs afero.Fs) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs}
}

// Read reads a JSON array of records from path.
func (s *Store) Read(path string) ([]models.Record, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Record{}, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var records []models.Record
	if err := decoder.Decode(&records); err != nil {
		return nil, err
	}
	if records == nil {
		return []models.Record{}, nil
	}
	return records, nil
}

// ReadAllowMissing reads records and treats a missing file as empty.
func (s *Store) ReadAllowMissing(path string) ([]models.Record, error) {
	records, err := s.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Record{}, nil
		}
		return nil, err
	}
	return records, nil
}

// Write writes records as pretty JSON.
func (s *Store) Write(path string, records []models.Record) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required")
	}
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(s.fs, path, append(data, '\n'), 0o644)
}
