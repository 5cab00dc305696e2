package snapshot

import (
	"strings"

	"github.com/jimezsa/gbifcli/internal/models"
)

// DiffStats captures stats for A-B unseen filtering.
type DiffStats struct {
	TotalNew    int
	TotalSeen   int
	InvalidNew  int
	InvalidSeen int
	Unseen      int
}

// InvalidSkipped returns the total invalid records skipped during comparison.
func (s DiffStats) InvalidSkipped() int {
	return s.InvalidNew + s.InvalidSeen
}

// MergeStats captures stats for snapshot updates.
type MergeStats struct {
	TotalSeen    int
	TotalInput   int
	InvalidSeen  int
	InvalidInput int
	Added        int
	TotalOut     int
}

// InvalidSkipped returns the total invalid records skipped during merge.
func (s MergeStats) InvalidSkipped() int {
	return s.InvalidSeen + s.InvalidInput
}

// Key returns the identity of a record: its GBIF occurrence key.
func Key(record models.Record) (string, bool) {
	key, ok := record.Key()
	if !ok {
		return "", false
	}
	return strings.TrimSpace(key), true
}

// Diff returns records from newRecords whose key is not in seenRecords.
// Duplicate keys within newRecords are emitted once.
func Diff(newRecords []models.Record, seenRecords []models.Record) ([]models.Record, DiffStats) {
	stats := DiffStats{
		TotalNew:  len(newRecords),
		TotalSeen: len(seenRecords),
	}

	seenKeys := make(map[string]struct{}, len(seenRecords))
	for _, record := range seenRecords {
		key, ok := Key(record)
		if !ok {
			stats.InvalidSeen++
			continue
		}
		seenKeys[key] = struct{}{}
	}

	newKeys := make(map[string]struct{}, len(newRecords))
	unseen := make([]models.Record, 0, len(newRecords))
	for _, record := range newRecords {
		key, ok := Key(record)
		if !ok {
			stats.InvalidNew++
			continue
		}
		if _, exists := newKeys[key]; exists {
			continue
		}
		newKeys[key] = struct{}{}
		if _, exists := seenKeys[key]; exists {
			continue
		}
		unseen = append(unseen, record)
	}

	stats.Unseen = len(unseen)
	return unseen, stats
}

// Merge appends records with new keys to the existing snapshot.
// Existing entries win collisions; keyless existing entries are kept.
func Merge(existing []models.Record, input []models.Record) ([]models.Record, MergeStats) {
	stats := MergeStats{
		TotalSeen:  len(existing),
		TotalInput: len(input),
	}

	keys := make(map[string]struct{}, len(existing)+len(input))
	out := make([]models.Record, 0, len(existing)+len(input))

	for _, record := range existing {
		key, ok := Key(record)
		if !ok {
			stats.InvalidSeen++
			out = append(out, record)
			continue
		}
		if _, exists := keys[key]; exists {
			continue
		}
		keys[key] = struct{}{}
		out = append(out, record)
	}

	for _, record := range input {
		key, ok := Key(record)
		if !ok {
			stats.InvalidInput++
			continue
		}
		if _, exists := keys[key]; exists {
			continue
		}
		keys[key] = struct{}{}
		out = append(out, record)
		stats.Added++
	}

	stats.TotalOut = len(out)
	return out, stats
}
