// Package diversity computes species diversity indices over occurrence
// records.
package diversity

import (
	"math"
	"sort"
	"strconv"

	"github.com/jimezsa/gbifcli/internal/models"
)

// Group is the diversity of one group of records.
type Group struct {
	Key     string  `json:"group"`
	Records int     `json:"records"`
	Species int     `json:"species"`
	Simpson float64 `json:"-"`
}

// Defined reports whether the index carries a value. Groups holding a
// single species have no meaningful index and report NaN.
func (g Group) Defined() bool {
	return !math.IsNaN(g.Simpson)
}

// Simpson returns 1 - sum(p_i^2) over the species in values, the
// probability that two records drawn with replacement are different
// species. An empty sample returns 0.
func Simpson(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	counts := make(map[string]int, len(values))
	for _, value := range values {
		counts[value]++
	}
	total := float64(len(values))
	var sum float64
	for _, count := range counts {
		p := float64(count) / total
		sum += p * p
	}
	return 1 - sum
}

// ByGroup groups records by field and computes the Simpson index of each
// group. Records without the field or without a species are skipped.
// A zero index is reported as NaN.
func ByGroup(records []models.Record, field string) []Group {
	species := map[string][]string{}
	for _, record := range records {
		key, ok := record.String(field)
		if !ok {
			continue
		}
		name, ok := record.String(models.FieldSpecies)
		if !ok {
			continue
		}
		species[key] = append(species[key], name)
	}

	groups := make([]Group, 0, len(species))
	for key, names := range species {
		index := Simpson(names)
		if index == 0 {
			index = math.NaN()
		}
		groups = append(groups, Group{
			Key:     key,
			Records: len(names),
			Species: distinct(names),
			Simpson: index,
		})
	}
	sortGroups(groups)
	return groups
}

func distinct(values []string) int {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return len(set)
}

// sortGroups orders numerically when every key is a number, otherwise
// lexically.
func sortGroups(groups []Group) {
	numeric := true
	for _, group := range groups {
		if _, err := strconv.ParseFloat(group.Key, 64); err != nil {
			numeric = false
			break
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if numeric {
			a, _ := strconv.ParseFloat(groups[i].Key, 64)
			b, _ := strconv.ParseFloat(groups[j].Key, 64)
			return a < b
		}
		return groups[i].Key < groups[j].Key
	})
}
