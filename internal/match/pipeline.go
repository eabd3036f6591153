package match

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// SortKey selects the ordering of the filtered view
type SortKey string

const (
	SortByMatch  SortKey = "match"  // descending match percentage
	SortByExpiry SortKey = "expiry" // ascending hours to expiry
)

// UrgentHours is the expiry threshold (inclusive) for an urgent match
const UrgentHours = 6

// ErrUnknownSortKey is returned by ParseSortKey for anything but match/expiry
var ErrUnknownSortKey = errors.New("unknown sort key")

// ParseSortKey parses a sort key; empty defaults to SortByMatch
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByMatch:
		return SortByMatch, nil
	case SortByExpiry:
		return SortByExpiry, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
}

// FilterSort is the presentation-owned selection the pipeline is a function of
type FilterSort struct {
	Category string  `json:"category"`
	Sort     SortKey `json:"sort"`
}

// DefaultFilterSort shows every category ordered by match percentage
func DefaultFilterSort() FilterSort {
	return FilterSort{Category: AllCategories, Sort: SortByMatch}
}

// Apply runs FilterAndSort with this selection
func (fs FilterSort) Apply(records []Record) []Record {
	return FilterAndSort(records, fs.Category, fs.Sort)
}

// FilterAndSort returns a new slice holding the records of the given category
// (all of them for AllCategories) in sortKey order. Ties keep input order.
// The input slice is never reordered.
func FilterAndSort(records []Record, category string, sortKey SortKey) []Record {
	result := make([]Record, 0, len(records))
	for _, r := range records {
		if category == AllCategories || r.FoodCategory == category {
			result = append(result, r)
		}
	}

	switch sortKey {
	case SortByExpiry:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].HoursToExpiry < result[j].HoursToExpiry
		})
	default:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].MatchPercentage > result[j].MatchPercentage
		})
	}

	return result
}

// ComputeStats aggregates over every record passed in. Callers pass the whole
// store, never a filtered view. An empty set yields zeroed stats.
func ComputeStats(records []Record) Stats {
	var stats Stats
	if len(records) == 0 {
		return stats
	}

	sum := 0
	for _, r := range records {
		sum += r.MatchPercentage
		stats.TotalQuantityKg += r.QuantityKg
		if r.HoursToExpiry <= UrgentHours {
			stats.UrgentCount++
		}
		if r.Priority == PriorityHigh {
			stats.HighPriorityCount++
		}
	}
	stats.AvgMatchPercentage = int(math.Round(float64(sum) / float64(len(records))))

	return stats
}
