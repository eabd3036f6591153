package match

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
)

// Priority is the externally assigned urgency tier of a recipient
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether p is one of the three known tiers
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// AllCategories is the filter sentinel meaning "no category filter"
const AllCategories = "All Categories"

// Food categories emitted by the matching engine
const (
	CategoryPreparedMeals = "Prepared Meals"
	CategoryPackagedFood  = "Packaged Food"
	CategoryFreshProduce  = "Fresh Produce"
)

// Categories returns the closed category set in display order
func Categories() []string {
	return []string{CategoryPreparedMeals, CategoryPackagedFood, CategoryFreshProduce}
}

// FilterOptions returns the filter bar choices, sentinel first
func FilterOptions() []string {
	return append([]string{AllCategories}, Categories()...)
}

// IsCategory reports whether name is part of the closed category set
func IsCategory(name string) bool {
	for _, c := range Categories() {
		if c == name {
			return true
		}
	}
	return false
}

// Record is one precomputed donor-recipient pairing.
// JSON field names are the contract with the external matching engine.
type Record struct {
	DonorID         string   `json:"donor_id"`
	RecipientID     string   `json:"recipient_id"`
	MatchPercentage int      `json:"match_percentage"`
	DistanceKm      float64  `json:"distance_km"`
	FoodCategory    string   `json:"food_category"`
	QuantityKg      float64  `json:"quantity_kg"`
	HoursToExpiry   float64  `json:"hours_to_expiry"`
	Priority        Priority `json:"priority"`
	DonorLat        float64  `json:"donor_lat"`
	DonorLon        float64  `json:"donor_lon"`
	RecipientLat    float64  `json:"recipient_lat"`
	RecipientLon    float64  `json:"recipient_lon"`
}

// UnmarshalJSON accepts fractional match percentages (the engine rounds to
// one decimal) and rounds them to the nearest whole percent.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	aux := struct {
		*plain
		MatchPercentage float64 `json:"match_percentage"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.MatchPercentage = int(math.Round(aux.MatchPercentage))
	return nil
}

// Key identifies the record within a store as "donor/recipient". Each id is
// path-escaped so a "/" inside an id cannot make two pairs share a key.
func (r Record) Key() string {
	return url.PathEscape(r.DonorID) + "/" + url.PathEscape(r.RecipientID)
}

// Validate checks the record invariants
func (r Record) Validate() error {
	var problems []string

	if strings.TrimSpace(r.DonorID) == "" {
		problems = append(problems, "donor_id is empty")
	}
	if strings.TrimSpace(r.RecipientID) == "" {
		problems = append(problems, "recipient_id is empty")
	}
	if r.MatchPercentage < 0 || r.MatchPercentage > 100 {
		problems = append(problems, fmt.Sprintf("match_percentage %d outside 0-100", r.MatchPercentage))
	}
	if r.DistanceKm < 0 {
		problems = append(problems, "distance_km is negative")
	}
	if r.QuantityKg < 0 {
		problems = append(problems, "quantity_kg is negative")
	}
	if r.HoursToExpiry < 0 {
		problems = append(problems, "hours_to_expiry is negative")
	}
	if !IsCategory(r.FoodCategory) {
		problems = append(problems, fmt.Sprintf("unknown food_category %q", r.FoodCategory))
	}
	if !r.Priority.Valid() {
		problems = append(problems, fmt.Sprintf("unknown priority %q", r.Priority))
	}
	if !validLatLon(r.DonorLat, r.DonorLon) {
		problems = append(problems, "donor coordinates out of range")
	}
	if !validLatLon(r.RecipientLat, r.RecipientLon) {
		problems = append(problems, "recipient coordinates out of range")
	}

	if len(problems) > 0 {
		return fmt.Errorf("record %s: %s", r.Key(), strings.Join(problems, "; "))
	}
	return nil
}

func validLatLon(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Stats holds aggregates over the full, unfiltered record set
type Stats struct {
	AvgMatchPercentage int     `json:"avg_match_percentage"`
	TotalQuantityKg    float64 `json:"total_quantity_kg"`
	UrgentCount        int     `json:"urgent_count"`
	HighPriorityCount  int     `json:"high_priority_count"`
}
