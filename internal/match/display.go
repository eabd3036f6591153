package match

import (
	"encoding/json"
	"math"
	"strconv"
)

// Urgency is the expiry colour bucket of a record
type Urgency string

const (
	UrgencyUrgent  Urgency = "urgent"
	UrgencyWarning Urgency = "warning"
	UrgencyNormal  Urgency = "normal"
)

// ExpiryUrgency buckets hours to expiry: <=6 urgent, <=24 warning, else normal
func ExpiryUrgency(hours float64) Urgency {
	switch {
	case hours <= UrgentHours:
		return UrgencyUrgent
	case hours <= 24:
		return UrgencyWarning
	}
	return UrgencyNormal
}

// ExpiryLabel renders hours under a day as whole hours ("5h") and anything
// longer as whole days. Both truncate: 47 hours is "1d", 5.8 hours is "5h".
func ExpiryLabel(hours float64) string {
	if hours < 24 {
		return strconv.Itoa(int(math.Floor(hours))) + "h"
	}
	return strconv.Itoa(int(math.Floor(hours/24))) + "d"
}

// Tier is the colour grade of a match score badge
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
)

// ScoreTier grades a match percentage: >=90 excellent, >=75 good, else fair
func ScoreTier(pct int) Tier {
	switch {
	case pct >= 90:
		return TierExcellent
	case pct >= 75:
		return TierGood
	}
	return TierFair
}

// View is a record plus the values derived from it for display
type View struct {
	Record
	Key         string  `json:"key"`
	Urgency     Urgency `json:"expiry_urgency"`
	ExpiryLabel string  `json:"expiry_label"`
	Tier        Tier    `json:"score_tier"`
}

// UnmarshalJSON decodes the record fields and the derived values. Without it
// the embedded Record's decoder would be promoted and drop the derived ones.
func (v *View) UnmarshalJSON(data []byte) error {
	if err := v.Record.UnmarshalJSON(data); err != nil {
		return err
	}

	var derived struct {
		Key         string  `json:"key"`
		Urgency     Urgency `json:"expiry_urgency"`
		ExpiryLabel string  `json:"expiry_label"`
		Tier        Tier    `json:"score_tier"`
	}
	if err := json.Unmarshal(data, &derived); err != nil {
		return err
	}
	v.Key = derived.Key
	v.Urgency = derived.Urgency
	v.ExpiryLabel = derived.ExpiryLabel
	v.Tier = derived.Tier
	return nil
}

// View derives the display values for r
func (r Record) View() View {
	return View{
		Record:      r,
		Key:         r.Key(),
		Urgency:     ExpiryUrgency(r.HoursToExpiry),
		ExpiryLabel: ExpiryLabel(r.HoursToExpiry),
		Tier:        ScoreTier(r.MatchPercentage),
	}
}

// Views maps View over records
func Views(records []Record) []View {
	views := make([]View, len(records))
	for i, r := range records {
		views[i] = r.View()
	}
	return views
}
