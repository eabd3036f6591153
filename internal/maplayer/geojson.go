package maplayer

import (
	"errors"
	"strconv"

	"github.com/resqbites/matcher/internal/match"
)

// ErrEmptyDataset is returned when a map would be centred on zero records
var ErrEmptyDataset = errors.New("no match records to plot")

// LngLat is a [longitude, latitude] pair, GeoJSON order
type LngLat [2]float64

// Lng returns the longitude
func (p LngLat) Lng() float64 { return p[0] }

// Lat returns the latitude
func (p LngLat) Lat() float64 { return p[1] }

// LineString is a GeoJSON LineString geometry
type LineString struct {
	Type        string   `json:"type"`
	Coordinates []LngLat `json:"coordinates"`
}

// Feature is a GeoJSON Feature with a line geometry
type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   LineString             `json:"geometry"`
}

// FeatureCollection is a GeoJSON FeatureCollection
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Centroid averages the donor/recipient midpoint of every record
func Centroid(records []match.Record) (LngLat, error) {
	if len(records) == 0 {
		return LngLat{}, ErrEmptyDataset
	}

	var sumLat, sumLon float64
	for _, r := range records {
		sumLat += (r.DonorLat + r.RecipientLat) / 2
		sumLon += (r.DonorLon + r.RecipientLon) / 2
	}
	n := float64(len(records))

	return LngLat{sumLon / n, sumLat / n}, nil
}

// LineFeatures builds one donor→recipient line per record, tagged with the
// record's match percentage
func LineFeatures(records []match.Record) FeatureCollection {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(records)),
	}
	for _, r := range records {
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Properties: map[string]interface{}{
				"matchPercentage": r.MatchPercentage,
				"key":             r.Key(),
			},
			Geometry: LineString{
				Type: "LineString",
				Coordinates: []LngLat{
					{r.DonorLon, r.DonorLat},
					{r.RecipientLon, r.RecipientLat},
				},
			},
		})
	}
	return fc
}

// Glyph is the marker shape
type Glyph string

const (
	GlyphSquare Glyph = "square"
	GlyphCircle Glyph = "circle"
)

// Role labels which side of a match a marker stands for
type Role string

const (
	RoleDonor     Role = "Donor"
	RoleRecipient Role = "Recipient"
)

// Marker colours
const (
	DonorColor     = "#3d8b6e"
	RecipientColor = "#e69500"
)

// Popup is the detail card attached to a marker
type Popup struct {
	Title  string   `json:"title"`
	Role   Role     `json:"role"`
	Lines  []string `json:"lines"`
	Offset int      `json:"offset"`
}

// Marker is a declarative point marker the renderer draws
type Marker struct {
	ID       string `json:"id"`
	Position LngLat `json:"position"`
	Glyph    Glyph  `json:"glyph"`
	Color    string `json:"color"`
	Popup    Popup  `json:"popup"`
}

// DonorPopup lists the donor id, category and quantity on offer
func DonorPopup(r match.Record) Popup {
	return Popup{
		Title:  r.DonorID,
		Role:   RoleDonor,
		Lines:  []string{r.FoodCategory, strconv.FormatFloat(r.QuantityKg, 'f', -1, 64) + " kg available"},
		Offset: 25,
	}
}

// RecipientPopup lists the recipient id and the match score
func RecipientPopup(r match.Record) Popup {
	return Popup{
		Title:  r.RecipientID,
		Role:   RoleRecipient,
		Lines:  []string{strconv.Itoa(r.MatchPercentage) + "% Match"},
		Offset: 25,
	}
}

// Markers returns a donor then a recipient marker for every record
func Markers(records []match.Record) []Marker {
	markers := make([]Marker, 0, 2*len(records))
	for _, r := range records {
		markers = append(markers,
			Marker{
				ID:       r.Key() + ":donor",
				Position: LngLat{r.DonorLon, r.DonorLat},
				Glyph:    GlyphSquare,
				Color:    DonorColor,
				Popup:    DonorPopup(r),
			},
			Marker{
				ID:       r.Key() + ":recipient",
				Position: LngLat{r.RecipientLon, r.RecipientLat},
				Glyph:    GlyphCircle,
				Color:    RecipientColor,
				Popup:    RecipientPopup(r),
			},
		)
	}
	return markers
}
