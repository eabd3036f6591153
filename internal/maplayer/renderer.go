package maplayer

import (
	"context"
	"errors"
)

// ErrWidgetRemoved is returned by a widget used after Remove
var ErrWidgetRemoved = errors.New("map widget already removed")

// LineSourceID is the single source every match line is registered under
const LineSourceID = "match-lines"

// MountOptions initialise a map widget
type MountOptions struct {
	Container string  `json:"container"`
	Token     string  `json:"-"`
	Style     string  `json:"style"`
	Center    LngLat  `json:"center"`
	Zoom      float64 `json:"zoom"`
}

// LineLayer styles the lines of a source
type LineLayer struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Color     string    `json:"line_color"`
	Width     float64   `json:"line_width"`
	Opacity   float64   `json:"line_opacity"`
	DashArray []float64 `json:"line_dasharray,omitempty"`
}

// MatchLineLayer is the dashed style used for match connections
func MatchLineLayer() LineLayer {
	return LineLayer{
		ID:        LineSourceID,
		Source:    LineSourceID,
		Color:     DonorColor,
		Width:     2,
		Opacity:   0.6,
		DashArray: []float64{2, 2},
	}
}

// Renderer mounts map widgets into containers
type Renderer interface {
	Mount(ctx context.Context, opts MountOptions) (Widget, error)
}

// Widget is one mounted interactive map. Sources, layers and markers may
// only be added after the load signal has fired.
type Widget interface {
	ID() string
	OnLoad(fn func())
	AddSource(id string, fc FeatureCollection) error
	AddLayer(layer LineLayer) error
	AddMarker(m Marker) error
	Remove() error
}
