package maplayer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/resqbites/matcher/internal/debug"
	"github.com/resqbites/matcher/internal/match"
)

// State of a Controller
type State int

const (
	Uninitialized State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "uninitialized"
}

// Defaults used when Options leave them unset
const (
	DefaultStyle = "mapbox://styles/mapbox/light-v11"
	DefaultZoom  = 11
)

// Options configure the widgets a controller mounts
type Options struct {
	Style string
	Zoom  float64
	Debug bool
}

func (o Options) withDefaults() Options {
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Zoom <= 0 {
		o.Zoom = DefaultZoom
	}
	return o
}

// Controller owns at most one mounted map widget. While Uninitialized it
// can only be activated; while Active it can only be torn down.
type Controller struct {
	mu        sync.Mutex
	renderer  Renderer
	opts      Options
	state     State
	container string
	widget    Widget

	// generation changes on every activate and teardown so a load signal
	// from a widget that is no longer current is dropped
	generation uint64
}

// NewController returns an Uninitialized controller
func NewController(renderer Renderer, opts Options) *Controller {
	return &Controller{renderer: renderer, opts: opts.withDefaults()}
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Handle returns the id of the mounted widget, "" when Uninitialized
func (c *Controller) Handle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.widget == nil {
		return ""
	}
	return c.widget.ID()
}

// Activate mounts a widget in container centred on records and plots them
// once the widget signals it has loaded. A rejected token or an empty record
// set leaves the controller as it was. Activating while Active tears the
// current widget down first.
func (c *Controller) Activate(ctx context.Context, container, token string, records []match.Record) error {
	if err := ValidateToken(token); err != nil {
		return err
	}
	if strings.TrimSpace(container) == "" {
		return fmt.Errorf("map container is required")
	}
	center, err := Centroid(records)
	if err != nil {
		return err
	}

	lines := LineFeatures(records)
	markers := Markers(records)

	c.mu.Lock()
	if c.state == Active {
		debug.Output(c.opts.Debug, "container %s: replacing widget %s", c.container, c.widget.ID())
		if err := c.teardownLocked(); err != nil {
			log.Printf("container %s: %v", container, err)
		}
	}

	widget, err := c.renderer.Mount(ctx, MountOptions{
		Container: container,
		Token:     strings.TrimSpace(token),
		Style:     c.opts.Style,
		Center:    center,
		Zoom:      c.opts.Zoom,
	})
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to mount map in %s: %w", container, err)
	}

	c.generation++
	gen := c.generation
	c.widget = widget
	c.container = container
	c.state = Active
	c.mu.Unlock()

	debug.Output(c.opts.Debug, "container %s: mounted widget %s at %.5f,%.5f (%d records)",
		container, widget.ID(), center.Lat(), center.Lng(), len(records))

	// Registered outside the lock: a renderer may fire fn immediately.
	widget.OnLoad(func() {
		c.populate(gen, widget, lines, markers)
	})
	return nil
}

// populate draws the lines as one source and then every marker. It runs
// under the lock so a concurrent Teardown cannot interleave with it.
func (c *Controller) populate(gen uint64, widget Widget, lines FeatureCollection, markers []Marker) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Active || c.generation != gen {
		debug.Output(c.opts.Debug, "widget %s: load after teardown ignored", widget.ID())
		return
	}

	if err := widget.AddSource(LineSourceID, lines); err != nil {
		log.Printf("map widget %s: add source: %v", widget.ID(), err)
		return
	}
	if err := widget.AddLayer(MatchLineLayer()); err != nil {
		log.Printf("map widget %s: add layer: %v", widget.ID(), err)
		return
	}
	for _, m := range markers {
		if err := widget.AddMarker(m); err != nil {
			log.Printf("map widget %s: add marker %s: %v", widget.ID(), m.ID, err)
			return
		}
	}
}

// Teardown removes the mounted widget. The controller is Uninitialized
// afterwards even if the renderer reports an error. No-op when Uninitialized.
func (c *Controller) Teardown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.teardownLocked()
}

func (c *Controller) teardownLocked() error {
	if c.state != Active {
		return nil
	}

	widget := c.widget
	c.widget = nil
	c.container = ""
	c.state = Uninitialized
	c.generation++

	if err := widget.Remove(); err != nil {
		return fmt.Errorf("failed to remove map widget %s: %w", widget.ID(), err)
	}
	debug.Output(c.opts.Debug, "widget %s removed", widget.ID())
	return nil
}
