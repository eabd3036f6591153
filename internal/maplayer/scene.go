package maplayer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownScene is returned for a widget id the renderer never mounted or
// has already removed
var ErrUnknownScene = errors.New("unknown map scene")

// Scene is the declarative description of one mounted map that the browser
// applies to Mapbox GL. The access token stays in the browser.
type Scene struct {
	ID      string                       `json:"id"`
	Init    MountOptions                 `json:"init"`
	Loaded  bool                         `json:"loaded"`
	Sources map[string]FeatureCollection `json:"sources"`
	Layers  []LineLayer                  `json:"layers"`
	Markers []Marker                     `json:"markers"`
}

// SceneRenderer is a Renderer that records scenes instead of drawing them
type SceneRenderer struct {
	mu      sync.Mutex
	widgets map[string]*SceneWidget
}

// NewSceneRenderer creates an empty scene renderer
func NewSceneRenderer() *SceneRenderer {
	return &SceneRenderer{widgets: make(map[string]*SceneWidget)}
}

// Mount records a new scene for opts.Container
func (r *SceneRenderer) Mount(ctx context.Context, opts MountOptions) (Widget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Container == "" {
		return nil, fmt.Errorf("mount: empty container")
	}

	w := &SceneWidget{
		renderer: r,
		scene: Scene{
			ID:      uuid.NewString(),
			Init:    opts,
			Sources: make(map[string]FeatureCollection),
		},
	}

	r.mu.Lock()
	r.widgets[w.scene.ID] = w
	r.mu.Unlock()

	return w, nil
}

// Load fires the load signal of a mounted scene
func (r *SceneRenderer) Load(id string) error {
	w, err := r.widget(id)
	if err != nil {
		return err
	}
	w.Load()
	return nil
}

// Scene returns a snapshot of a mounted scene
func (r *SceneRenderer) Scene(id string) (Scene, error) {
	w, err := r.widget(id)
	if err != nil {
		return Scene{}, err
	}
	return w.Snapshot(), nil
}

// Mounted returns the number of scenes not yet removed
func (r *SceneRenderer) Mounted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.widgets)
}

func (r *SceneRenderer) widget(id string) (*SceneWidget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.widgets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScene, id)
	}
	return w, nil
}

func (r *SceneRenderer) forget(id string) {
	r.mu.Lock()
	delete(r.widgets, id)
	r.mu.Unlock()
}

// SceneWidget is the Widget handed out by SceneRenderer
type SceneWidget struct {
	mu       sync.Mutex
	renderer *SceneRenderer
	scene    Scene
	onLoad   []func()
	removed  bool
}

// ID returns the scene id
func (w *SceneWidget) ID() string { return w.scene.ID }

// OnLoad registers fn for the load signal, or runs it now if already loaded
func (w *SceneWidget) OnLoad(fn func()) {
	w.mu.Lock()
	if w.removed {
		w.mu.Unlock()
		return
	}
	if !w.scene.Loaded {
		w.onLoad = append(w.onLoad, fn)
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()
	fn()
}

// Load marks the scene loaded and runs the pending handlers once
func (w *SceneWidget) Load() {
	w.mu.Lock()
	if w.removed || w.scene.Loaded {
		w.mu.Unlock()
		return
	}
	w.scene.Loaded = true
	handlers := w.onLoad
	w.onLoad = nil
	w.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// AddSource registers a feature collection under id
func (w *SceneWidget) AddSource(id string, fc FeatureCollection) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.usableLocked(); err != nil {
		return err
	}
	if _, exists := w.scene.Sources[id]; exists {
		return fmt.Errorf("source %q already exists", id)
	}
	w.scene.Sources[id] = fc
	return nil
}

// AddLayer adds a line layer over an existing source
func (w *SceneWidget) AddLayer(layer LineLayer) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.usableLocked(); err != nil {
		return err
	}
	if _, exists := w.scene.Sources[layer.Source]; !exists {
		return fmt.Errorf("layer %q: source %q does not exist", layer.ID, layer.Source)
	}
	w.scene.Layers = append(w.scene.Layers, layer)
	return nil
}

// AddMarker places a marker
func (w *SceneWidget) AddMarker(m Marker) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.usableLocked(); err != nil {
		return err
	}
	w.scene.Markers = append(w.scene.Markers, m)
	return nil
}

// Remove destroys the scene; further calls on the widget fail
func (w *SceneWidget) Remove() error {
	w.mu.Lock()
	if w.removed {
		w.mu.Unlock()
		return nil
	}
	w.removed = true
	w.onLoad = nil
	w.mu.Unlock()

	w.renderer.forget(w.scene.ID)
	return nil
}

// Snapshot copies the current scene
func (w *SceneWidget) Snapshot() Scene {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.scene
	s.Sources = make(map[string]FeatureCollection, len(w.scene.Sources))
	for id, fc := range w.scene.Sources {
		s.Sources[id] = fc
	}
	s.Layers = append([]LineLayer{}, w.scene.Layers...)
	s.Markers = append([]Marker{}, w.scene.Markers...)
	return s
}

func (w *SceneWidget) usableLocked() error {
	if w.removed {
		return ErrWidgetRemoved
	}
	if !w.scene.Loaded {
		return fmt.Errorf("widget %s not loaded", w.scene.ID)
	}
	return nil
}
