package maplayer

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/resqbites/matcher/internal/match"
)

// Registry hands out one controller per container, so a container never
// has two live widgets bound to it
type Registry struct {
	mu          sync.Mutex
	renderer    Renderer
	opts        Options
	controllers map[string]*Controller
}

// NewRegistry creates an empty registry mounting through renderer
func NewRegistry(renderer Renderer, opts Options) *Registry {
	return &Registry{
		renderer:    renderer,
		opts:        opts,
		controllers: make(map[string]*Controller),
	}
}

// Controller returns the controller for container, creating it on first use
func (r *Registry) Controller(container string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controllerLocked(container)
}

func (r *Registry) controllerLocked(container string) *Controller {
	c, ok := r.controllers[container]
	if !ok {
		c = NewController(r.renderer, r.opts)
		r.controllers[container] = c
	}
	return c
}

// Activate activates the container's controller. Activations and teardowns
// are serialised per registry.
func (r *Registry) Activate(ctx context.Context, container, token string, records []match.Record) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.controllerLocked(container)
	if err := c.Activate(ctx, container, token, records); err != nil {
		if c.State() == Uninitialized {
			delete(r.controllers, container)
		}
		return c, err
	}
	return c, nil
}

// Teardown tears down and forgets the container's controller
func (r *Registry) Teardown(container string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.controllers[container]
	if !ok {
		return nil
	}
	delete(r.controllers, container)
	return c.Teardown()
}

// Active lists the containers that currently hold a widget
func (r *Registry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []string
	for container, c := range r.controllers {
		if c.State() == Active {
			active = append(active, container)
		}
	}
	sort.Strings(active)
	return active
}

// Close tears down every controller
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for container, c := range r.controllers {
		if err := c.Teardown(); err != nil {
			errs = append(errs, err)
		}
		delete(r.controllers, container)
	}
	return errors.Join(errs...)
}

// Lookup returns the container's controller without creating one
func (r *Registry) Lookup(container string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.controllers[container]
	return c, ok
}
