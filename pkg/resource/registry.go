package resource

import (
	"errors"
	"fmt"
	"slices"
)

// ErrDuplicate is returned when two discovery modes try to register the same
// resource name. Duplicate registrations are a configuration error and abort
// startup rather than silently double-binding routes.
var ErrDuplicate = errors.New("resource already registered")

// Registry holds the process-wide set of registered resources. It is mutated
// only during the single-threaded registration phase at startup and read-only
// afterwards, so request serving needs no locking.
type Registry struct {
	resources []*Descriptor
	names     map[string]*Descriptor

	// ReadOnly forces every resource's allowed methods to {GET}.
	ReadOnly bool
	// Schema optionally overrides the default schema namespace used during
	// reflection.
	Schema string
}

func NewRegistry(readOnly bool, schemaName string) *Registry {
	return &Registry{
		names:    make(map[string]*Descriptor),
		ReadOnly: readOnly,
		Schema:   schemaName,
	}
}

// Add appends a descriptor, preserving insertion order for the index listing.
func (r *Registry) Add(d *Descriptor) error {
	if _, ok := r.names[d.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, d.Name)
	}
	r.names[d.Name] = d
	r.resources = append(r.resources, d)
	return nil
}

// Resources returns the registered descriptors in registration order.
func (r *Registry) Resources() []*Descriptor {
	return slices.Clone(r.resources)
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.names[name]
	return d, ok
}

// Routes maps each resource name to its URL template, the payload of the
// index endpoint.
func (r *Registry) Routes() map[string]string {
	routes := make(map[string]string, len(r.resources))
	for _, d := range r.resources {
		routes[d.Name] = d.RouteTemplate()
	}
	return routes
}
