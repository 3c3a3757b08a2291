// Package registry provides the ordered host-extractor registry.
package registry

import (
	"video-extractor-go/pkg/interfaces"
)

// Registry holds host extractors in registration order. It is populated
// once during startup and read-only afterwards, so lookups need no
// locking.
type Registry struct {
	extractors []interfaces.HostExtractor
	byName     map[string]interfaces.HostExtractor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]interfaces.HostExtractor),
	}
}

// Register appends an extractor. Registration order determines match
// precedence.
func (r *Registry) Register(e interfaces.HostExtractor) {
	r.extractors = append(r.extractors, e)
	r.byName[e.Name()] = e
}

// Detect returns the first extractor whose predicate matches any of the
// given URLs, evaluated in registration order, or nil.
func (r *Registry) Detect(urls ...string) interfaces.HostExtractor {
	for _, e := range r.extractors {
		for _, u := range urls {
			if u != "" && e.Match(u) {
				return e
			}
		}
	}
	return nil
}

// GetByName returns an extractor by its name, or nil.
func (r *Registry) GetByName(name string) interfaces.HostExtractor {
	return r.byName[name]
}

// All returns the registered extractors in registration order.
func (r *Registry) All() []interfaces.HostExtractor {
	result := make([]interfaces.HostExtractor, len(r.extractors))
	copy(result, r.extractors)
	return result
}

// Names returns the extractor names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.extractors))
	for _, e := range r.extractors {
		names = append(names, e.Name())
	}
	return names
}
