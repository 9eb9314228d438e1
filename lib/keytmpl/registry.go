package keytmpl

import (
	"fmt"
	"sync"
)

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// Registry is a named collection of templates plus a set of registry-scoped
// transformation functions shared by all of them.
//
// A single lock guards the name table and the function table together:
// RegisterFunc must update the registry table and inject into every stored
// template as one observable unit, so a concurrent reader never sees a
// template with only part of the registry functions applied.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
	funcs     map[string]Func
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]*Template),
		funcs:     make(map[string]Func),
	}
}

// Register stores a template under a unique name. Registering an existing
// name fails without mutating the registry. On success every registry-scoped
// function known at this point is injected into the template, so it is fully
// enabled the moment Register returns.
//
// Thread-safety: this method is thread-safe and can be called concurrently.
func (r *Registry) Register(name string, t *Template) error {
	if t == nil {
		return fmt.Errorf("keytmpl: cannot register nil template %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[name]; exists {
		return fmt.Errorf("keytmpl: template %q already registered", name)
	}

	r.templates[name] = t
	for fname, fn := range r.funcs {
		t.injectFunc(fname, fn)
	}
	return nil
}

// RegisterFunc stores a registry-scoped transformation function and injects
// it into every currently registered template. An existing name is silently
// overridden registry-wide. Templates registered later receive the function
// at Register time, so availability is identical regardless of registration
// order.
//
// Thread-safety: this method is thread-safe and can be called concurrently.
func (r *Registry) RegisterFunc(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.funcs[name] = fn
	for _, t := range r.templates {
		t.injectFunc(name, fn)
	}
}

// Get returns the template registered under name.
//
// Thread-safety: this method is thread-safe and can be called concurrently.
func (r *Registry) Get(name string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[name]
	return t, ok
}

// Names returns all registered template names in unspecified order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}
