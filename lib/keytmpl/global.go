package keytmpl

import "sync"

// --------------------------------------------------------------------------
// Process-Wide Default Registry
// --------------------------------------------------------------------------

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide registry, creating it on first access.
// It behaves exactly like a registry from NewRegistry and lives for the
// lifetime of the process; it exists so independent packages can share
// templates without threading a registry through their APIs.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register stores a template in the default registry.
func Register(name string, t *Template) error {
	return Default().Register(name, t)
}

// RegisterFunc stores a registry-scoped function in the default registry.
func RegisterFunc(name string, fn Func) {
	Default().RegisterFunc(name, fn)
}

// Get returns a template from the default registry.
func Get(name string) (*Template, bool) {
	return Default().Get(name)
}
