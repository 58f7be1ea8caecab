package macro

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrMacroAlreadyRegistered indicates a Register call for a key that is
// already taken.
var ErrMacroAlreadyRegistered = errors.New("macro already registered")

// Registry holds the named expansions available to an expander. It is
// RWMutex-guarded so diagnostics tooling may list templates from other
// goroutines.
type Registry struct {
	mu     sync.RWMutex
	macros map[string]*Expansion
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{macros: make(map[string]*Expansion)}
}

// Register validates and adds an expansion. The registry takes ownership of
// the expansion; callers must not mutate it afterwards.
func (r *Registry) Register(e *Expansion) error {
	if err := e.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.macros[e.Key]; exists {
		return fmt.Errorf("%w: %s", ErrMacroAlreadyRegistered, e.Key)
	}
	r.macros[e.Key] = e
	return nil
}

// Lookup returns the expansion for a key.
// Returns ErrUnknownMacro if the key is not registered.
func (r *Registry) Lookup(key string) (*Expansion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.macros[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMacro, key)
	}
	return e, nil
}

// Keys returns the sorted keys of every registered expansion.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.macros))
	for k := range r.macros {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Global registry instance for package-level access. SetGlobal exists for
// tests and for hosts that ship their own template catalog.
var (
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
	globalRegistryMu   sync.RWMutex
)

// Global returns the process-wide Registry, empty on first use.
func Global() *Registry {
	globalRegistryOnce.Do(func() {
		globalRegistryMu.Lock()
		defer globalRegistryMu.Unlock()
		if globalRegistry == nil {
			globalRegistry = NewRegistry()
		}
	})

	globalRegistryMu.RLock()
	defer globalRegistryMu.RUnlock()
	return globalRegistry
}

// SetGlobal replaces the process-wide Registry. Call before any use of
// Global().
func SetGlobal(r *Registry) {
	globalRegistryOnce.Do(func() {})
	globalRegistryMu.Lock()
	defer globalRegistryMu.Unlock()
	globalRegistry = r
}
