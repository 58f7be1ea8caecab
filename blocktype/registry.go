package blocktype

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Sentinel errors for registry operations.
var (
	// ErrTypeNotRegistered indicates the requested block type is not in the
	// registry. Callers can use errors.Is() against it.
	//
	// Example:
	//	def, err := reg.Lookup("Oscillator")
	//	if errors.Is(err, blocktype.ErrTypeNotRegistered) { ... }
	ErrTypeNotRegistered = errors.New("block type not registered")

	// ErrTypeAlreadyRegistered indicates a Register call for a name that is
	// already taken.
	ErrTypeAlreadyRegistered = errors.New("block type already registered")
)

// Registry is the read-only lookup interface the graph core depends on.
//
// Implementations must be safe for concurrent readers; the core itself is
// single-threaded but diagnostics tooling may read the registry from other
// goroutines.
type Registry interface {
	// Lookup returns the definition for a type name.
	// Returns ErrTypeNotRegistered if the name is unknown.
	Lookup(name string) (*Definition, error)

	// IsRegistered reports whether the type name is known.
	IsRegistered(name string) bool

	// AllTypes returns the sorted names of every registered type.
	AllTypes() []string
}

// DefaultRegistry is an in-memory, RWMutex-guarded Registry that also
// supports registration.
type DefaultRegistry struct {
	mu    sync.RWMutex
	types map[string]*Definition
}

// NewRegistry creates an empty DefaultRegistry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{types: make(map[string]*Definition)}
}

// NewBuiltinRegistry creates a DefaultRegistry pre-populated with the
// builtin block types (see builtin.go).
func NewBuiltinRegistry() *DefaultRegistry {
	r := NewRegistry()
	for _, def := range builtinDefinitions() {
		// Builtins are validated by their tests; a failure here is a
		// programming error.
		if err := r.Register(def); err != nil {
			panic(fmt.Sprintf("blocktype: builtin registration failed: %v", err))
		}
	}
	return r
}

// Register validates and adds a definition. The registry takes ownership of
// the definition; callers must not mutate it afterwards.
func (r *DefaultRegistry) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrTypeAlreadyRegistered, def.Name)
	}
	r.types[def.Name] = def
	return nil
}

// Lookup returns the definition for a type name.
func (r *DefaultRegistry) Lookup(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotRegistered, name)
	}
	return def, nil
}

// IsRegistered reports whether the type name is known.
func (r *DefaultRegistry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.types[name]
	return ok
}

// AllTypes returns the sorted names of every registered type.
func (r *DefaultRegistry) AllTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Global registry instance for package-level access, lazily initialized with
// the builtin set. SetGlobal exists for tests and for hosts that supply
// their own type catalog.
var (
	globalRegistry     Registry
	globalRegistryOnce sync.Once
	globalRegistryMu   sync.RWMutex
)

// Global returns the process-wide Registry, initializing it with the builtin
// definitions on first use.
func Global() Registry {
	globalRegistryOnce.Do(func() {
		globalRegistryMu.Lock()
		defer globalRegistryMu.Unlock()
		if globalRegistry == nil {
			globalRegistry = NewBuiltinRegistry()
		}
	})

	globalRegistryMu.RLock()
	defer globalRegistryMu.RUnlock()
	return globalRegistry
}

// SetGlobal replaces the process-wide Registry. Intended for tests and for
// embedding hosts; call before any use of Global().
func SetGlobal(r Registry) {
	globalRegistryOnce.Do(func() {})
	globalRegistryMu.Lock()
	defer globalRegistryMu.Unlock()
	globalRegistry = r
}
