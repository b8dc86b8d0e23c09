// Package context keeps the host context implementations the engine can run on.
package context

import (
	"fmt"
	"sort"
	"sync"

	"github.com/govm-net/greeter/types"
)

// ContextType names a BlockchainContext implementation
type ContextType string

const (
	// MemoryContextType keeps everything in process memory
	MemoryContextType ContextType = "memory"
	// DBContextType persists block, transaction and receipt data in SQLite
	DBContextType ContextType = "db"
)

// ContextConstructor builds a BlockchainContext from implementation specific params
type ContextConstructor func(params map[string]any) (types.BlockchainContext, error)

// Registry maps context types to their constructors
type Registry struct {
	mu        sync.RWMutex
	contexts  map[ContextType]ContextConstructor
	defaultCt ContextType
}

var defaultRegistry = NewRegistry()

// NewRegistry returns an empty registry whose default type is memory.
func NewRegistry() *Registry {
	return &Registry{
		contexts:  make(map[ContextType]ContextConstructor),
		defaultCt: MemoryContextType,
	}
}

// GetRegistry returns the process wide registry
func GetRegistry() *Registry {
	return defaultRegistry
}

// Register adds a constructor; registering a type twice is an error
func (r *Registry) Register(ct ContextType, constructor ContextConstructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contexts[ct]; exists {
		return fmt.Errorf("context type %s already registered", ct)
	}
	r.contexts[ct] = constructor
	return nil
}

// SetDefault sets the type used when none is requested
func (r *Registry) SetDefault(ct ContextType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contexts[ct]; !exists {
		return fmt.Errorf("context type %s not registered", ct)
	}
	r.defaultCt = ct
	return nil
}

// Get builds a context of the given type; the empty type selects the default
func (r *Registry) Get(ct ContextType, params map[string]any) (types.BlockchainContext, error) {
	r.mu.RLock()
	if ct == "" {
		ct = r.defaultCt
	}
	constructor, exists := r.contexts[ct]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("context type %s not found", ct)
	}
	return constructor(params)
}

// DefaultContextType returns the current default type
func (r *Registry) DefaultContextType() ContextType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultCt
}

// ListRegistered returns the registered types in sorted order
func (r *Registry) ListRegistered() []ContextType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ContextType, 0, len(r.contexts))
	for ct := range r.contexts {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Register adds a constructor to the process wide registry
func Register(ct ContextType, constructor ContextConstructor) error {
	return defaultRegistry.Register(ct, constructor)
}

// SetDefault sets the default type of the process wide registry
func SetDefault(ct ContextType) error {
	return defaultRegistry.SetDefault(ct)
}

// Get builds a context from the process wide registry
func Get(ct ContextType, params map[string]any) (types.BlockchainContext, error) {
	return defaultRegistry.Get(ct, params)
}

// ListRegistered lists the types in the process wide registry
func ListRegistered() []ContextType {
	return defaultRegistry.ListRegistered()
}
