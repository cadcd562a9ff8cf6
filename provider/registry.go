package provider

import (
	"fmt"
	"sync"
)

// AdapterRegistry manages all payment adapter implementations
type AdapterRegistry struct {
	adapters map[string]AdapterFactory
	mu       sync.RWMutex
}

// NewAdapterRegistry creates a new adapter registry
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		adapters: make(map[string]AdapterFactory),
	}
}

// Register adds a payment adapter factory to the registry
func (r *AdapterRegistry) Register(name string, factory AdapterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[name] = factory
}

// Get retrieves a payment adapter factory by name
func (r *AdapterRegistry) Get(name string) (AdapterFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.adapters[name]
	if !exists {
		return nil, NewError(KindConfig, fmt.Sprintf("payment provider '%s' is not registered", name))
	}

	return factory, nil
}

// CreateAdapter creates a new instance of a payment adapter
func (r *AdapterRegistry) CreateAdapter(name string) (PaymentAdapter, error) {
	factory, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	return factory(), nil
}

// AdapterNames returns a list of all registered adapter names
func (r *AdapterRegistry) AdapterNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}

	return names
}

// DefaultRegistry is the global default adapter registry
var DefaultRegistry = NewAdapterRegistry()

// Register registers an adapter with the default registry
func Register(name string, factory AdapterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get retrieves an adapter factory from the default registry
func Get(name string) (AdapterFactory, error) {
	return DefaultRegistry.Get(name)
}

// CreateAdapter creates an adapter instance from the default registry
func CreateAdapter(name string) (PaymentAdapter, error) {
	return DefaultRegistry.CreateAdapter(name)
}
