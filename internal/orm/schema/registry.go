package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages all entity schemas of an application
type Registry struct {
	schemas   map[string]*EntitySchema
	validator *SchemaValidator
	mu        sync.RWMutex
}

// NewRegistry creates a new schema registry
func NewRegistry() *Registry {
	return &Registry{
		schemas:   make(map[string]*EntitySchema),
		validator: NewSchemaValidator(),
	}
}

// Register validates and stores an entity schema
func (r *Registry) Register(s *EntitySchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[s.Name]; exists {
		return fmt.Errorf("entity %s is already registered", s.Name)
	}

	// Relationship targets are checked by ValidateAll to allow forward references
	if err := r.validator.ValidateStructural(s); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", s.Name, err)
	}

	r.schemas[s.Name] = s
	return nil
}

// Get retrieves an entity schema by name
func (r *Registry) Get(name string) (*EntitySchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.schemas[name]
	return s, exists
}

// List returns all entity names sorted alphabetically
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateAll checks cross-entity references of every registered schema
func (r *Registry) ValidateAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range sortedKeys(r.schemas) {
		v := NewSchemaValidator()
		if err := v.Validate(r.schemas[name], r.schemas); err != nil {
			return fmt.Errorf("relationship validation failed: %w", err)
		}
	}
	return nil
}

// Count returns the number of registered schemas
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.schemas)
}

func sortedKeys(m map[string]*EntitySchema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
