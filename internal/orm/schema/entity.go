package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-openapi/inflect"
)

// Entity is a live object governed by an EntitySchema. Keys are field keys,
// or attribute names for derived fields.
type Entity interface {
	EntityName() string
	Get(key string) interface{}
	Set(key string, value interface{})
}

// ValidationHook runs before a value is assigned to a field and returns the
// value to store.
type ValidationHook func(entity Entity, key string, value interface{}) (interface{}, error)

// IterOptions selects which storage kinds IterColumns yields
type IterOptions struct {
	Synonyms      bool
	Relationships bool
}

// AllColumns yields columns, synonyms and relationships
var AllColumns = IterOptions{Synonyms: true, Relationships: true}

// EntitySchema is the ordered field registry of one entity type
type EntitySchema struct {
	Name          string
	TableName     string
	Documentation string

	fields []*Field
	byKey  map[string]*Field
	byWire map[string]*Field

	hooks map[string]ValidationHook
	mu    sync.RWMutex
}

// NewEntitySchema creates an empty schema for the named entity type
func NewEntitySchema(name string) *EntitySchema {
	return &EntitySchema{
		Name:      name,
		TableName: inflect.Underscore(name),
		byKey:     make(map[string]*Field),
		byWire:    make(map[string]*Field),
		hooks:     make(map[string]ValidationHook),
	}
}

// AddField appends a field declaration. Keys must be unique.
func (s *EntitySchema) AddField(f *Field) error {
	if f.Key == "" {
		return fmt.Errorf("entity %s: field key is required", s.Name)
	}
	if _, exists := s.byKey[f.Key]; exists {
		return fmt.Errorf("entity %s: field %s is already declared", s.Name, f.Key)
	}
	if f.WireName == "" {
		f.WireName = DefaultWireName(f.Key)
	}

	s.fields = append(s.fields, f)
	s.byKey[f.Key] = f
	if _, taken := s.byWire[f.WireName]; !taken && !f.Protected {
		s.byWire[f.WireName] = f
	}
	return nil
}

// Add declares several fields from their builders, stopping at the first error
func (s *EntitySchema) Add(builders ...*FieldBuilder) error {
	for _, b := range builders {
		if err := s.AddField(b.Descriptor()); err != nil {
			return err
		}
	}
	return nil
}

// MustAdd is like Add but panics on error. Intended for package-level declarations.
func (s *EntitySchema) MustAdd(builders ...*FieldBuilder) *EntitySchema {
	if err := s.Add(builders...); err != nil {
		panic(err)
	}
	return s
}

// Fields returns every declared field in declaration order
func (s *EntitySchema) Fields() []*Field {
	out := make([]*Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks a field up by key
func (s *EntitySchema) Field(key string) (*Field, bool) {
	f, ok := s.byKey[key]
	return f, ok
}

// PrimaryKey returns the primary key column
func (s *EntitySchema) PrimaryKey() (*Field, error) {
	for _, f := range s.fields {
		if f.Kind == KindColumn && f.IsPrimary() {
			return f, nil
		}
	}
	return nil, fmt.Errorf("entity %s has no primary key", s.Name)
}

// IterColumns yields columns and computed fields in declaration order, then
// synonyms, then relationships, as selected by opts.
func (s *EntitySchema) IterColumns(opts IterOptions) []*Field {
	result := make([]*Field, 0, len(s.fields))
	for _, f := range s.fields {
		if f.Kind == KindColumn || f.Kind == KindComputed {
			result = append(result, f)
		}
	}
	if opts.Synonyms {
		for _, f := range s.fields {
			if f.Kind == KindSynonym {
				result = append(result, f)
			}
		}
	}
	if opts.Relationships {
		for _, f := range s.fields {
			if f.Kind == KindRelationship {
				result = append(result, f)
			}
		}
	}
	return result
}

// IterJSONColumns yields the fields that take part in wire traffic. Protected
// fields never do; readonly ones only when includeReadonly is set.
func (s *EntitySchema) IterJSONColumns(includeReadonly bool, opts IterOptions) []*Field {
	all := s.IterColumns(opts)
	result := all[:0:0]
	for _, f := range all {
		if f.Protected || (!includeReadonly && f.Readonly) {
			continue
		}
		result = append(result, f)
	}
	return result
}

// Resolve finds a field by key or wire name. ref may also be a *Field, which
// is returned as is.
func (s *EntitySchema) Resolve(ref interface{}) (*Field, error) {
	switch v := ref.(type) {
	case *Field:
		return v, nil
	case string:
		if f, ok := s.byKey[v]; ok {
			return f, nil
		}
		if f, ok := s.byWire[v]; ok {
			return f, nil
		}
		return nil, &UnknownFieldError{Entity: s.Name, Name: v}
	default:
		return nil, &UnknownFieldError{Entity: s.Name, Name: fmt.Sprint(ref)}
	}
}

// Column resolves ref like Resolve and follows synonyms to the column they alias
func (s *EntitySchema) Column(ref interface{}) (*Field, error) {
	f, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if f.Kind != KindSynonym {
		return f, nil
	}
	target, ok := s.byKey[f.SynonymOf]
	if !ok {
		return nil, &UnknownFieldError{Entity: s.Name, Name: f.SynonymOf}
	}
	return target, nil
}

// ConvertValue coerces a raw incoming value for the referenced field. Only
// booleans are coerced: any non-bool becomes true when it reads "true" in any
// case. Everything else passes through untouched.
func (s *EntitySchema) ConvertValue(ref interface{}, value interface{}) (interface{}, error) {
	c, err := s.Column(ref)
	if err != nil {
		return nil, err
	}
	if c.Kind == KindColumn && c.Type == TypeBool {
		if _, ok := value.(bool); !ok {
			return strings.EqualFold(fmt.Sprint(value), "true"), nil
		}
	}
	return value, nil
}

// HookName is the conventional validation hook name for a field
func HookName(f *Field) string {
	return "validate_" + f.Key
}

// RegisterValidationHook installs an author supplied hook for the field key.
// It replaces any hook registered earlier under the same name.
func (s *EntitySchema) RegisterValidationHook(key string, hook ValidationHook) error {
	f, ok := s.byKey[key]
	if !ok {
		return &UnknownFieldError{Entity: s.Name, Name: key}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[HookName(f)] = hook
	return nil
}

// ValidationHook returns the hook registered for the field, if any
func (s *EntitySchema) ValidationHook(f *Field) (ValidationHook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hook, ok := s.hooks[HookName(f)]
	return hook, ok
}

// InstallValidationHooks synthesizes a default hook for every validatable
// column that has none yet. Existing hooks, author supplied or synthesized
// by an earlier call, are left alone. Returns the number of hooks added.
func (s *EntitySchema) InstallValidationHooks() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, f := range s.IterColumns(IterOptions{}) {
		if !f.CanValidate() {
			continue
		}
		name := HookName(f)
		if _, defined := s.hooks[name]; defined {
			continue
		}
		field := f
		s.hooks[name] = func(_ Entity, _ string, value interface{}) (interface{}, error) {
			return field.Validate(value)
		}
		added++
	}
	return added
}

// HookCount returns the number of registered validation hooks
func (s *EntitySchema) HookCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hooks)
}
