// Package model binds entity schemas to the wire format. A Model exports
// entities to dictionaries keyed by wire name, imports request parameters
// into entities and describes its fields through a metadata catalog.
package model

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/conduit-lang/restbind/internal/orm/metadata"
	"github.com/conduit-lang/restbind/internal/orm/schema"
	"github.com/conduit-lang/restbind/internal/orm/validation"
)

// Model is the binding engine for one entity type
type Model struct {
	schema  *schema.EntitySchema
	logger  *zap.Logger
	factory func(m *Model) Entity
	inits   []func(e Entity) error

	catalogOnce sync.Once
	catalog     metadata.Catalog
	catalogErr  error
}

// Option configures a Model
type Option func(*Model)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithFactory replaces the Record constructor used by New
func WithFactory(fn func(m *Model) Entity) Option {
	return func(m *Model) {
		m.factory = fn
	}
}

// WithInitializer runs fn on every entity created by New, in registration
// order. Attachment delegates are usually installed here.
func WithInitializer(fn func(e Entity) error) Option {
	return func(m *Model) {
		m.inits = append(m.inits, fn)
	}
}

// Define creates the model for a schema. Declared constraints are compiled
// into validators and a default validation hook is installed for every
// validatable column that has no author supplied one.
func Define(s *schema.EntitySchema, opts ...Option) (*Model, error) {
	m := &Model{
		schema: s,
		logger: zap.NewNop(),
		factory: func(m *Model) Entity {
			return newRecord(m)
		},
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := validation.Compile(s); err != nil {
		return nil, fmt.Errorf("define %s: %w", s.Name, err)
	}
	installed := s.InstallValidationHooks()

	m.logger.Debug("model defined",
		zap.String("entity", s.Name),
		zap.Int("fields", len(s.Fields())),
		zap.Int("hooks_installed", installed))

	return m, nil
}

// MustDefine is like Define but panics on error
func MustDefine(s *schema.EntitySchema, opts ...Option) *Model {
	m, err := Define(s, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Schema returns the entity schema
func (m *Model) Schema() *schema.EntitySchema {
	return m.schema
}

// Name returns the entity name
func (m *Model) Name() string {
	return m.schema.Name
}

// New creates an empty entity with declared defaults applied
func (m *Model) New() (Entity, error) {
	e := m.factory(m)
	for _, init := range m.inits {
		if err := init(e); err != nil {
			return nil, fmt.Errorf("initialize %s: %w", m.schema.Name, err)
		}
	}
	return e, nil
}

// ImportValue coerces a raw request value for the referenced field
func (m *Model) ImportValue(ref interface{}, raw interface{}) (interface{}, error) {
	return m.schema.ConvertValue(ref, raw)
}

// Set assigns a value through the field's validation hook, the same way a
// request import does. ref is a field key, wire name or *schema.Field.
func (m *Model) Set(e Entity, ref interface{}, value interface{}) error {
	f, err := m.schema.Resolve(ref)
	if err != nil {
		return err
	}
	return m.assign(e, f, value)
}

// JSONMetadata returns the field catalog. It is built on first use and
// shared afterwards.
func (m *Model) JSONMetadata() (metadata.Catalog, error) {
	m.catalogOnce.Do(func() {
		m.catalog, m.catalogErr = metadata.Build(m.schema)
	})
	return m.catalog, m.catalogErr
}
