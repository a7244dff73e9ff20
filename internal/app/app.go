// Package app declares the entity types served by restbind and binds each
// of them to a model
package app

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-openapi/inflect"
	"go.uber.org/zap"

	"github.com/conduit-lang/restbind/internal/orm/attachment"
	"github.com/conduit-lang/restbind/internal/orm/mixin"
	"github.com/conduit-lang/restbind/internal/orm/model"
	"github.com/conduit-lang/restbind/internal/orm/schema"
)

// App holds the registered schemas and their models
type App struct {
	Registry *schema.Registry

	models map[string]*model.Model // by resource name
}

// New declares the built-in entities. store backs attachment fields.
func New(store attachment.Store, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		Registry: schema.NewRegistry(),
		models:   make(map[string]*model.Model),
	}

	role := RoleSchema()
	member, err := MemberSchema()
	if err != nil {
		return nil, err
	}

	for _, s := range []*schema.EntitySchema{role, member} {
		if err := a.Registry.Register(s); err != nil {
			return nil, err
		}
	}
	if err := a.Registry.ValidateAll(); err != nil {
		return nil, err
	}

	if err := a.define(role, model.WithLogger(logger)); err != nil {
		return nil, err
	}
	if err := a.define(member,
		model.WithLogger(logger),
		model.WithInitializer(attachment.Initializer(store, member)),
		model.WithInitializer(stampCreatedAt),
	); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) define(s *schema.EntitySchema, opts ...model.Option) error {
	m, err := model.Define(s, opts...)
	if err != nil {
		return err
	}
	a.models[ResourceName(s.Name)] = m
	return nil
}

// Model finds a model by resource name ("members") or entity name ("Member")
func (a *App) Model(name string) (*model.Model, bool) {
	if m, ok := a.models[name]; ok {
		return m, true
	}
	m, ok := a.models[ResourceName(name)]
	return m, ok
}

// Resources returns the resource names in sorted order
func (a *App) Resources() []string {
	names := make([]string, 0, len(a.models))
	for name := range a.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Models returns every model ordered by resource name
func (a *App) Models() []*model.Model {
	out := make([]*model.Model, 0, len(a.models))
	for _, name := range a.Resources() {
		out = append(out, a.models[name])
	}
	return out
}

// ResourceName is the URL segment for an entity: "Member" becomes "members"
func ResourceName(entity string) string {
	return strings.ToLower(inflect.Pluralize(inflect.Underscore(entity)))
}

// RoleSchema declares Role
func RoleSchema() *schema.EntitySchema {
	s := schema.NewEntitySchema("Role").MustAdd(
		schema.Column("id", schema.TypeInt).Primary().Auto().Readonly(),
		schema.Column("name", schema.TypeString).Required().Unique().
			MinLength(2).MaxLength(32).
			Example("admin"),
	)
	s.Documentation = "A named set of permissions"
	return s
}

// MemberSchema declares Member
func MemberSchema() (*schema.EntitySchema, error) {
	s := schema.NewEntitySchema("Member").MustAdd(
		schema.Column("id", schema.TypeInt).Primary().Auto().Readonly(),
		schema.Column("title", schema.TypeString).Required().
			MinLength(2).MaxLength(100).
			Watermark("Enter a title").Example("object 1"),
		schema.Column("email", schema.TypeEmail).Nullable().Unique().
			Example("user@example.com"),
	)
	if err := (mixin.Activation{}).Apply(s); err != nil {
		return nil, err
	}
	if err := s.Add(
		schema.Column("password", schema.TypeString).Protected().Nullable(),
		schema.Column("nickname", schema.TypeString).Unreadable().Nullable().MaxLength(32),
		schema.Column("_avatar", schema.TypeString).Attachment().Nullable(),
		schema.Column("role_id", schema.TypeInt).Nullable(),
		schema.Column("created_at", schema.TypeTimestamp).Readonly().Nullable(),
		schema.Relationship("role", "Role").ForeignKey("role_id"),
		schema.Synonym("name", "title").JSON("fullName").Label("Full name"),
	); err != nil {
		return nil, err
	}
	s.Documentation = "A person using the service"

	if err := s.RegisterValidationHook("email", normalizeEmail(s)); err != nil {
		return nil, err
	}
	return s, nil
}

// normalizeEmail lowercases addresses before the declared checks run. An
// empty address clears the column.
func normalizeEmail(s *schema.EntitySchema) schema.ValidationHook {
	return func(_ schema.Entity, key string, value interface{}) (interface{}, error) {
		str, ok := value.(string)
		if !ok {
			return value, nil
		}
		str = strings.ToLower(strings.TrimSpace(str))
		if str == "" {
			return nil, nil
		}

		f, ok := s.Field(key)
		if !ok {
			return nil, &schema.UnknownFieldError{Entity: s.Name, Name: key}
		}
		return f.Validate(str)
	}
}

func stampCreatedAt(e model.Entity) error {
	e.Set("created_at", time.Now().UTC())
	return nil
}

// String describes the app for logs
func (a *App) String() string {
	return fmt.Sprintf("app(%s)", strings.Join(a.Resources(), ", "))
}
