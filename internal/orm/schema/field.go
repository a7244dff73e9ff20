package schema

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"
)

// DerivedMarker prefixes keys whose public attribute lives under another name.
// An attachment column stored as "_avatar" is reached through "avatar".
const DerivedMarker = "_"

// Validator checks a single value for a field
type Validator interface {
	Validate(value interface{}) error
}

// Field describes one attribute of an entity type: how it is stored, what it
// is called on the wire and who may read or write it.
type Field struct {
	Key      string
	Kind     StorageKind
	Type     PrimitiveType
	WireName string

	// KindSynonym: the column this field aliases
	SynonymOf string

	// KindRelationship
	Target     string
	Uselist    bool
	ForeignKey string

	// Visibility
	Protected  bool // never exported or imported
	Readonly   bool // exported, rejected on import
	Unreadable bool // blank incoming values are ignored
	Attachment bool // assignment is delegated to an attachment object

	Nullable bool
	Required bool
	Default  interface{}

	Constraints []Constraint
	Validators  []Validator

	// Presentation hints surfaced in the metadata catalog
	Label     string
	Watermark string
	Example   string
	Message   string
}

// AttributeName returns the key with the derived marker stripped
func (f *Field) AttributeName() string {
	return strings.TrimPrefix(f.Key, DerivedMarker)
}

// IsToMany reports whether the field is a collection relationship
func (f *Field) IsToMany() bool {
	return f.Kind == KindRelationship && f.Uselist
}

// IsPrimary reports whether the field carries a primary key constraint
func (f *Field) IsPrimary() bool {
	_, ok := f.Constraint(ConstraintPrimary)
	return ok
}

// Constraint returns the first constraint of the given type
func (f *Field) Constraint(t ConstraintType) (Constraint, bool) {
	for _, c := range f.Constraints {
		if c.Type == t {
			return c, true
		}
	}
	return Constraint{}, false
}

// CanValidate reports whether the field takes part in hook auto-wiring.
// Only plain columns with compiled validators qualify.
func (f *Field) CanValidate() bool {
	return f.Kind == KindColumn && len(f.Validators) > 0
}

// Validate runs every validator attached to the field and returns the value
// unchanged when all of them pass.
func (f *Field) Validate(value interface{}) (interface{}, error) {
	for _, v := range f.Validators {
		if err := v.Validate(value); err != nil {
			return nil, &FieldValidationError{Field: f.Key, Err: err}
		}
	}
	return value, nil
}

// String implements fmt.Stringer
func (f *Field) String() string {
	return fmt.Sprintf("%s(%s %s -> %s)", f.Kind, f.Key, f.Type, f.WireName)
}

// DefaultWireName derives the JSON key for an attribute key
func DefaultWireName(key string) string {
	return inflect.CamelizeDownFirst(strings.TrimPrefix(key, DerivedMarker))
}

// FieldBuilder declares a field fluently
type FieldBuilder struct {
	desc *Field
}

// Column starts a plain column declaration
func Column(key string, t PrimitiveType) *FieldBuilder {
	return &FieldBuilder{desc: &Field{Key: key, Kind: KindColumn, Type: t}}
}

// Synonym declares key as an alias of the column named target
func Synonym(key, target string) *FieldBuilder {
	return &FieldBuilder{desc: &Field{Key: key, Kind: KindSynonym, SynonymOf: target}}
}

// Relationship declares a to-one relationship to the target entity
func Relationship(key, target string) *FieldBuilder {
	return &FieldBuilder{desc: &Field{Key: key, Kind: KindRelationship, Type: TypeEntity, Target: target}}
}

// Computed declares a read-side attribute that is never persisted
func Computed(key string, t PrimitiveType) *FieldBuilder {
	return &FieldBuilder{desc: &Field{Key: key, Kind: KindComputed, Type: t}}
}

// Many turns a relationship into a to-many collection
func (b *FieldBuilder) Many() *FieldBuilder {
	b.desc.Uselist = true
	return b
}

// ForeignKey names the column holding the related entity's key
func (b *FieldBuilder) ForeignKey(column string) *FieldBuilder {
	b.desc.ForeignKey = column
	return b
}

// JSON overrides the wire name
func (b *FieldBuilder) JSON(name string) *FieldBuilder {
	b.desc.WireName = name
	return b
}

// Protected hides the field on the wire in both directions
func (b *FieldBuilder) Protected() *FieldBuilder {
	b.desc.Protected = true
	return b
}

// Readonly exports the field but rejects it on import
func (b *FieldBuilder) Readonly() *FieldBuilder {
	b.desc.Readonly = true
	return b
}

// Unreadable makes imports skip blank values for the field
func (b *FieldBuilder) Unreadable() *FieldBuilder {
	b.desc.Unreadable = true
	return b
}

// Attachment marks the field as a file upload handled by a delegate
func (b *FieldBuilder) Attachment() *FieldBuilder {
	b.desc.Attachment = true
	b.desc.Type = TypeFile
	return b
}

// Nullable allows the field to hold null
func (b *FieldBuilder) Nullable() *FieldBuilder {
	b.desc.Nullable = true
	return b
}

// Required marks the field as required in the metadata catalog
func (b *FieldBuilder) Required() *FieldBuilder {
	b.desc.Required = true
	return b
}

// Default sets the value a new entity starts with
func (b *FieldBuilder) Default(v interface{}) *FieldBuilder {
	b.desc.Default = v
	return b.constraint(ConstraintDefault, v)
}

// Primary marks the field as the primary key
func (b *FieldBuilder) Primary() *FieldBuilder {
	return b.constraint(ConstraintPrimary, true)
}

// Auto marks the field as assigned by the database
func (b *FieldBuilder) Auto() *FieldBuilder {
	return b.constraint(ConstraintAuto, true)
}

// Unique adds a unique constraint
func (b *FieldBuilder) Unique() *FieldBuilder {
	return b.constraint(ConstraintUnique, true)
}

// Index adds an index hint
func (b *FieldBuilder) Index() *FieldBuilder {
	return b.constraint(ConstraintIndex, true)
}

// MinLength bounds the rune count from below
func (b *FieldBuilder) MinLength(n int) *FieldBuilder {
	return b.constraint(ConstraintMinLength, n)
}

// MaxLength bounds the rune count from above
func (b *FieldBuilder) MaxLength(n int) *FieldBuilder {
	return b.constraint(ConstraintMaxLength, n)
}

// Min bounds a numeric value from below
func (b *FieldBuilder) Min(v interface{}) *FieldBuilder {
	return b.constraint(ConstraintMin, v)
}

// Max bounds a numeric value from above
func (b *FieldBuilder) Max(v interface{}) *FieldBuilder {
	return b.constraint(ConstraintMax, v)
}

// Pattern requires string values to match a regular expression
func (b *FieldBuilder) Pattern(expr string) *FieldBuilder {
	return b.constraint(ConstraintPattern, expr)
}

// Label sets the human readable caption
func (b *FieldBuilder) Label(s string) *FieldBuilder {
	b.desc.Label = s
	return b
}

// Watermark sets the input placeholder text
func (b *FieldBuilder) Watermark(s string) *FieldBuilder {
	b.desc.Watermark = s
	return b
}

// Example sets a sample value for documentation
func (b *FieldBuilder) Example(s string) *FieldBuilder {
	b.desc.Example = s
	return b
}

// Message sets the error text shown when validation fails
func (b *FieldBuilder) Message(s string) *FieldBuilder {
	b.desc.Message = s
	return b
}

// Validate appends a custom validator
func (b *FieldBuilder) Validate(v Validator) *FieldBuilder {
	b.desc.Validators = append(b.desc.Validators, v)
	return b
}

// Descriptor returns the finished field
func (b *FieldBuilder) Descriptor() *Field {
	if b.desc.WireName == "" {
		b.desc.WireName = DefaultWireName(b.desc.Key)
	}
	return b.desc
}

func (b *FieldBuilder) constraint(t ConstraintType, v interface{}) *FieldBuilder {
	b.desc.Constraints = append(b.desc.Constraints, Constraint{Type: t, Value: v})
	return b
}
