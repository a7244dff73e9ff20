package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a schema definition error with context
type ValidationError struct {
	Entity  string
	Field   string
	Message string
	Hint    string
	Err     error
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder

	if e.Entity != "" {
		b.WriteString(e.Entity)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

// Unwrap returns the underlying typed error, if any
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// SchemaValidator checks entity schema definitions
type SchemaValidator struct {
	schemas map[string]*EntitySchema
	errors  []*ValidationError
}

// NewSchemaValidator creates a new schema validator
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		schemas: make(map[string]*EntitySchema),
		errors:  make([]*ValidationError, 0),
	}
}

// ValidateStructural validates a single schema without cross-entity checks.
// Used at registration time so relationships may reference entities that are
// registered later.
func (v *SchemaValidator) ValidateStructural(s *EntitySchema) error {
	v.errors = make([]*ValidationError, 0)

	v.validateWireNames(s)
	v.validateSynonyms(s)
	v.validateConstraints(s)
	v.validateAttachments(s)

	return v.result()
}

// Validate validates a schema including relationship targets against the registry
func (v *SchemaValidator) Validate(s *EntitySchema, registry map[string]*EntitySchema) error {
	if err := v.ValidateStructural(s); err != nil {
		return err
	}
	v.schemas = registry
	v.validateRelationships(s)
	return v.result()
}

// validateWireNames enforces unique wire names among non-protected fields
func (v *SchemaValidator) validateWireNames(s *EntitySchema) {
	seen := make(map[string]*Field)
	for _, f := range s.fields {
		if f.Protected {
			continue
		}
		if first, exists := seen[f.WireName]; exists {
			v.addError(&ValidationError{
				Entity:  s.Name,
				Field:   f.Key,
				Message: fmt.Sprintf("wire name %q is already used by %s", f.WireName, first.Key),
				Hint:    "set a distinct JSON name or mark one of the fields protected",
				Err: &WireNameCollisionError{
					Entity:   s.Name,
					WireName: f.WireName,
					First:    first.Key,
					Second:   f.Key,
				},
			})
			continue
		}
		seen[f.WireName] = f
	}
}

func (v *SchemaValidator) validateSynonyms(s *EntitySchema) {
	for _, f := range s.fields {
		if f.Kind != KindSynonym {
			continue
		}
		target, ok := s.byKey[f.SynonymOf]
		if !ok {
			v.addError(&ValidationError{
				Entity:  s.Name,
				Field:   f.Key,
				Message: fmt.Sprintf("synonym target %q is not declared", f.SynonymOf),
			})
			continue
		}
		if target.Kind != KindColumn {
			v.addError(&ValidationError{
				Entity:  s.Name,
				Field:   f.Key,
				Message: fmt.Sprintf("synonym target %q is a %s, not a column", f.SynonymOf, target.Kind),
			})
		}
	}
}

func (v *SchemaValidator) validateConstraints(s *EntitySchema) {
	for _, f := range s.fields {
		for _, c := range f.Constraints {
			switch c.Type {
			case ConstraintMinLength, ConstraintMaxLength:
				if !f.Type.IsText() {
					v.addError(&ValidationError{
						Entity:  s.Name,
						Field:   f.Key,
						Message: fmt.Sprintf("%s constraint requires a text field, got %s", c.Type, f.Type),
					})
				}
				if n, ok := c.Value.(int); !ok || n < 0 {
					v.addError(&ValidationError{
						Entity:  s.Name,
						Field:   f.Key,
						Message: fmt.Sprintf("%s constraint must be a non-negative int", c.Type),
					})
				}
			case ConstraintMin, ConstraintMax:
				if !f.Type.IsNumeric() {
					v.addError(&ValidationError{
						Entity:  s.Name,
						Field:   f.Key,
						Message: fmt.Sprintf("%s constraint requires a numeric field, got %s", c.Type, f.Type),
					})
				}
			case ConstraintPattern:
				expr, ok := c.Value.(string)
				if !ok {
					v.addError(&ValidationError{Entity: s.Name, Field: f.Key, Message: "pattern must be a string"})
					continue
				}
				if _, err := regexp.Compile(expr); err != nil {
					v.addError(&ValidationError{
						Entity:  s.Name,
						Field:   f.Key,
						Message: fmt.Sprintf("invalid pattern: %v", err),
					})
				}
			}
		}
	}
}

func (v *SchemaValidator) validateAttachments(s *EntitySchema) {
	for _, f := range s.fields {
		if f.Attachment && f.Kind != KindColumn {
			v.addError(&ValidationError{
				Entity:  s.Name,
				Field:   f.Key,
				Message: "attachments must be declared as columns",
			})
		}
	}
}

func (v *SchemaValidator) validateRelationships(s *EntitySchema) {
	for _, f := range s.fields {
		if f.Kind != KindRelationship {
			continue
		}
		if _, ok := v.schemas[f.Target]; !ok {
			v.addError(&ValidationError{
				Entity:  s.Name,
				Field:   f.Key,
				Message: fmt.Sprintf("relationship target %q is not registered", f.Target),
			})
		}
		if f.ForeignKey != "" {
			if _, ok := s.byKey[f.ForeignKey]; !ok {
				v.addError(&ValidationError{
					Entity:  s.Name,
					Field:   f.Key,
					Message: fmt.Sprintf("foreign key column %q is not declared", f.ForeignKey),
				})
			}
		}
	}
}

func (v *SchemaValidator) addError(err *ValidationError) {
	v.errors = append(v.errors, err)
}

// result folds collected errors into one. A single error is returned as is
// so callers can errors.As into it.
func (v *SchemaValidator) result() error {
	switch len(v.errors) {
	case 0:
		return nil
	case 1:
		return v.errors[0]
	}
	var errMsgs []string
	for _, err := range v.errors {
		errMsgs = append(errMsgs, err.Error())
	}
	return fmt.Errorf("schema validation failed with %d errors:\n%s",
		len(v.errors), strings.Join(errMsgs, "\n"))
}

// Errors returns the errors collected by the last run
func (v *SchemaValidator) Errors() []*ValidationError {
	return v.errors
}
