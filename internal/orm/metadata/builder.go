package metadata

import (
	"github.com/go-openapi/inflect"

	"github.com/conduit-lang/restbind/internal/orm/schema"
)

// Build enumerates every wire-visible field of the schema (readonly fields
// and relationships included, protected fields excluded) and collects their
// records. Records are inserted in field order; a later record with the same
// key replaces an earlier one.
func Build(s *schema.EntitySchema) (Catalog, error) {
	catalog := make(Catalog)
	for _, f := range s.IterJSONColumns(true, schema.AllColumns) {
		records, err := FromField(s, f)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			catalog[r.Key] = r
		}
	}
	return catalog, nil
}

// FromField describes one field. Synonyms take the shape of the column they
// alias but keep their own name and wire key. A to-one relationship with a
// foreign key also describes the key column under "<wireName>Id".
func FromField(s *schema.EntitySchema, f *schema.Field) ([]*Record, error) {
	column, err := s.Column(f)
	if err != nil {
		return nil, err
	}

	r := &Record{
		Name:      f.Key,
		Key:       f.WireName,
		Type:      typeName(column),
		Target:    column.Target,
		Required:  column.Required,
		NotNone:   !column.Nullable && column.Kind == schema.KindColumn,
		Readonly:  f.Readonly || column.Readonly,
		Protected: f.Protected,
		Primary:   column.IsPrimary(),
		Pattern:   stringConstraint(column, schema.ConstraintPattern),
		Label:     firstNonEmpty(f.Label, column.Label, inflect.Humanize(f.AttributeName())),
		Watermark: firstNonEmpty(f.Watermark, column.Watermark),
		Example:   firstNonEmpty(f.Example, column.Example),
		Message:   firstNonEmpty(f.Message, column.Message),
		Default:   column.Default,
	}
	r.MinLength = intConstraint(column, schema.ConstraintMinLength)
	r.MaxLength = intConstraint(column, schema.ConstraintMaxLength)
	if c, ok := column.Constraint(schema.ConstraintMin); ok {
		r.Minimum = c.Value
	}
	if c, ok := column.Constraint(schema.ConstraintMax); ok {
		r.Maximum = c.Value
	}

	records := []*Record{r}

	if f.Kind == schema.KindRelationship && !f.Uselist && f.ForeignKey != "" {
		fk := &Record{
			Name:     f.ForeignKey,
			Key:      f.WireName + "Id",
			Type:     schema.TypeInt.String(),
			Target:   f.Target,
			Required: f.Required,
			Readonly: f.Readonly,
			Label:    inflect.Humanize(f.ForeignKey),
		}
		if fkColumn, ok := s.Field(f.ForeignKey); ok {
			fk.Type = typeName(fkColumn)
			fk.NotNone = !fkColumn.Nullable
		}
		records = append(records, fk)
	}

	return records, nil
}

func typeName(f *schema.Field) string {
	if f.Kind == schema.KindRelationship {
		if f.Uselist {
			return "list"
		}
		return "entity"
	}
	return f.Type.String()
}

func intConstraint(f *schema.Field, t schema.ConstraintType) *int {
	c, ok := f.Constraint(t)
	if !ok {
		return nil
	}
	n, ok := c.Value.(int)
	if !ok {
		return nil
	}
	return &n
}

func stringConstraint(f *schema.Field, t schema.ConstraintType) string {
	c, ok := f.Constraint(t)
	if !ok {
		return ""
	}
	s, _ := c.Value.(string)
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
