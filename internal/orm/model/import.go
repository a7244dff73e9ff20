package model

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/restbind/internal/orm/schema"
	"github.com/conduit-lang/restbind/internal/web/request"
)

// Param is one field matched against a request parameter
type Param struct {
	Field *schema.Field
	Value interface{}
}

// ExtractDataFromRequest matches the request against the wire-visible
// fields of the entity type. A form value wins over an uploaded file with
// the same name; for files only the first one counts. Supplying a readonly
// field fails with an InvalidParameterError before anything is returned.
func (m *Model) ExtractDataFromRequest(req *request.Request) ([]Param, error) {
	fields := m.schema.IterJSONColumns(true, schema.AllColumns)
	params := make([]Param, 0, len(fields))

	for _, f := range fields {
		name := f.WireName
		if f.Readonly && req.Has(name) {
			return nil, &InvalidParameterError{Entity: m.schema.Name, Param: name}
		}

		if v, ok := req.Param(name); ok {
			params = append(params, Param{Field: f, Value: v})
			continue
		}
		if file, ok := req.File(name); ok {
			params = append(params, Param{Field: f, Value: file})
		}
	}
	return params, nil
}

// UpdateFromRequest assigns every supplied parameter to e.
//
// Attachment fields hand uploaded files to the entity's attachment delegate
// and ignore any other value. Unreadable fields skip blank values. All other
// values are coerced with ImportValue and assigned through the field's
// validation hook.
func (m *Model) UpdateFromRequest(e Entity, req *request.Request) error {
	params, err := m.ExtractDataFromRequest(req)
	if err != nil {
		return err
	}

	for _, p := range params {
		f := p.Field

		if f.Attachment {
			if err := m.attach(e, req, f, p.Value); err != nil {
				return err
			}
			continue
		}

		if f.Unreadable && isBlank(p.Value) {
			continue
		}

		value, err := m.ImportValue(f, p.Value)
		if err != nil {
			return err
		}
		if err := m.assign(e, f, value); err != nil {
			return err
		}
	}
	return nil
}

// FromRequest creates a new entity, adds it to the session and fills it
// from the request. The session is not committed. On error the entity has
// already been added; rolling back is up to the caller.
func (m *Model) FromRequest(session Session, req *request.Request) (Entity, error) {
	e, err := m.New()
	if err != nil {
		return nil, err
	}
	session.Add(e)

	if err := m.UpdateFromRequest(e, req); err != nil {
		return nil, err
	}
	return e, nil
}

func (m *Model) attach(e Entity, req *request.Request, f *schema.Field, value interface{}) error {
	file, ok := value.(request.UploadedFile)
	if !ok || file == nil {
		m.logger.Debug("ignoring non-file value for attachment",
			zap.String("entity", m.schema.Name),
			zap.String("field", f.Key))
		return nil
	}

	delegate, ok := e.Get(f.AttributeName()).(AttachmentDelegate)
	if !ok {
		return fmt.Errorf("%s.%s: %w", m.schema.Name, f.AttributeName(), ErrNoAttachmentDelegate)
	}
	return delegate.FromRequest(req, f, file)
}

// assign runs the validation hook, if any, and sets the attribute. Synonyms
// write through to the column they alias.
func (m *Model) assign(e Entity, f *schema.Field, value interface{}) error {
	target := f
	if f.Kind == schema.KindSynonym {
		column, err := m.schema.Column(f)
		if err != nil {
			return err
		}
		target = column
	}

	if hook, ok := m.schema.ValidationHook(target); ok {
		validated, err := hook(e, target.Key, value)
		if err != nil {
			return err
		}
		value = validated
	}

	e.Set(target.AttributeName(), value)
	return nil
}

// isBlank reports nil, empty strings, whitespace-only strings and empty
// collections
func isBlank(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
