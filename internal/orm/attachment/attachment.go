package attachment

import (
	"errors"
	"fmt"

	"github.com/conduit-lang/restbind/internal/orm/schema"
	"github.com/conduit-lang/restbind/internal/web/request"
)

// Attachment is the delegate an entity keeps under an attachment field's
// attribute name. Imported files are saved to the store and the resulting
// descriptor is written to the field's column.
type Attachment struct {
	store Store
	owner schema.Entity
}

// New creates the delegate for owner
func New(store Store, owner schema.Entity) *Attachment {
	return &Attachment{store: store, owner: owner}
}

// FromRequest saves file and records it on the owner. A previously stored
// file is removed once the new one is in place.
func (a *Attachment) FromRequest(_ *request.Request, field *schema.Field, file request.UploadedFile) error {
	stored, err := a.store.Save(file)
	if err != nil {
		return fmt.Errorf("%s: %w", field.AttributeName(), err)
	}

	previous, _ := a.owner.Get(field.Key).(*StoredFile)
	a.owner.Set(field.Key, stored)

	if previous != nil && previous.ID != "" {
		if err := a.store.Delete(previous.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%s: remove replaced file: %w", field.AttributeName(), err)
		}
	}
	return nil
}

// Initializer returns a function that installs an Attachment delegate for
// every attachment field of s on a new entity
func Initializer(store Store, s *schema.EntitySchema) func(e schema.Entity) error {
	var fields []*schema.Field
	for _, f := range s.Fields() {
		if f.Attachment {
			fields = append(fields, f)
		}
	}
	return func(e schema.Entity) error {
		for _, f := range fields {
			e.Set(f.AttributeName(), New(store, e))
		}
		return nil
	}
}
