package model

import (
	"sync"

	"github.com/conduit-lang/restbind/internal/orm/schema"
	"github.com/conduit-lang/restbind/internal/web/request"
)

// Entity is an instance the binding engine can read and write
type Entity = schema.Entity

// Exporter renders itself as a wire dictionary. Nested entities exported
// inside another entity's dictionary go through this.
type Exporter interface {
	ToDict() (map[string]interface{}, error)
}

// AttachmentDelegate takes over assignment of an attachment field. The
// delegate is read from the entity under the field's attribute name.
type AttachmentDelegate interface {
	FromRequest(req *request.Request, field *schema.Field, file request.UploadedFile) error
}

// Session tracks entities that should be persisted on the next commit
type Session interface {
	Add(e Entity)
}

// Record is a map backed Entity bound to a Model
type Record struct {
	model *Model

	mu     sync.RWMutex
	values map[string]interface{}
}

func newRecord(m *Model) *Record {
	r := &Record{
		model:  m,
		values: make(map[string]interface{}),
	}
	for _, f := range m.schema.IterColumns(schema.IterOptions{}) {
		if f.Default != nil {
			r.values[f.Key] = f.Default
		}
	}
	return r
}

// EntityName returns the schema name
func (r *Record) EntityName() string {
	return r.model.schema.Name
}

// Model returns the model the record belongs to
func (r *Record) Model() *Model {
	return r.model
}

// Get returns the stored value for key, or nil
func (r *Record) Get(key string) interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values[key]
}

// Set stores value under key. A name that is only declared with the derived
// marker, like "password" for "_password", is stored under the marked key.
// Attachment fields are the exception: their attribute name holds the
// delegate.
func (r *Record) Set(key string, value interface{}) {
	if _, declared := r.model.schema.Field(key); !declared {
		if f, ok := r.model.schema.Field(schema.DerivedMarker + key); ok && !f.Attachment {
			key = f.Key
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
}

// Values returns a copy of the stored values
func (r *Record) Values() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]interface{}, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// ToDict exports the record through its model
func (r *Record) ToDict() (map[string]interface{}, error) {
	return r.model.ToDict(r)
}
