// Package metadata builds self-describing field catalogs for entity types.
// A catalog maps wire names to records a client can use to render forms or
// generate API documentation without a live request.
package metadata

import (
	"sort"
)

// Record is a read-only snapshot of one field's externally relevant shape
type Record struct {
	Name      string      `json:"name" yaml:"name" msgpack:"name"`
	Key       string      `json:"key" yaml:"key" msgpack:"key"`
	Type      string      `json:"type" yaml:"type" msgpack:"type"`
	Target    string      `json:"target,omitempty" yaml:"target,omitempty" msgpack:"target,omitempty"`
	Required  bool        `json:"required" yaml:"required" msgpack:"required"`
	NotNone   bool        `json:"notNone" yaml:"notNone" msgpack:"notNone"`
	Readonly  bool        `json:"readonly" yaml:"readonly" msgpack:"readonly"`
	Protected bool        `json:"protected" yaml:"protected" msgpack:"protected"`
	Primary   bool        `json:"primaryKey" yaml:"primaryKey" msgpack:"primaryKey"`
	MinLength *int        `json:"minLength,omitempty" yaml:"minLength,omitempty" msgpack:"minLength,omitempty"`
	MaxLength *int        `json:"maxLength,omitempty" yaml:"maxLength,omitempty" msgpack:"maxLength,omitempty"`
	Minimum   interface{} `json:"minimum,omitempty" yaml:"minimum,omitempty" msgpack:"minimum,omitempty"`
	Maximum   interface{} `json:"maximum,omitempty" yaml:"maximum,omitempty" msgpack:"maximum,omitempty"`
	Pattern   string      `json:"pattern,omitempty" yaml:"pattern,omitempty" msgpack:"pattern,omitempty"`
	Label     string      `json:"label,omitempty" yaml:"label,omitempty" msgpack:"label,omitempty"`
	Watermark string      `json:"watermark,omitempty" yaml:"watermark,omitempty" msgpack:"watermark,omitempty"`
	Example   string      `json:"example,omitempty" yaml:"example,omitempty" msgpack:"example,omitempty"`
	Message   string      `json:"message,omitempty" yaml:"message,omitempty" msgpack:"message,omitempty"`
	Default   interface{} `json:"default,omitempty" yaml:"default,omitempty" msgpack:"default,omitempty"`
}

// Catalog maps each record's key to the record
type Catalog map[string]*Record

// Keys returns the catalog keys in sorted order
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sorted returns the records ordered by key
func (c Catalog) Sorted() []*Record {
	out := make([]*Record, 0, len(c))
	for _, k := range c.Keys() {
		out = append(out, c[k])
	}
	return out
}
