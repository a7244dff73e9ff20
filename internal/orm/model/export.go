package model

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/conduit-lang/restbind/internal/orm/schema"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// ToDict exports every wire-visible field of e, readonly ones included and
// protected ones excluded. When two fields share a wire name the first one
// in iteration order is kept.
func (m *Model) ToDict(e Entity) (map[string]interface{}, error) {
	fields := m.schema.IterJSONColumns(true, schema.AllColumns)
	result := make(map[string]interface{}, len(fields))

	for _, f := range fields {
		value, err := m.read(e, f)
		if err != nil {
			return nil, err
		}
		key, exported, err := m.PrepareForExport(f, value)
		if err != nil {
			return nil, fmt.Errorf("export %s.%s: %w", m.schema.Name, f.Key, err)
		}
		if _, exists := result[key]; !exists {
			result[key] = exported
		}
	}
	return result, nil
}

// PrepareForExport converts one field value to its wire name and wire form.
//
// To-many relationships become a list of nested dictionaries. Times are
// rendered as ISO 8601 text according to the column type, decimals as
// their exact string and sets as a sorted list. Nested entities are
// exported through their own ToDict. Everything else is returned as is.
func (m *Model) PrepareForExport(f *schema.Field, value interface{}) (string, interface{}, error) {
	if f.IsToMany() {
		list, err := exportList(value)
		return f.WireName, list, err
	}

	column, err := m.schema.Column(f)
	if err != nil {
		return "", nil, err
	}

	exported, err := exportValue(column.Type, value)
	return f.WireName, exported, err
}

func (m *Model) read(e Entity, f *schema.Field) (interface{}, error) {
	if f.Kind != schema.KindSynonym {
		return e.Get(f.Key), nil
	}
	column, err := m.schema.Column(f)
	if err != nil {
		return nil, err
	}
	return e.Get(column.Key), nil
}

func exportValue(t schema.PrimitiveType, value interface{}) (interface{}, error) {
	if isNil(value) {
		return nil, nil
	}

	switch v := value.(type) {
	case time.Time:
		return formatTime(t, v), nil
	case *time.Time:
		return formatTime(t, *v), nil
	case Exporter:
		return v.ToDict()
	case decimal.Decimal:
		return decimalString(v), nil
	case *decimal.Decimal:
		return decimalString(*v), nil
	case decimal.NullDecimal:
		if !v.Valid {
			return nil, nil
		}
		return decimalString(v.Decimal), nil
	}

	if set, ok := exportSet(value, t == schema.TypeSet); ok {
		return set, nil
	}
	return value, nil
}

// decimalString keeps the scale the value was created with, so 12.50 stays
// "12.50" rather than "12.5".
func decimalString(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

func formatTime(t schema.PrimitiveType, v time.Time) string {
	switch t {
	case schema.TypeDate:
		return v.Format(dateLayout)
	case schema.TypeTime:
		return v.Format(timeLayout)
	}
	return formatDateTime(v)
}

// formatDateTime renders fractional seconds only when present. UTC is
// written with a Z suffix, other zones with their numeric offset.
func formatDateTime(v time.Time) string {
	if v.Location() == time.UTC {
		return v.Format("2006-01-02T15:04:05.999999") + "Z"
	}
	return v.Format("2006-01-02T15:04:05.999999-07:00")
}

func exportList(value interface{}) ([]interface{}, error) {
	if isNil(value) {
		return []interface{}{}, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("to-many value must be a slice, got %T", value)
	}

	list := make([]interface{}, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i).Interface()
		exporter, ok := item.(Exporter)
		if !ok {
			return nil, fmt.Errorf("item %d of type %T cannot be exported", i, item)
		}
		dict, err := exporter.ToDict()
		if err != nil {
			return nil, err
		}
		list = append(list, dict)
	}
	return list, nil
}

// exportSet recognizes map[T]struct{}, and map[T]bool on set columns. A bool
// map only counts members mapped to true.
func exportSet(value interface{}, setColumn bool) ([]interface{}, bool) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	elem := rv.Type().Elem()
	isStructSet := elem.Kind() == reflect.Struct && elem.NumField() == 0
	isBoolSet := setColumn && elem.Kind() == reflect.Bool
	if !isStructSet && !isBoolSet {
		return nil, false
	}

	members := make([]interface{}, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		if isBoolSet && !iter.Value().Bool() {
			continue
		}
		members = append(members, iter.Key().Interface())
	}
	sort.Slice(members, func(i, j int) bool {
		return fmt.Sprint(members[i]) < fmt.Sprint(members[j])
	})
	return members, true
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
