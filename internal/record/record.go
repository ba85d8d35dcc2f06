// Package record caches reflection information for struct types used as
// statement records. A struct participates through its `db` tags: tagged
// fields can be collected into a column-to-value record map for inserts, and
// located by column name when scanning result rows.
package record

import (
	"reflect"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Field holds the location of a single tagged struct field.
type Field struct {
	// Name is the name of the struct field.
	Name string

	// Index is the field's index within the struct.
	Index int

	// OmitEmpty is true when "omitempty" is a property of the field's "db"
	// tag. Zero-valued omitempty fields are left out of record maps.
	OmitEmpty bool
}

// Info holds the reflection information for one struct type.
type Info struct {
	// Type is the reflected struct type.
	Type reflect.Type

	// Fields maps "db" tags to struct fields. Fields without a "db" tag are
	// outside of this package's remit.
	Fields map[string]Field
}

var cacheMutex sync.RWMutex
var cache = make(map[reflect.Type]*Info)

// Reflect returns the Info of the given struct value, generating and caching
// it as required. Pointers are dereferenced.
func Reflect(value any) (*Info, error) {
	if value == (any)(nil) {
		return nil, errors.New("cannot reflect nil value")
	}

	v := reflect.Indirect(reflect.ValueOf(value))

	cacheMutex.RLock()
	info, found := cache[v.Type()]
	cacheMutex.RUnlock()
	if found {
		return info, nil
	}

	info, err := generate(v.Type())
	if err != nil {
		return nil, err
	}

	cacheMutex.Lock()
	cache[v.Type()] = info
	cacheMutex.Unlock()

	return info, nil
}

// generate produces reflection information for a struct type.
func generate(typ reflect.Type) (*Info, error) {
	if typ.Kind() != reflect.Struct {
		return nil, errors.Errorf("cannot use %s as a record: not a struct", typ.Kind())
	}

	info := Info{
		Fields: make(map[string]Field),
		Type:   typ,
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("db")
		if tag == "" {
			continue
		}
		tag, omitEmpty, err := parseTag(tag)
		if err != nil {
			return nil, err
		}
		info.Fields[tag] = Field{
			Name:      field.Name,
			Index:     i,
			OmitEmpty: omitEmpty,
		}
	}

	return &info, nil
}

// parseTag parses the input tag string and returns its name and whether it
// contains the "omitempty" option.
func parseTag(tag string) (string, bool, error) {
	options := strings.Split(tag, ",")

	var omitEmpty bool
	if len(options) > 1 {
		if strings.ToLower(options[1]) != "omitempty" {
			return "", false, errors.Errorf("unexpected tag value %q", options[1])
		}
		omitEmpty = true
	}

	return options[0], omitEmpty, nil
}

// Map collects the tagged fields of a struct value into a record map from
// column name to value. Zero-valued omitempty fields are skipped.
func Map(value any) (map[string]any, error) {
	info, err := Reflect(value)
	if err != nil {
		return nil, err
	}
	v := reflect.Indirect(reflect.ValueOf(value))
	m := make(map[string]any, len(info.Fields))
	for tag, field := range info.Fields {
		fv := v.Field(field.Index)
		if field.OmitEmpty && fv.IsZero() {
			continue
		}
		m[tag] = fv.Interface()
	}
	return m, nil
}

// Locate returns a pointer to the field of out tagged with column, for use
// as a sql.Rows scan destination. out must be a pointer to a struct. The
// second result is false when the struct has no field for the column.
func Locate(out any, column string) (any, bool, error) {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, false, errors.Errorf("cannot scan into %T: need a non-nil struct pointer", out)
	}
	elem := v.Elem()
	info, err := Reflect(elem.Interface())
	if err != nil {
		return nil, false, err
	}
	field, ok := info.Fields[column]
	if !ok {
		return nil, false, nil
	}
	return elem.Field(field.Index).Addr().Interface(), true, nil
}
