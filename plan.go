package sheetmagic

import (
	"maps"
	"reflect"
	"slices"
	"strings"
)

// tagName is the struct tag that overrides a column label. The value "-"
// skips the field.
const tagName = "sheet"

// fieldPlan is one field of a record type together with everything needed
// to read and write it without further name lookups.
type fieldPlan struct {
	name  string
	label string
	// index is the field path from the record struct. Pointers between the
	// steps are followed like reflect.Value.FieldByIndex does.
	index    []int
	typ      reflect.Type
	kind     valueKind
	nullable bool
}

// get returns the field of the struct value v. It reports false when a nil
// pointer sits on the path.
func (f *fieldPlan) get(v reflect.Value) (reflect.Value, bool) {
	for i, x := range f.index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

// field returns the settable field of the addressable struct value v,
// allocating nil pointers on the path.
func (f *fieldPlan) field(v reflect.Value) reflect.Value {
	for i, x := range f.index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

// typeDescriptor lists the exported fields of a struct type in declaration
// order. Fields of embedded structs are promoted in place of the embedded field.
type typeDescriptor struct {
	typ    reflect.Type
	fields []*fieldPlan
}

// describe builds the descriptor of struct type t.
func describe(t reflect.Type) *typeDescriptor {
	d := &typeDescriptor{typ: t}
	var skipped [][]int
	for _, sf := range reflect.VisibleFields(t) {
		if slices.ContainsFunc(skipped, func(prefix []int) bool { return hasPrefix(sf.Index, prefix) }) {
			continue
		}
		tag := sf.Tag.Get(tagName)
		if tag == "-" {
			skipped = append(skipped, sf.Index)
			continue
		}
		kind, nullable := kindOf(sf.Type)
		if sf.Anonymous && kind == kindStruct {
			if !sf.IsExported() && sf.Type.Kind() == reflect.Pointer {
				// Promoted fields behind an unexported pointer cannot be allocated.
				skipped = append(skipped, sf.Index)
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}

		label := sf.Name
		if tag != "" {
			label = tag
		}
		d.fields = append(d.fields, &fieldPlan{
			name:     sf.Name,
			label:    label,
			index:    sf.Index,
			typ:      sf.Type,
			kind:     kind,
			nullable: nullable,
		})
	}
	return d
}

func hasPrefix(index, prefix []int) bool {
	return len(index) > len(prefix) && slices.Equal(index[:len(prefix)], prefix)
}

// flat returns the fields that can become columns.
func (d *typeDescriptor) flat() []*fieldPlan {
	out := make([]*fieldPlan, 0, len(d.fields))
	for _, f := range d.fields {
		if f.kind != kindStruct {
			out = append(out, f)
		}
	}
	return out
}

// lookup finds a field by name, ignoring case.
func (d *typeDescriptor) lookup(name string, candidates []*fieldPlan) *fieldPlan {
	for _, f := range candidates {
		if strings.EqualFold(f.name, name) {
			return f
		}
	}
	return nil
}

// column is one planned column: a mapped field or a dynamic extension key.
type column struct {
	label string
	field *fieldPlan
	key   string
}

func (c column) mapped() bool { return c.field != nil }

// propertyAllowed applies IncludeProperties or ExcludeProperties to a field
// name or extension key. Empty lists do not filter.
func propertyAllowed(name string, o *AddSheetOptions) bool {
	matches := func(p string) bool { return strings.EqualFold(p, name) }
	if len(o.IncludeProperties) > 0 {
		return slices.ContainsFunc(o.IncludeProperties, matches)
	}
	if len(o.ExcludeProperties) > 0 {
		return !slices.ContainsFunc(o.ExcludeProperties, matches)
	}
	return true
}

// planColumns decides the columns written for a batch: mapped fields first,
// then the extension keys.
func planColumns(d *typeDescriptor, o *AddSheetOptions, keys []string) ([]column, error) {
	var allowed []*fieldPlan
	for _, f := range d.fields {
		if propertyAllowed(f.name, o) {
			allowed = append(allowed, f)
		}
	}

	var mapped []*fieldPlan
	if len(o.PropertyOrder) > 0 {
		for _, path := range o.PropertyOrder {
			f, err := resolvePath(d, allowed, path)
			if err != nil {
				return nil, err
			}
			mapped = append(mapped, f)
		}
	} else {
		for _, f := range allowed {
			if f.kind != kindStruct {
				mapped = append(mapped, f)
			}
		}
	}

	columns := make([]column, 0, len(mapped)+len(keys))
	headers := o.PropertyHeaders
	useHeaders := len(headers) > 0 && len(headers) == len(mapped)
	for i, f := range mapped {
		label := f.label
		if useHeaders {
			label = headers[i]
		}
		columns = append(columns, column{label: label, field: f})
	}
	for _, key := range keys {
		columns = append(columns, column{label: key, key: key})
	}
	return columns, nil
}

// resolvePath resolves a dotted PropertyOrder path such as "Owner.Address.City".
// The first segment is looked up among candidates, later segments among the
// fields of the nested struct. The returned plan reads through the whole path.
func resolvePath(d *typeDescriptor, candidates []*fieldPlan, path string) (*fieldPlan, error) {
	segments := strings.Split(path, ".")
	f := d.lookup(segments[0], candidates)
	if f == nil {
		return nil, &PropertyNotFoundError{Path: path, Segment: segments[0]}
	}
	index := slices.Clone(f.index)
	for _, segment := range segments[1:] {
		if f.kind != kindStruct {
			return nil, &PropertyNotFoundError{Path: path, Segment: segment}
		}
		nested := describe(derefType(f.typ))
		f = nested.lookup(segment, nested.fields)
		if f == nil {
			return nil, &PropertyNotFoundError{Path: path, Segment: segment}
		}
		index = append(index, f.index...)
	}
	leaf := *f
	leaf.index = index
	return &leaf, nil
}

func derefType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// extensionKeys returns the distinct allowed keys of the property bags,
// sorted or in the order they are first seen. Keys within one bag are taken
// in sorted order since maps have none.
func extensionKeys(bags []map[string]any, o *AddSheetOptions) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, bag := range bags {
		for _, key := range slices.Sorted(maps.Keys(bag)) {
			if _, ok := seen[key]; ok || !propertyAllowed(key, o) {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	if o.ShouldSortExtendedProperties() {
		slices.Sort(keys)
	}
	return keys
}
