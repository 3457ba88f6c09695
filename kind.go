package sheetmagic

import (
	"reflect"
	"time"
)

// Enum is implemented by integer-backed enumerations that are stored by
// member name. EnumNames returns the member names indexed by value, so
// EnumNames()[v] is the name of value v.
//
//	type Color int
//
//	func (Color) EnumNames() []string { return []string{"Red", "Green", "Blue"} }
//
// The method must have a value receiver.
type Enum interface {
	EnumNames() []string
}

// valueKind is the closed set of field kinds the coercion engine knows how
// to convert. It is computed once per field when a type plan is built.
type valueKind int

const (
	kindUnsupported valueKind = iota
	kindString
	kindBool
	kindInt
	kindUint
	kindFloat
	kindTime
	kindEnum
	// kindStringList is []string, split and joined with the list separator.
	kindStringList
	// kindList is any other slice or array. It is written but never read.
	kindList
	// kindAny is an empty interface, dispatched on the dynamic value.
	kindAny
	// kindStruct is a nested struct, reachable only through PropertyOrder paths.
	kindStruct
)

// String returns the name used in error messages.
func (k valueKind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindBool:
		return "boolean"
	case kindInt:
		return "integer"
	case kindUint:
		return "unsigned integer"
	case kindFloat:
		return "floating point"
	case kindTime:
		return "date"
	case kindEnum:
		return "enumeration"
	case kindStringList:
		return "string list"
	case kindList:
		return "list"
	case kindAny:
		return "any"
	case kindStruct:
		return "struct"
	default:
		return "unsupported"
	}
}

// readable reports whether cells can be converted into this kind.
func (k valueKind) readable() bool {
	switch k {
	case kindString, kindBool, kindInt, kindUint, kindFloat, kindTime, kindEnum, kindStringList, kindAny:
		return true
	default:
		return false
	}
}

var (
	timeType = reflect.TypeFor[time.Time]()
	enumType = reflect.TypeFor[Enum]()
)

// kindOf classifies t. A single pointer level marks the kind as nullable.
func kindOf(t reflect.Type) (valueKind, bool) {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	if t == timeType {
		return kindTime, nullable
	}
	if t.Implements(enumType) && isIntegerKind(t.Kind()) {
		return kindEnum, nullable
	}

	switch t.Kind() {
	case reflect.String:
		return kindString, nullable
	case reflect.Bool:
		return kindBool, nullable
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return kindInt, nullable
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return kindUint, nullable
	case reflect.Float32, reflect.Float64:
		return kindFloat, nullable
	case reflect.Slice:
		if t.Elem().Kind() == reflect.String && !t.Elem().Implements(enumType) {
			return kindStringList, nullable
		}
		return kindList, nullable
	case reflect.Array:
		return kindList, nullable
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return kindAny, nullable
		}
	case reflect.Struct:
		return kindStruct, nullable
	}
	return kindUnsupported, nullable
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}
